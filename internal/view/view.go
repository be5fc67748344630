// Package view builds the dispatcher's combined view: the per-request
// merge of a backend's structural Schema with the store's identity and
// audit-bearing SchemaEntity.
package view

import "metacat/internal/domain"

// Build merges backend with an optional entity into a CombinedSchema.
// entity may be nil (managed catalogs, or an unmanaged catalog with no
// store row yet); hidden names the backend properties into HiddenKeys
// without removing them from Backend.Properties, per spec §4.5.
func Build(backend domain.Schema, entity *domain.SchemaEntity, hidden map[string]struct{}, imported bool) domain.CombinedSchema {
	return domain.CombinedSchema{
		Backend:    backend,
		Entity:     entity,
		HiddenKeys: hidden,
		Imported:   imported,
	}
}
