package domain

import "strings"

// Ident is an ordered tuple of name-path levels, e.g. [metalake, catalog,
// schema]. A schema identifier always has length 3; the first two levels
// name the owning catalog.
type Ident struct {
	Levels []string
}

// NewIdent builds an Ident from its path levels.
func NewIdent(levels ...string) Ident {
	cp := make([]string, len(levels))
	copy(cp, levels)
	return Ident{Levels: cp}
}

// ParseIdent splits a dot-delimited fully-qualified name into an Ident.
func ParseIdent(fqn string) Ident {
	return NewIdent(strings.Split(fqn, ".")...)
}

// String renders the identifier as a dot-delimited fully-qualified name.
func (i Ident) String() string {
	return strings.Join(i.Levels, ".")
}

// Name returns the leaf (last) level, i.e. the schema's own name.
func (i Ident) Name() string {
	if len(i.Levels) == 0 {
		return ""
	}
	return i.Levels[len(i.Levels)-1]
}

// Namespace returns the prefix of the identifier (all but the leaf level).
func (i Ident) Namespace() Namespace {
	if len(i.Levels) == 0 {
		return Namespace{}
	}
	ns := make([]string, len(i.Levels)-1)
	copy(ns, i.Levels[:len(i.Levels)-1])
	return Namespace{Levels: ns}
}

// CatalogIdent returns the identifier of the owning catalog, i.e. the
// first two levels of a schema identifier.
func (i Ident) CatalogIdent() Ident {
	if len(i.Levels) < 2 {
		return i
	}
	return NewIdent(i.Levels[:2]...)
}

// Namespace is the prefix of a name identifier.
type Namespace struct {
	Levels []string
}

// NewNamespace builds a Namespace from its path levels.
func NewNamespace(levels ...string) Namespace {
	cp := make([]string, len(levels))
	copy(cp, levels)
	return Namespace{Levels: cp}
}

// String renders the namespace as a dot-delimited path.
func (n Namespace) String() string {
	return strings.Join(n.Levels, ".")
}

// Ident appends name as the leaf level, producing a full identifier.
func (n Namespace) Ident(name string) Ident {
	levels := make([]string, 0, len(n.Levels)+1)
	levels = append(levels, n.Levels...)
	levels = append(levels, name)
	return NewIdent(levels...)
}

// CatalogIdent returns the identifier of the catalog this namespace lives
// under; the namespace of listSchemas(ns) has |ns| = 2 (metalake, catalog).
func (n Namespace) CatalogIdent() Ident {
	if len(n.Levels) < 2 {
		return NewIdent(n.Levels...)
	}
	return NewIdent(n.Levels[:2]...)
}
