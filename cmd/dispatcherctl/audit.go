package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"metacat/internal/domain"
)

func newAuditCmd(storePath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query the dispatcher's audit log",
	}
	cmd.AddCommand(newAuditListCmd(storePath))
	return cmd
}

func newAuditListCmd(storePath *string) *cobra.Command {
	var principal string
	var action string
	var schemaIdent string
	var status string
	var limit int
	var offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit log entries, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(*storePath)
			if err != nil {
				return err
			}
			defer cleanup()

			filter := domain.AuditFilter{Limit: limit, Offset: offset}
			if principal != "" {
				filter.PrincipalName = &principal
			}
			if action != "" {
				filter.Action = &action
			}
			if schemaIdent != "" {
				filter.SchemaIdent = &schemaIdent
			}
			if status != "" {
				filter.Status = &status
			}

			entries, total, err := a.Audit.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "total=%d\n", total)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			for _, e := range entries {
				if err := enc.Encode(e); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&principal, "principal", "", "filter by principal name")
	cmd.Flags().StringVar(&action, "action", "", "filter by action, e.g. CREATE_SCHEMA")
	cmd.Flags().StringVar(&schemaIdent, "schema", "", "filter by full schema identifier")
	cmd.Flags().StringVar(&status, "status", "", "filter by status: ALLOWED, DENIED, or ERROR")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")
	return cmd
}
