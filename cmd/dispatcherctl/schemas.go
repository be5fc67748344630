package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"metacat/internal/app"
	"metacat/internal/config"
	internaldb "metacat/internal/db"
	"metacat/internal/domain"
)

// openApp wires an in-process dispatcher stack against the SQLite file at
// storePath, running migrations if needed. The caller must call Close.
func openApp(storePath string) (*app.App, func(), error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, err
	}
	cfg.StorePath = storePath
	cfg.ReconcileInterval = 0 // no background sweep for a one-shot CLI invocation

	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.StorePath, 1)
	if err != nil {
		return nil, nil, err
	}
	if err := internaldb.RunMigrations(writeDB); err != nil {
		_ = writeDB.Close()
		_ = readDB.Close()
		return nil, nil, err
	}

	a, err := app.New(context.Background(), app.Deps{
		Cfg: cfg, WriteDB: writeDB, ReadDB: readDB, Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		_ = writeDB.Close()
		_ = readDB.Close()
		return nil, nil, err
	}

	cleanup := func() {
		a.Close()
		_ = writeDB.Close()
		_ = readDB.Close()
	}
	return a, cleanup, nil
}

func newSchemasCmd(storePath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "Manage catalog schemas through the dispatcher",
	}
	cmd.AddCommand(
		newSchemasListCmd(storePath),
		newSchemasCreateCmd(storePath),
		newSchemasLoadCmd(storePath),
		newSchemasAlterCmd(storePath),
		newSchemasDropCmd(storePath),
	)
	return cmd
}

func newSchemasListCmd(storePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list <catalog>",
		Short: "List the schemas a catalog reports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(*storePath)
			if err != nil {
				return err
			}
			defer cleanup()

			ns := domain.NewNamespace(strings.Split(args[0], ".")...)
			idents, err := a.Schema.ListSchemas(cmd.Context(), ns)
			if err != nil {
				return err
			}
			for _, id := range idents {
				fmt.Fprintln(cmd.OutOrStdout(), id.String())
			}
			return nil
		},
	}
}

func newSchemasCreateCmd(storePath *string) *cobra.Command {
	var comment string
	var props []string

	cmd := &cobra.Command{
		Use:   "create <catalog.schema>",
		Short: "Create a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(*storePath)
			if err != nil {
				return err
			}
			defer cleanup()

			ident := domain.ParseIdent(args[0])
			properties, err := parseProperties(props)
			if err != nil {
				return err
			}

			combined, err := a.Schema.CreateSchema(cmd.Context(), ident, comment, properties)
			if err != nil {
				return err
			}
			return printCombined(cmd, combined)
		},
	}
	cmd.Flags().StringVar(&comment, "comment", "", "schema comment")
	cmd.Flags().StringArrayVar(&props, "property", nil, "key=value, repeatable")
	return cmd
}

func newSchemasLoadCmd(storePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "load <catalog.schema>",
		Short: "Load a schema, reconciling the entity store if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(*storePath)
			if err != nil {
				return err
			}
			defer cleanup()

			combined, err := a.Schema.LoadSchema(cmd.Context(), domain.ParseIdent(args[0]))
			if err != nil {
				return err
			}
			return printCombined(cmd, combined)
		},
	}
}

func newSchemasAlterCmd(storePath *string) *cobra.Command {
	var setProps []string
	var removeProps []string
	var comment string

	cmd := &cobra.Command{
		Use:   "alter <catalog.schema>",
		Short: "Alter a schema's comment or properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(*storePath)
			if err != nil {
				return err
			}
			defer cleanup()

			var changes []domain.SchemaChange
			setMap, err := parseProperties(setProps)
			if err != nil {
				return err
			}
			for k, v := range setMap {
				changes = append(changes, domain.SchemaChange{Kind: domain.SetProperty, Property: k, Value: v})
			}
			for _, k := range removeProps {
				changes = append(changes, domain.SchemaChange{Kind: domain.RemoveProperty, Property: k})
			}
			if cmd.Flags().Changed("comment") {
				changes = append(changes, domain.SchemaChange{Kind: domain.UpdateComment, Value: comment})
			}

			combined, err := a.Schema.AlterSchema(cmd.Context(), domain.ParseIdent(args[0]), changes...)
			if err != nil {
				return err
			}
			return printCombined(cmd, combined)
		},
	}
	cmd.Flags().StringArrayVar(&setProps, "set", nil, "key=value, repeatable")
	cmd.Flags().StringArrayVar(&removeProps, "remove", nil, "property key to remove, repeatable")
	cmd.Flags().StringVar(&comment, "comment", "", "new comment")
	return cmd
}

func newSchemasDropCmd(storePath *string) *cobra.Command {
	var cascade bool
	cmd := &cobra.Command{
		Use:   "drop <catalog.schema>",
		Short: "Drop a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(*storePath)
			if err != nil {
				return err
			}
			defer cleanup()

			dropped, err := a.Schema.DropSchema(cmd.Context(), domain.ParseIdent(args[0]), cascade)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dropped=%t\n", dropped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "drop even if the schema is non-empty")
	return cmd
}

func parseProperties(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid property %q: expected key=value", p)
		}
		out[k] = v
	}
	return out, nil
}

func printCombined(cmd *cobra.Command, combined domain.CombinedSchema) error {
	body := map[string]interface{}{
		"name":       combined.Backend.Name,
		"comment":    combined.Backend.Comment,
		"properties": combined.Properties(),
		"imported":   combined.Imported,
	}
	if combined.Entity != nil {
		body["id"] = combined.Entity.ID
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(body)
}
