package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/BTreeMap/ThoughtWeaver/internal/catalog"
	"github.com/BTreeMap/ThoughtWeaver/internal/config"
	"github.com/BTreeMap/ThoughtWeaver/internal/store"
)

func newRolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "List workflow roles and their suggested assistants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tASSISTANTS")
			for _, r := range catalog.Default().Roles() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Category, strings.Join(r.SuggestedAssistantIDs, ","))
			}
			return w.Flush()
		},
	}
}

func newTemplatesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List saved workflow templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := store.Open(a.cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer templates.Close()

			list, err := templates.ListTemplates(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTEPS\tCREATED")
			for _, t := range list {
				roles := make([]string, len(t.Steps))
				for i, s := range t.Steps {
					roles[i] = s.RoleID
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Name, strings.Join(roles, ">"), t.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("db-dsn", "", "template store DSN (overrides $DATABASE_URL)")
	a.bindKey(cmd, config.KeyDBDSN, "db-dsn")
	return cmd
}
