package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chatlens/chatlens/internal/config"
)

var providersConfigPath string

func newProvidersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List configured judge providers and their credential status",
		Args:  cobra.NoArgs,
		RunE:  providersCommandE,
	}

	cmd.Flags().StringVarP(&providersConfigPath, "config", "c", "", "Path to config YAML (built-in defaults when omitted)")

	return cmd
}

func providersCommandE(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(providersConfigPath)
	if err != nil {
		return err
	}

	creds, err := config.LoadCredentials(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tMODEL\tENABLED\tPRIORITY\tCREDENTIAL")
	for _, p := range cfg.Providers {
		credStatus := "ok"
		if _, err := creds.ForKind(p.Kind); err != nil {
			credStatus = "missing"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\t%s\n",
			p.Name, p.Kind, p.Model, p.Enabled, p.Priority, credStatus)
	}
	return w.Flush()
}
