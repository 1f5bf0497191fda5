package main

import (
	"errors"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/promptly/client/internal/models"
	"github.com/spf13/cobra"
)

// errUnhealthy is returned after an unhealthy result has been printed
var errUnhealthy = errors.New("service unhealthy")

func newHealthCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check whether the generation service is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}
			client, err := root.client(cfg, root.logger())
			if err != nil {
				return err
			}

			if !client.CheckHealth(cmd.Context()) {
				fmt.Fprintln(cmd.OutOrStdout(), "unhealthy")
				return errUnhealthy
			}
			fmt.Fprintln(cmd.OutOrStdout(), "healthy")
			return nil
		},
	}
}

func newProvidersCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "Show which model providers the service can reach",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}
			client, err := root.client(cfg, root.logger())
			if err != nil {
				return err
			}

			status, err := client.ProviderStatus(cmd.Context())
			if err != nil {
				return err
			}
			return printProviders(cmd, status)
		},
	}
}

func printProviders(cmd *cobra.Command, status models.ProviderStatus) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Status:\t%s\n", status.Status)
	if status.PrimaryProvider != "" {
		fmt.Fprintf(w, "Primary:\t%s\n", status.PrimaryProvider)
	}
	if status.FallbackProvider != "" {
		fmt.Fprintf(w, "Fallback:\t%s\n", status.FallbackProvider)
	}
	if status.LocalFallback != "" {
		fmt.Fprintf(w, "Local fallback:\t%s\n", status.LocalFallback)
	}
	if status.Error != "" {
		fmt.Fprintf(w, "Error:\t%s\n", status.Error)
	}

	names := make([]string, 0, len(status.Providers))
	for name := range status.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		state := "unavailable"
		if status.Providers[name] {
			state = "available"
		}
		fmt.Fprintf(w, "  %s\t%s\n", name, state)
	}
	return w.Flush()
}
