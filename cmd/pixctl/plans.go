package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pix-storefront/internal/adapters/gatewayclient"
)

func plansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "Показать тарифы витрины",
		RunE: func(cmd *cobra.Command, args []string) error {
			adminURL, _ := cmd.Flags().GetString("admin")
			client, err := gatewayclient.New(adminURL)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			sf, err := client.Settings(ctx)
			if err != nil {
				return fmt.Errorf("не удалось получить тарифы: %w", err)
			}
			out := cmd.OutOrStdout()
			if sf.Settings != nil && sf.Settings.ProfileName != "" {
				fmt.Fprintf(out, "%s\n\n", sf.Settings.ProfileName)
			}
			for _, plan := range sf.Plans {
				line := fmt.Sprintf("  %-10s %-12s %s", plan.ID, plan.Name, plan.Price)
				if plan.Badge != "" {
					line += "  [" + plan.Badge + "]"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}
