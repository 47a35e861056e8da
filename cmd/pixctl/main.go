package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pixctl",
		Short: "Оплата подписки через PIX из терминала",
	}
	rootCmd.PersistentFlags().String("gateway", envOr("PIXCTL_GATEWAY_URL", "http://localhost:8080"), "Адрес платёжного шлюза")
	rootCmd.PersistentFlags().String("admin", envOr("PIXCTL_ADMIN_URL", "http://localhost:8081"), "Адрес API настроек витрины")
	rootCmd.PersistentFlags().String("origin-domain", os.Getenv("PIXCTL_ORIGIN_DOMAIN"), "Домен витрины для выбора учётных данных")

	rootCmd.AddCommand(plansCmd())
	rootCmd.AddCommand(payCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
