package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pix-storefront/internal/adapters/gatewayclient"
	"pix-storefront/internal/usecase/checkout"
)

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

func payCmd() *cobra.Command {
	var (
		planName string
		price    string
		form     checkout.Form
		auto     bool
		copyCode bool
		verbose  bool
	)
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Сгенерировать PIX-код для оплаты тарифа",
		RunE: func(cmd *cobra.Command, args []string) error {
			amount := checkout.ParsePrice(price)
			if amount <= 0 {
				return fmt.Errorf("некорректная цена %q", price)
			}
			gatewayURL, _ := cmd.Flags().GetString("gateway")
			originDomain, _ := cmd.Flags().GetString("origin-domain")
			client, err := gatewayclient.New(gatewayURL, gatewayclient.WithOriginDomain(originDomain))
			if err != nil {
				return err
			}

			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

			opts := []checkout.Option{
				checkout.WithNotifier(consoleNotifier(cmd.ErrOrStderr())),
				checkout.WithLogger(log),
			}
			if copyCode {
				opts = append(opts, checkout.WithClipboard(systemClipboard{}))
			}
			if auto {
				opts = append(opts, checkout.WithAutoGenerate(), checkout.WithIdentity(checkout.DefaultPlaceholder))
			}
			ctrl := checkout.NewController(client, checkout.Plan{Name: planName, Amount: amount}, opts...)
			defer ctrl.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if auto {
				err = ctrl.Show(ctx)
			} else {
				ctrl.SetName(form.Name)
				ctrl.SetCPF(form.CPF)
				ctrl.SetEmail(form.Email)
				ctrl.SetPhone(form.Phone)
				err = ctrl.Submit(ctx)
			}
			if err != nil {
				var fieldErr *checkout.FieldError
				if errors.As(err, &fieldErr) {
					return fmt.Errorf("%s: %s", checkout.MsgFillAllFields, fieldErr.Field)
				}
				return errors.New(checkout.MsgGenerateFailed)
			}

			snap := ctrl.Snapshot()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Plano: %s (%s)\n", planName, checkout.FormatPrice(amount))
			if snap.Identifier != "" {
				fmt.Fprintf(out, "Identificador: %s\n", snap.Identifier)
			}
			fmt.Fprintf(out, "\n%s\n", snap.PixCode)
			if copyCode {
				_ = ctrl.CopyCode()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&planName, "plan", "3 Meses", "Название тарифа")
	cmd.Flags().StringVar(&price, "price", "R$ 19,90", "Цена тарифа, например \"R$ 19,90\"")
	cmd.Flags().StringVar(&form.Name, "name", "", "Имя плательщика")
	cmd.Flags().StringVar(&form.CPF, "cpf", "", "CPF плательщика")
	cmd.Flags().StringVar(&form.Email, "email", "", "E-mail плательщика")
	cmd.Flags().StringVar(&form.Phone, "phone", "", "Телефон плательщика")
	cmd.Flags().BoolVar(&auto, "auto", false, "Сразу сгенерировать код с данными-заглушками")
	cmd.Flags().BoolVar(&copyCode, "copy", false, "Скопировать код в буфер обмена")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Подробный лог")
	return cmd
}

func consoleNotifier(w io.Writer) checkout.Notifier {
	return checkout.NotifierFunc(func(n checkout.Notification) {
		prefix := "✓"
		if n.Destructive {
			prefix = "✗"
		}
		fmt.Fprintf(w, "%s %s: %s\n", prefix, n.Title, n.Description)
	})
}
