package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	deliverTemplate string
	deliverLanguage string
)

var deliverCmd = &cobra.Command{
	Use:   "deliver-test [wa_id]",
	Short: "Send a template message to check WhatsApp delivery",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.close()

		if err := svc.sender.SendTemplate(cmd.Context(), args[0], deliverTemplate, deliverLanguage); err != nil {
			return fmt.Errorf("deliver template failed: %w", err)
		}
		cmd.Printf("template %s sent to %s\n", deliverTemplate, args[0])
		return nil
	},
}

func init() {
	deliverCmd.Flags().StringVar(&deliverTemplate, "template", "hello_world", "approved template name")
	deliverCmd.Flags().StringVar(&deliverLanguage, "language", "en_US", "template language code")
	rootCmd.AddCommand(deliverCmd)
}
