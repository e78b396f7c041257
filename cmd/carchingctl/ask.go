package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question with retrieved context and no history",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.close()

		cmd.Println(svc.asker.Ping(cmd.Context(), strings.Join(args, " ")))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
