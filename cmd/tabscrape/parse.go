package main

import (
	"github.com/spf13/cobra"
)

func parseCmd(a *app) *cobra.Command {
	var responsePath string

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Turn a saved service response into a table",
		Long: `Runs JSON extraction, repair and normalization on a raw response saved
earlier, without calling the service.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readInput(cmd, responsePath)
			if err != nil {
				return err
			}
			result := a.pipeline(nil).ParseResponse(cmd.Context(), raw)
			return a.finish(cmd, result, responsePath)
		},
	}

	cmd.Flags().StringVar(&responsePath, "response", "", "file holding the raw response")
	_ = cmd.MarkFlagRequired("response")
	return cmd
}
