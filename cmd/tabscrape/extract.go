package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func extractCmd(a *app) *cobra.Command {
	var textPath string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract records from a text file",
		Long:  `Sends the contents of a text file ("-" reads stdin) to the text-generation service and saves the resulting table.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := readInput(cmd, textPath)
			if err != nil {
				return err
			}
			requester, err := a.requester()
			if err != nil {
				return err
			}
			result, err := a.pipeline(requester).Run(cmd.Context(), text)
			if err != nil {
				return err
			}
			return a.finish(cmd, result, textPath)
		},
	}

	cmd.Flags().StringVar(&textPath, "text", "", "text file to extract from")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

// readInput returns the contents of path, or of stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
