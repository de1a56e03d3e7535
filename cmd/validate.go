package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tanq16/bootfetch/internal/output"
	"github.com/tanq16/bootfetch/internal/urlx"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [URI...]",
		Short: "Check that URIs are acceptable download sources",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if !validateAll(args) {
				exit(1)
			}
		},
	}
}

func validateAll(uris []string) bool {
	ok := true
	for _, uri := range uris {
		if urlx.ValidateURI(uri) {
			output.PrintSuccess(uri)
			continue
		}
		output.PrintError(uri)
		ok = false
	}
	return ok
}
