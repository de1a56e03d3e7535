package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/bootfetch/internal/env"
	"github.com/tanq16/bootfetch/internal/output"
)

func newEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Inspect or change the environment",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "print [NAME...]",
		Short: "Print environment variables",
		Run: func(cmd *cobra.Command, args []string) {
			store, err := env.OpenFile(envFile)
			if err != nil {
				output.PrintError(err.Error())
				exit(1)
			}
			if !printEnv(store, args) {
				exit(1)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set NAME [VALUE]",
		Short: "Set an environment variable, or delete it when no value is given",
		Args:  cobra.RangeArgs(1, 2),
		Run: func(cmd *cobra.Command, args []string) {
			store, err := env.OpenFile(envFile)
			if err != nil {
				output.PrintError(err.Error())
				exit(1)
			}
			value := ""
			if len(args) == 2 {
				value = args[1]
			}
			if err := setEnv(store, args[0], value); err != nil {
				output.PrintError(err.Error())
				exit(1)
			}
		},
	})
	return cmd
}

// printEnv lists names, or every variable when names is empty. It reports
// false if any name is undefined.
func printEnv(store *env.FileStore, names []string) bool {
	if len(names) == 0 {
		output.PrintHeader(store.Path())
		names = store.Names()
	}
	ok := true
	for _, name := range names {
		v, found := store.Get(name)
		if !found {
			output.PrintWarning("## Error: \"" + name + "\" not defined")
			ok = false
			continue
		}
		output.FprintKV(os.Stdout, name, v)
	}
	return ok
}

func setEnv(store *env.FileStore, name, value string) error {
	if err := store.Set(name, value); err != nil {
		return err
	}
	if value == "" {
		output.PrintInfo(name + " deleted")
	} else {
		output.PrintInfo(name + "=" + value)
	}
	return nil
}
