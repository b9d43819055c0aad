package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"pattern-atlas-service/pkg/catalog"
	"pattern-atlas-service/pkg/validation"
)

func newValidateCommand(opts *options) *cobra.Command {
	var strict bool

	validateCmd := &cobra.Command{
		Use:   "validate [dir]",
		Short: "Validate catalog files",
		Long: "Validate catalog files. Without a directory argument the --dir flag is used; " +
			"with neither only the builtin catalog is checked.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.dir
			if len(args) == 1 {
				dir = args[0]
			}

			lm := opts.newLoggingManager(cmd.ErrOrStderr())
			results, err := opts.loadResults(cmd.Context(), dir, lm)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fileErrors := 0
			for _, result := range results {
				for _, fe := range result.Errors {
					fmt.Fprintf(out, "ERROR   %s: %s\n", filepath.Join(result.Source, fe.Path), fe.Err)
					fileErrors++
				}
			}

			records := catalog.Merge(results...)
			report := validation.NewPatternValidator().ValidateCatalog(records)
			for _, issue := range report.Errors {
				fmt.Fprintf(out, "ERROR   %s\n", issue)
			}
			for _, issue := range report.Warnings {
				fmt.Fprintf(out, "WARNING %s\n", issue)
			}

			errorCount := fileErrors + len(report.Errors)
			fmt.Fprintf(out, "%d patterns, %d errors, %d warnings\n",
				len(records), errorCount, len(report.Warnings))

			if errorCount > 0 {
				return fmt.Errorf("catalog has %d errors", errorCount)
			}
			if strict && len(report.Warnings) > 0 {
				return fmt.Errorf("catalog has %d warnings", len(report.Warnings))
			}
			return nil
		},
	}

	validateCmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	return validateCmd
}
