package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pattern-atlas-service/internal/models"
	"pattern-atlas-service/pkg/catalog"
	"pattern-atlas-service/pkg/logging"
	"pattern-atlas-service/pkg/registry"
	"pattern-atlas-service/pkg/search"
)

// options are the flags shared by every subcommand
type options struct {
	dir       string
	noBuiltin bool
	logLevel  string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "patternctl",
		Short:        "Inspect, render and validate the design pattern catalog",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.dir, "dir", "",
		"catalog directory loaded on top of the builtin patterns")
	rootCmd.PersistentFlags().BoolVar(&opts.noBuiltin, "no-builtin", false,
		"do not load the builtin patterns")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "WARN",
		"Logging level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(
		newListCommand(opts),
		newShowCommand(opts),
		newRenderCommand(opts),
		newValidateCommand(opts),
	)
	return rootCmd
}

// newLoggingManager logs to stderr so command output stays clean
func (o *options) newLoggingManager(stderr io.Writer) *logging.LoggingManager {
	lm := logging.NewLoggingManagerWithOutput(stderr)
	lm.SetLogLevel(o.logLevel)
	return lm
}

// loadResults loads the catalog sources selected by the flags
func (o *options) loadResults(ctx context.Context, dir string, lm *logging.LoggingManager) ([]*catalog.Result, error) {
	loader, err := catalog.NewLoader(catalog.WithLogger(lm.GetLogger("catalog")))
	if err != nil {
		return nil, err
	}

	var results []*catalog.Result
	if !o.noBuiltin {
		result, err := loader.LoadBuiltin(ctx)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	if dir != "" {
		result, err := loader.LoadDir(ctx, dir)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("no catalog source: pass --dir or drop --no-builtin")
	}
	return results, nil
}

// loadRegistry builds a registry from the selected sources
func (o *options) loadRegistry(cmd *cobra.Command) (*registry.PatternRegistry, error) {
	lm := o.newLoggingManager(cmd.ErrOrStderr())

	results, err := o.loadResults(cmd.Context(), o.dir, lm)
	if err != nil {
		return nil, err
	}
	for _, result := range results {
		lm.LogCatalogLoad(result.Source, len(result.Records), result.ErrorStrings(), result.Duration)
	}

	return registry.New(catalog.Merge(results...), registry.WithLogger(lm.GetLogger("registry"))), nil
}

// lookup fetches a pattern or returns an error naming the unknown id
func lookup(patterns *registry.PatternRegistry, id string) (models.PatternRecord, error) {
	record, ok := patterns.GetByID(id)
	if !ok {
		if suggestions := search.Suggest(patterns.GetMetas(), id, 3); len(suggestions) > 0 {
			return models.PatternRecord{}, fmt.Errorf("pattern %q not found, did you mean %s?",
				id, strings.Join(suggestions, ", "))
		}
		return models.PatternRecord{}, fmt.Errorf("pattern %q not found", id)
	}
	return record, nil
}
