// Package cli implements the wdist command: index local files into a bbolt
// workspace and answer distance queries against it or a running server.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/storage/boltstore"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/logger"
)

// app carries the state shared by every subcommand.
type app struct {
	cfgFile   string
	storePath string
	verbose   bool
	cfg       *config.Config
}

// NewRootCmd builds the command tree. Each call returns an independent tree,
// so tests can run several in one process.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "wdist",
		Short: "Shortest word distance over indexed corpora",
		Long: `wdist indexes word sequences and answers shortest-distance queries:
the minimum number of positions between an occurrence of one word and an
occurrence of another.

Example usage:
  wdist index books "texts/**/*.txt"         # Index matching files as one corpus
  wdist query books practice coding          # Query the local workspace
  wdist query books a b --remote host:9100   # Query a running server`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			a.cfg = cfg
			if a.storePath == "" {
				a.storePath = cfg.Storage.BoltPath
			}
			level := "warn"
			if a.verbose {
				level = "debug"
			}
			slog.SetDefault(logger.New(cmd.ErrOrStderr(), level, "text"))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: built-in settings plus WD_* env)")
	root.PersistentFlags().StringVarP(&a.storePath, "store", "s", "", "workspace database (default from storage.boltPath)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newIndexCmd(a),
		newQueryCmd(a),
		newListCmd(a),
		newRemoveCmd(a),
	)
	return root
}

// Execute runs the CLI against os.Args.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) limits() validator.Limits {
	return validator.Limits{MaxWords: a.cfg.Query.MaxWords, MaxNameLength: a.cfg.Query.MaxNameLength}
}

// openWorkspace opens the bbolt store and loads every corpus in it. The
// returned close func must be called when the command finishes.
func (a *app) openWorkspace(ctx context.Context) (*corpus.Registry, func() error, error) {
	st, err := boltstore.Open(a.storePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workspace %s: %w", a.storePath, err)
	}
	reg := corpus.NewRegistry(st, a.limits())
	if _, err := reg.Load(ctx); err != nil {
		st.Close()
		return nil, nil, err
	}
	return reg, st.Close, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
