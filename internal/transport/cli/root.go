// Package cli is the bibq command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bibq"
	"github.com/kailas-cloud/bibq/internal/config"
	logpkg "github.com/kailas-cloud/bibq/internal/logger"
	"github.com/kailas-cloud/bibq/internal/version"
)

// app carries the state shared by every command of one invocation.
type app struct {
	env       string
	cacheDir  string
	library   string
	source    string
	addrs     []string
	logLevel  string
	marksPath string
	noMarks   bool
	noStyle   bool

	cfg    config.Config
	logger *zap.Logger
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "bibq",
		Short: "Inspect, filter, rank, sort and export a cached bibliographic library",
		Long: "bibq loads a cached snapshot of a reference library and queries it over built-in\n" +
			"and computed fields. Results can be ranked with a citation-graph score.",
		Example: "  bibq count -f \"collections:biblio\" -f \"rank:>1.0\"\n" +
			"  bibq show title date zscc -s date -l \">zscc:10\"\n" +
			"  bibq export year title itemType -o markdown -s \">date\" -l \">rank:50\"\n" +
			"  bibq list citations --desc -f \"citations:>10\"\n" +
			"  bibq view key ABCD1234 title authors year",
		Version:           version.String(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetVersionTemplate("{{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.env, "env", config.GetEnv(), "configuration environment (reads config/<env>.yaml)")
	pf.StringVar(&a.cacheDir, "cache-dir", "", "snapshot cache directory")
	pf.StringVar(&a.library, "library", "", "library to load")
	pf.StringVar(&a.source, "source", "", "snapshot source: file, redis or valkey")
	pf.StringSliceVar(&a.addrs, "addr", nil, "key-value store address (repeatable)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.marksPath, "marks", "", "marks database path (default <cache-dir>/marks.db)")
	pf.BoolVar(&a.noMarks, "no-marks", false, "do not open the marks database")
	pf.BoolVar(&a.noStyle, "no-style", false, "disable bold and italic terminal output")

	root.AddCommand(
		a.countCommand(),
		a.showCommand(),
		a.exportCommand(),
		a.markCommand(),
		a.listCommand(),
		a.viewCommand(),
		a.fieldsCommand(),
		a.tagsCommand(),
		a.serveCommand(),
		a.cacheCommand(),
		versionCommand(),
	)
	return root
}

// Execute runs the command tree and exits non-zero on error.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads the configuration and applies flag overrides.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadOrDefault(a.env)
	if err != nil {
		return err
	}
	if a.cacheDir != "" {
		if cfg.Marks.Path == filepath.Join(cfg.Snapshot.CacheDir, "marks.db") {
			cfg.Marks.Path = filepath.Join(a.cacheDir, "marks.db")
		}
		cfg.Snapshot.CacheDir = a.cacheDir
	}
	if a.marksPath != "" {
		cfg.Marks.Path = a.marksPath
	}
	if a.library != "" {
		cfg.Snapshot.Library = a.library
	}
	if a.source != "" {
		cfg.Snapshot.Source = a.source
	}
	if len(a.addrs) > 0 {
		cfg.Database.Addrs = a.addrs
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg

	logEnv := "cli"
	if cmd.Name() == "serve" {
		logEnv = a.env
	}
	a.logger, err = logpkg.NewLogger(logEnv, cfg.Logging.Level)
	if err != nil {
		return err
	}
	return nil
}

// options turns the configuration into client options.
func (a *app) options(extra ...bibq.Option) []bibq.Option {
	s := a.cfg.Snapshot
	opts := []bibq.Option{
		bibq.WithLibrary(s.Library),
		bibq.WithLogger(a.logger),
	}
	switch s.Source {
	case config.SourceRedis, config.SourceValkey:
		opts = append(opts,
			bibq.WithAddrs(s.Source, a.cfg.Database.Addrs, a.cfg.Database.Password),
			bibq.WithKeyPrefix(s.KeyPrefix),
			bibq.WithCacheTTL(time.Duration(s.TTLSec)*time.Second),
			bibq.WithReadinessTimeout(time.Duration(a.cfg.Database.ReadinessTimeout)*time.Second),
		)
	}
	if s.CacheDir != "" {
		opts = append(opts, bibq.WithCacheDir(s.CacheDir))
	}
	if !a.noMarks && a.cfg.Marks.Path != "" {
		opts = append(opts, bibq.WithMarks(a.cfg.Marks.Path), bibq.WithLegacyMarks(a.cfg.Marks.LegacyJSON))
	}
	return append(opts, extra...)
}

// client opens the configured library.
func (a *app) client(extra ...bibq.Option) (*bibq.Client, error) {
	return bibq.New(a.options(extra...)...)
}

// ctx attaches the command logger.
func (a *app) ctx(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logpkg.ContextWithLogger(ctx, a.logger)
}

// styled reports whether w is a terminal that should receive escapes.
func (a *app) styled(w io.Writer) bool {
	if a.noStyle {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// readMarks returns a lookup of documents marked read, nil when marks are off.
func (a *app) readMarks(ctx context.Context, c *bibq.Client) (func(string) bool, error) {
	keys, err := c.Marked(ctx, "read")
	if err != nil {
		if errors.Is(err, bibq.ErrMarksDisabled) {
			return nil, nil
		}
		return nil, err
	}
	read := make(map[string]bool, len(keys))
	for _, k := range keys {
		read[k] = true
	}
	return func(key string) bool { return read[key] }, nil
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// Skip config loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return err
		},
	}
}
