// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/routine-tui/internal/advisor"
	"github.com/jeranaias/routine-tui/internal/catalog"
	"github.com/jeranaias/routine-tui/internal/chat"
	"github.com/jeranaias/routine-tui/internal/config"
	"github.com/jeranaias/routine-tui/internal/kv"
	"github.com/jeranaias/routine-tui/internal/logging"
	"github.com/jeranaias/routine-tui/internal/selection"
	"github.com/jeranaias/routine-tui/internal/ui/app"
	"github.com/jeranaias/routine-tui/internal/ui/styles"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// watchDebounce coalesces editor save bursts into one reload.
const watchDebounce = 250 * time.Millisecond

// Options are the global flags.
type Options struct {
	ConfigPath string
	LogLevel   string
	Ephemeral  bool
}

// env carries the state shared by every command. Resources are opened on
// first use and released in close.
type env struct {
	opts Options

	cfg       *config.Config
	backend   kv.Store
	store     *selection.Store
	logCloser io.Closer

	// newLineReader is swapped out by tests.
	newLineReader func(in io.Reader, out io.Writer) lineReader
}

// NewRootCmd builds the routine command tree.
func NewRootCmd() *cobra.Command {
	root, _ := newRoot()
	return root
}

func newRoot() (*cobra.Command, *env) {
	e := &env{newLineReader: defaultLineReader}

	root := &cobra.Command{
		Use:   "routine",
		Short: "Pick products and get a personalized beauty routine",
		Long: `routine loads a product catalog, keeps a persisted selection of
products and asks a chat endpoint to build a routine from it.

Run without a subcommand to open the interactive browser.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.runTUI(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&e.opts.ConfigPath, "config", "", "config file (default ~/.routine/config.toml)")
	flags.StringVar(&e.opts.LogLevel, "log-level", "", "log level override (trace, debug, info, warn, error, disabled)")
	flags.BoolVar(&e.opts.Ephemeral, "ephemeral", false, "keep the selection in memory only")

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Field: "flag", Reason: err.Error(), Example: cmd.UseLine()}
	})

	root.AddCommand(
		newProductsCmd(e),
		newCategoriesCmd(e),
		newSelectCmd(e),
		newGenerateCmd(e),
		newChatCmd(e),
		newConfigCmd(e),
	)
	return root, e
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root, e := newRoot()
	// PersistentPostRunE is skipped when a command fails.
	defer e.close()

	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		DisplayError(stderr, err)
	}
	return ExitCode(err)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// annotationMissingConfigOK marks commands that may run before the --config
// file exists.
const annotationMissingConfigOK = "missing-config-ok"

// setup loads configuration and initializes logging. The TUI always logs to
// a file so log lines never land on the screen.
func (e *env) setup(cmd *cobra.Command) error {
	tui := cmd.Root() == cmd

	if err := config.LoadDotEnv(); err != nil {
		return &ConfigError{Path: ".env", Err: err}
	}

	var (
		cfg      *config.Config
		err      error
		loadWarn error
	)
	_, statErr := os.Stat(e.opts.ConfigPath)
	switch {
	case e.opts.ConfigPath != "" && os.IsNotExist(statErr) && cmd.Annotations[annotationMissingConfigOK] == "true":
		cfg = config.Default()
		cfg.ApplyEnvOverrides()
	case e.opts.ConfigPath != "":
		cfg, err = config.LoadFromPath(e.opts.ConfigPath)
		if err != nil {
			return &ConfigError{Path: e.opts.ConfigPath, Err: err}
		}
	default:
		cfg, err = config.Load()
		if cfg == nil {
			return &ConfigError{Err: err}
		}
		// Defaults are in use; reported once logging is up.
		loadWarn = err
	}
	if e.opts.Ephemeral {
		cfg.Storage.Backend = config.BackendMemory
	}
	config.SetGlobal(cfg)
	e.cfg = cfg

	closer, err := logging.Init(cfg.Log, logging.Options{ForceFile: tui, Level: e.opts.LogLevel})
	if err != nil {
		return &ConfigError{Err: err}
	}
	e.logCloser = closer
	if loadWarn != nil {
		log.Warn().Err(loadWarn).Msg("config file ignored, using defaults")
	}

	log.Debug().
		Str("catalog", cfg.Catalog.Source).
		Str("storage", cfg.Storage.Backend).
		Bool("chat_configured", cfg.Chat.Endpoint != "").
		Msg("routine starting")
	return nil
}

// selection opens the KV backend and hydrates the selection store.
func (e *env) selection(ctx context.Context) (*selection.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	backend, err := kv.Open(ctx, e.cfg.Storage)
	if err != nil {
		return nil, newCommandError("storage", "open", err)
	}
	e.backend = backend
	e.store = selection.New(backend, e.cfg.Storage.Key)
	e.store.Hydrate(ctx)
	return e.store, nil
}

func (e *env) loader() *catalog.Loader {
	return catalog.NewLoader(e.cfg.Catalog)
}

func (e *env) advisor() *advisor.Advisor {
	return advisor.New(chat.NewClient(e.cfg.Chat), e.cfg.Chat.SystemPrompt)
}

func (e *env) close() error {
	var firstErr error
	if e.backend != nil {
		if err := e.backend.Close(); err != nil {
			firstErr = err
		}
		e.backend = nil
		e.store = nil
	}
	if e.logCloser != nil {
		if err := e.logCloser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		e.logCloser = nil
	}
	return firstErr
}

// =============================================================================
// TUI
// =============================================================================

func (e *env) runTUI(ctx context.Context) error {
	store, err := e.selection(ctx)
	if err != nil {
		return err
	}
	loader := e.loader()

	var watcher *catalog.Watcher
	if !loader.IsRemote() && e.cfg.Catalog.Watch {
		watcher, err = catalog.NewWatcher(loader.Path(), watchDebounce)
		if err != nil {
			log.Warn().Err(err).Str("path", loader.Path()).Msg("catalog watch disabled")
			watcher = nil
		} else {
			defer watcher.Close()
		}
	}

	adv := e.advisor()
	log.Info().Str("session", adv.SessionID()).Msg("starting TUI")

	err = app.Run(ctx, app.Deps{
		Config:  e.cfg,
		Loader:  loader,
		Store:   store,
		Advisor: adv,
		Theme:   styles.NewTheme(e.cfg.UI.Theme),
		Watcher: watcher,
	})
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
