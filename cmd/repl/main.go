// REPL binary for interactively building Cypher statements and running
// them against PostgreSQL with Apache AGE.
//
// Settings come from ~/.cypherbee.yaml (or --config), then environment
// variables, then flags:
//
//	CYPHERBEE_GRAPH=<name>          graph used by run (default "graph")
//	DATABASE_URL=<dsn>              auto-connects if set
//	CYPHERBEE_JOURNAL=<path>|none   statement journal location
//	CYPHERBEE_LOG_LEVEL=debug|info|warn|error
//	CYPHERBEE_PRETTY=true|false
//	OPA_URL=<url>                   OPA server for 'plugin opa'
//
// Usage:
//
//	go run ./cmd/repl
//	go run ./cmd/repl history -n 50
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/spf13/cobra"

	"github.com/bawdo/cypherbee/internal/journal"
)

const replPrompt = "cypherbee> "

// rootOptions holds the global flags.
type rootOptions struct {
	configPath string
	graph      string
	dsn        string
	journal    string
	logLevel   string
	pretty     bool
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "cypherbee",
		Short:         "Interactive Cypher statement builder",
		Long:          "Build Cypher statements clause by clause, inspect their AST and run them against Apache AGE.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return runREPL(cmd.Context(), cfg)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", defaultConfigPath(), "config file")
	flags.StringVar(&opts.graph, "graph", "", "AGE graph name")
	flags.StringVar(&opts.dsn, "dsn", "", "PostgreSQL DSN to connect on start")
	flags.StringVar(&opts.journal, "journal", "", "statement journal path (\"none\" disables)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug|info|warn|error)")
	flags.BoolVar(&opts.pretty, "pretty", false, "pretty print statements")

	cmd.AddCommand(newHistoryCommand(opts))
	return cmd
}

// load reads the config file and applies the environment and any flags
// that were set.
func (o *rootOptions) load(cmd *cobra.Command) (Config, error) {
	cfg, err := loadConfig(o.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return cfg, err
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("graph") {
		cfg.Graph = o.graph
	}
	if flags.Changed("dsn") {
		cfg.DSN = o.dsn
	}
	if flags.Changed("journal") {
		cfg.Journal = o.journal
		if strings.EqualFold(o.journal, "none") {
			cfg.Journal = ""
		}
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("pretty") {
		cfg.Pretty = o.pretty
	}
	return cfg, nil
}

func newHistoryCommand(rootOpts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journalled statements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := rootOpts.load(cmd)
			if err != nil {
				return err
			}
			if cfg.Journal == "" {
				return errNoJournal
			}
			j, err := journal.Open(cmd.Context(), cfg.Journal)
			if err != nil {
				return err
			}
			defer func() { _ = j.Close() }()
			entries, err := j.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "number of entries")
	return cmd
}

func newLogger(cfg Config) (*slog.Logger, error) {
	level, err := cfg.level()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

// openJournal opens the journal, creating its directory. Failures only
// disable journalling.
func openJournal(ctx context.Context, path string, log *slog.Logger) *journal.Journal {
	if path == "" {
		return nil
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			log.Warn("journal disabled", "path", path, "err", err)
			return nil
		}
	}
	j, err := journal.Open(ctx, path)
	if err != nil {
		log.Warn("journal disabled", "path", path, "err", err)
		return nil
	}
	log.Debug("journal opened", "path", path, "session", j.Session())
	return j
}

func runREPL(ctx context.Context, cfg Config) error {
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     cfg.HistoryFile,
		HistoryLimit:    500,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer func() { _ = rl.Close() }()

	sess := NewSession(cfg, rl, log)
	sess.ctx = ctx
	sess.journal = openJournal(ctx, cfg.Journal, log)
	defer func() {
		if sess.journal != nil {
			_ = sess.journal.Close()
		}
	}()

	// Set up the completer now that we have a session.
	_ = rl.SetConfig(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     cfg.HistoryFile,
		HistoryLimit:    500,
		AutoComplete:    &replCompleter{sess: sess},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})

	if cfg.DSN != "" {
		fmt.Println("[Config] Connecting...")
		if err := sess.connectWithDSN(cfg.DSN); err != nil {
			fmt.Fprintf(os.Stderr, "  Warning: connect failed: %v\n", err)
			fmt.Println("[Config] Use 'connect <dsn>' later to retry")
		}
	}

	fmt.Println()
	fmt.Println("Cypherbee REPL - type 'help' for commands, 'exit' to quit")
	fmt.Println()

	for {
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if lower == "exit" || lower == "quit" {
			break
		}
		if err := sess.Execute(line); err != nil {
			fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		}
	}
	if sess.conn != nil {
		_ = sess.conn.Close()
	}
	fmt.Println()
	return nil
}

// prompt prints a label with an optional default and returns the user's input
// (or the default if they press enter).
func prompt(rl *readline.Instance, label, defaultVal string) string {
	if rl == nil {
		return defaultVal
	}
	if defaultVal != "" {
		rl.SetPrompt(fmt.Sprintf("[Config]   %s [%s]: ", label, defaultVal))
	} else {
		rl.SetPrompt(fmt.Sprintf("[Config]   %s: ", label))
	}
	defer rl.SetPrompt(replPrompt)
	line, err := rl.ReadLine()
	if err != nil {
		return defaultVal
	}
	val := strings.TrimSpace(line)
	if val == "" {
		return defaultVal
	}
	return val
}
