package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/ergochat/readline"

	"github.com/bawdo/cypherbee/internal/age"
	"github.com/bawdo/cypherbee/internal/journal"
	"github.com/bawdo/cypherbee/nodes"
	"github.com/bawdo/cypherbee/plugins"
	"github.com/bawdo/cypherbee/visitors"
)

// renderCacheSize bounds the rendered statements kept per option set.
const renderCacheSize = 64

// Session holds the REPL state: the statement being built, render
// options, parameter values, enabled plugins and the database connection.
type Session struct {
	steps       []step   // statement-building commands, replayed on rebuild
	built       *builder // managers produced by the last replay
	node        nodes.Node
	params      map[string]any // values bound when running
	pretty      bool
	strict      bool
	escape      bool
	normalize   bool // title-case labels, upper-case relationship types
	cache       *visitors.RenderCache
	plugins     pluginSet      // enabled plugins
	configurers []knownPlugin  // all known plugins
	opaConfig   *opaPluginRef  // OPA server config (nil when not set up)
	opaDefaults OPAConfig      // OPA settings from the config file
	commands    []commandEntry // command registry (sorted by prefix length desc)
	conn        *age.Conn      // nil when disconnected
	dsn         string         // configured DSN for a bare connect
	lastDSN     string         // remembers the previous DSN for reconnect
	graph       string
	labels      []string // graph labels, for completion
	journal     *journal.Journal
	log         *slog.Logger
	ctx         context.Context
	rl          *readline.Instance
	out         io.Writer // destination for REPL output (default os.Stdout)
}

// NewSession creates a session from cfg. A nil logger discards logs.
func NewSession(cfg Config, rl *readline.Instance, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Session{
		built:       newBuilder(),
		params:      map[string]any{},
		pretty:      cfg.Pretty,
		normalize:   cfg.NormalizeCase,
		opaDefaults: cfg.OPA,
		dsn:         cfg.DSN,
		graph:       cfg.Graph,
		log:         logger,
		ctx:         context.Background(),
		rl:          rl,
		out:         os.Stdout,
	}
	if s.graph == "" {
		s.graph = "graph"
	}
	s.configurers = []knownPlugin{
		{name: "softdelete", enable: configureSoftdelete},
		{name: "opa", enable: configureOPA},
	}
	s.resetCache()
	s.initCommands()
	return s
}

// pluginNames returns the names of all known plugins (for tab completion).
func (s *Session) pluginNames() []string {
	names := make([]string, len(s.configurers))
	for i, c := range s.configurers {
		names[i] = c.name
	}
	return names
}

func (s *Session) renderOptions() []visitors.Option {
	var opts []visitors.Option
	if s.pretty {
		opts = append(opts, visitors.WithPrettyPrint())
	}
	if s.strict {
		opts = append(opts, visitors.WithStrict())
	}
	if s.escape {
		opts = append(opts, visitors.WithAlwaysEscapeNames())
	}
	return opts
}

func (s *Session) renderer() *visitors.Renderer {
	return visitors.NewRenderer(s.renderOptions()...)
}

// resetCache recreates the render cache for the current options.
func (s *Session) resetCache() {
	cache, err := visitors.NewRenderCache(renderCacheSize, s.renderOptions()...)
	if err != nil {
		panic(err) // only a non-positive size fails
	}
	s.cache = cache
}

// invalidate drops the cached statement after plugin changes.
func (s *Session) invalidate() {
	s.node = nil
}

// Execute runs a single REPL command line.
func (s *Session) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	lower := strings.ToLower(line)

	for _, cmd := range s.commands {
		if strings.HasSuffix(cmd.prefix, " ") {
			if strings.HasPrefix(lower, cmd.prefix) {
				s.log.Debug("execute", "command", strings.TrimSpace(cmd.prefix))
				return cmd.handler(line[len(cmd.prefix):])
			}
		} else {
			if lower == cmd.prefix {
				s.log.Debug("execute", "command", cmd.prefix)
				return cmd.handler("")
			}
		}
	}

	word := strings.Fields(line)[0]
	return fmt.Errorf("unknown command: %s (type 'help' for commands)", word)
}

// addStep validates a statement-building command by replaying the
// statement with it appended. Rejected commands leave the session as is.
func (s *Session) addStep(line string, apply func(b *builder) error) error {
	steps := append(slices.Clip(s.steps), step{line: line, apply: apply})
	b, err := replay(steps)
	if err != nil {
		return err
	}
	s.steps, s.built = steps, b
	s.invalidate()
	return nil
}

// build replays the steps and applies the given transformers.
func (s *Session) build(transformers []plugins.Transformer) (nodes.Node, error) {
	b, err := replay(s.steps)
	if err != nil {
		return nil, err
	}
	return b.build(transformers)
}

// current returns the statement with the enabled plugins applied. The
// result is cached until the statement or the plugins change.
func (s *Session) current() (nodes.Node, error) {
	if s.node != nil {
		return s.node, nil
	}
	if len(s.steps) == 0 {
		return nil, errNoQuery
	}
	n, err := s.build(s.plugins.transformers())
	if err != nil {
		return nil, err
	}
	s.node = n
	return n, nil
}

// --- Command handlers: read clauses ---

func (s *Session) cmdMatch(args string, optional bool) error {
	parts, err := s.parsePatterns(strings.TrimSpace(args))
	if err != nil {
		return fmt.Errorf("match: %w", err)
	}
	clause := "MATCH"
	if optional {
		clause = "OPTIONAL MATCH"
	}
	err = s.addStep(clause+" "+args, func(b *builder) error { return b.match(optional, parts) })
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  %s added (%d %s)\n", clause, len(parts), plural(len(parts), "pattern"))
	return nil
}

func (s *Session) cmdWhere(args string) error {
	cond, err := s.parseCondition(strings.TrimSpace(args))
	if err != nil {
		return fmt.Errorf("where: %w", err)
	}
	if s.built.empty() {
		return errNoQuery
	}
	err = s.addStep("WHERE "+args, func(b *builder) error { b.where(cond); return nil })
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(s.out, "  WHERE condition added")
	return nil
}

func (s *Session) cmdWith(args string, distinct bool) error {
	var items []nodes.Node
	if strings.TrimSpace(args) != "" {
		var err error
		if items, err = s.parseItems(args); err != nil {
			return fmt.Errorf("with: %w", err)
		}
	}
	err := s.addStep("WITH "+args, func(b *builder) error {
		q, err := b.reading("WITH")
		if err != nil {
			return err
		}
		if distinct {
			q.WithDistinct(items...)
		} else {
			q.With(items...)
		}
		return nil
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  WITH added (%s)\n", itemCount(items))
	return nil
}

func (s *Session) cmdUnwind(args string) error {
	expr, alias, err := s.parseUnwind(strings.TrimSpace(args))
	if err != nil {
		return fmt.Errorf("unwind: %w", err)
	}
	err = s.addStep("UNWIND "+args, func(b *builder) error {
		q, err := b.reading("UNWIND")
		if err != nil {
			return err
		}
		q.Unwind(expr, alias)
		return nil
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  UNWIND added (as %s)\n", alias)
	return nil
}

func (s *Session) cmdReturn(args string, distinct bool) error {
	var items []nodes.Node
	if strings.TrimSpace(args) != "" {
		var err error
		if items, err = s.parseItems(args); err != nil {
			return fmt.Errorf("return: %w", err)
		}
	}
	if s.built.empty() {
		return errNoQuery
	}
	err := s.addStep("RETURN "+args, func(b *builder) error { return b.returning(distinct, items) })
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  RETURN set (%s)\n", itemCount(items))
	return nil
}

func (s *Session) cmdOrder(args string) error {
	items, err := s.parseSortItems(strings.TrimSpace(args))
	if err != nil {
		return fmt.Errorf("order: %w", err)
	}
	err = s.addStep("ORDER BY "+args, func(b *builder) error {
		q, err := b.reading("ORDER BY")
		if err != nil {
			return err
		}
		q.OrderBy(items...)
		return nil
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  ORDER BY set (%d %s)\n", len(items), plural(len(items), "item"))
	return nil
}

func (s *Session) cmdSkip(args string) error {
	n, err := parseAmount("skip", args)
	if err != nil {
		return err
	}
	err = s.addStep(fmt.Sprintf("SKIP %d", n), func(b *builder) error {
		q, err := b.reading("SKIP")
		if err != nil {
			return err
		}
		q.Skip(n)
		return nil
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  SKIP set to %d\n", n)
	return nil
}

func (s *Session) cmdLimit(args string) error {
	n, err := parseAmount("limit", args)
	if err != nil {
		return err
	}
	err = s.addStep(fmt.Sprintf("LIMIT %d", n), func(b *builder) error {
		q, err := b.reading("LIMIT")
		if err != nil {
			return err
		}
		q.Limit(n)
		return nil
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  LIMIT set to %d\n", n)
	return nil
}

func (s *Session) cmdUnion(all bool) error {
	label := "UNION"
	if all {
		label = "UNION ALL"
	}
	err := s.addStep(label, func(b *builder) error { return b.union(all) })
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  %s pushed, build the next query\n", label)
	return nil
}

// --- Display commands ---

func (s *Session) cmdCypher() error {
	n, err := s.current()
	if err != nil {
		return err
	}
	text, err := s.cache.Render(n)
	if err != nil {
		return err
	}
	s.printCypher(text)
	names := visitors.Parameters(n)
	s.printParams(n, names)
	s.record(text, names, nil)
	return nil
}

// printCypher prints a rendered statement, indenting every line.
func (s *Session) printCypher(text string) {
	for _, line := range strings.Split(text+";", "\n") {
		_, _ = fmt.Fprintf(s.out, "  %s\n", line)
	}
}

func (s *Session) printParams(n nodes.Node, names []string) {
	if len(names) == 0 {
		return
	}
	_, _ = fmt.Fprintf(s.out, "  Params: $%s\n", strings.Join(names, ", $"))
	if missing := visitors.MissingParameters(n, s.params); len(missing) > 0 {
		_, _ = fmt.Fprintf(s.out, "  Unbound: $%s (use 'param <name> <value>')\n", strings.Join(missing, ", $"))
	}
}

// record journals a statement; failures only log.
func (s *Session) record(text string, params []string, runErr error) {
	if s.journal == nil {
		return
	}
	if _, err := s.journal.Record(s.ctx, text, params, runErr); err != nil {
		s.log.Warn("journal record failed", "err", err)
	}
}

// cmdAST displays a clause-by-clause summary of the current statement.
func (s *Session) cmdAST() error {
	n, err := s.current()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  Mode: %s\n", s.built.mode)
	switch root := n.(type) {
	case *nodes.Union:
		kind := "UNION"
		if root.IsAll() {
			kind = "UNION ALL"
		}
		for i, part := range root.Statements() {
			_, _ = fmt.Fprintf(s.out, "  Part %d (%s):\n", i+1, kind)
			s.printASTClauses(part, "    ")
		}
	case *nodes.Statement:
		s.printASTClauses(root, "  ")
	}
	s.printASTFooter()
	return nil
}

// cmdDot exports the current statement as a Graphviz DOT file. Conditions
// added by plugins are grouped into coloured clusters.
func (s *Session) cmdDot(args string) error {
	fpath := strings.TrimSpace(args)
	if fpath == "" {
		return errors.New("usage: dot <filepath>")
	}
	if len(s.steps) == 0 {
		return errNoQuery
	}

	prov := visitors.NewPluginProvenance()
	ts, mark := s.plugins.traced(prov)
	n, err := s.build(ts)
	if err != nil {
		return err
	}
	mark()

	if err := os.WriteFile(fpath, []byte(visitors.Dot(n, prov)), 0600); err != nil {
		return fmt.Errorf("failed to write DOT file: %w", err)
	}
	_, _ = fmt.Fprintf(s.out, "  Wrote DOT to %s\n", fpath)
	return nil
}

func (s *Session) cmdExpr(args string) error {
	n, err := s.parseExpression(strings.TrimSpace(args))
	if err != nil {
		return fmt.Errorf("expr: %w", err)
	}
	text, err := s.renderer().Render(n)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  %s\n", text)
	return nil
}

func (s *Session) cmdReset() error {
	s.steps = nil
	s.built = newBuilder()
	s.invalidate()
	_, _ = fmt.Fprintln(s.out, "  Statement cleared")
	return nil
}

func (s *Session) cmdUndo() error {
	if len(s.steps) == 0 {
		return errors.New("nothing to undo")
	}
	last := s.steps[len(s.steps)-1]
	steps := s.steps[:len(s.steps)-1]
	b, err := replay(steps)
	if err != nil {
		return err
	}
	s.steps, s.built = steps, b
	s.invalidate()
	_, _ = fmt.Fprintf(s.out, "  Removed: %s\n", strings.TrimSpace(last.line))
	return nil
}

func (s *Session) cmdSteps() error {
	if len(s.steps) == 0 {
		_, _ = fmt.Fprintln(s.out, "  No steps")
		return nil
	}
	for i, st := range s.steps {
		_, _ = fmt.Fprintf(s.out, "  %2d. %s\n", i+1, strings.TrimSpace(st.line))
	}
	return nil
}

// --- Render options ---

func (s *Session) toggle(flag *bool, name string) error {
	*flag = !*flag
	s.resetCache()
	state := "disabled"
	if *flag {
		state = "enabled"
	}
	_, _ = fmt.Fprintf(s.out, "  %s %s\n", name, state)
	return nil
}

func (s *Session) cmdCase() error {
	s.normalize = !s.normalize
	if s.normalize {
		_, _ = fmt.Fprintln(s.out, "  Name normalisation enabled (labels Title, relationship types UPPER)")
	} else {
		_, _ = fmt.Fprintln(s.out, "  Name normalisation disabled")
	}
	return nil
}

// --- Parameters ---

func (s *Session) cmdParam(args string) error {
	name, value, ok := strings.Cut(strings.TrimSpace(args), " ")
	name = strings.TrimPrefix(name, "$")
	if !ok || name == "" {
		return errors.New("usage: param <name> <value>")
	}
	v, err := parseParamValue(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("param: %w", err)
	}
	s.params[name] = v
	_, _ = fmt.Fprintf(s.out, "  $%s = %v\n", name, formatValue(v))
	return nil
}

func (s *Session) cmdUnparam(args string) error {
	name := strings.TrimPrefix(strings.TrimSpace(args), "$")
	if _, ok := s.params[name]; !ok {
		return fmt.Errorf("parameter $%s is not set", name)
	}
	delete(s.params, name)
	_, _ = fmt.Fprintf(s.out, "  $%s removed\n", name)
	return nil
}

func (s *Session) cmdParams() error {
	if len(s.params) == 0 {
		_, _ = fmt.Fprintln(s.out, "  No parameter values set")
	} else {
		names := make([]string, 0, len(s.params))
		for name := range s.params {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			_, _ = fmt.Fprintf(s.out, "  $%s = %v\n", name, formatValue(s.params[name]))
		}
	}
	if n, err := s.current(); err == nil {
		s.printParams(n, visitors.Parameters(n))
	}
	return nil
}

// --- Plugins ---

func (s *Session) cmdPlugin(args string) error {
	parts := strings.Fields(strings.TrimSpace(args))
	if len(parts) == 0 {
		return errors.New("usage: plugin <name> [args] | plugin off [name]")
	}
	name := strings.ToLower(parts[0])
	if name == "off" {
		return s.cmdPluginOff(parts[1:])
	}
	for _, c := range s.configurers {
		if c.name == name {
			return c.enable(s, strings.TrimSpace(args[len(parts[0]):]))
		}
	}
	return fmt.Errorf("unknown plugin: %s", name)
}

func (s *Session) cmdPluginOff(parts []string) error {
	if len(parts) == 0 {
		s.plugins.disableAll()
		s.opaConfig = nil
		_, _ = fmt.Fprintln(s.out, "  All plugins disabled")
	} else {
		name := strings.ToLower(parts[0])
		if !s.plugins.disable(name) {
			return fmt.Errorf("plugin %q is not enabled", name)
		}
		if name == "opa" {
			s.opaConfig = nil
		}
		_, _ = fmt.Fprintf(s.out, "  %s disabled\n", name)
	}
	s.invalidate()
	return nil
}

func (s *Session) cmdPlugins() {
	_, _ = fmt.Fprintln(s.out, "  Available plugins:")
	for _, c := range s.configurers {
		if entry, ok := s.plugins.lookup(c.name); ok {
			_, _ = fmt.Fprintf(s.out, "    %-14s on   (%s)\n", c.name, entry.status())
		} else {
			_, _ = fmt.Fprintf(s.out, "    %-14s off\n", c.name)
		}
	}
}
