package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// commandEntry maps a REPL prefix to its handler and optional tab-completer.
type commandEntry struct {
	prefix    string
	handler   func(args string) error
	completer func(args string) (completionContext, string) // nil = no arg completion
	hidden    bool                                          // excluded from commandNames()
}

// initCommands builds the command registry and sorts by prefix length descending.
func (s *Session) initCommands() {
	s.commands = []commandEntry{
		// --- no-arg / display commands ---
		{prefix: "cypher", handler: func(_ string) error { return s.cmdCypher() }},
		{prefix: "tocypher", handler: func(_ string) error { return s.cmdCypher() }, hidden: true},
		{prefix: "ast", handler: func(_ string) error { return s.cmdAST() }},
		{prefix: "dot ", handler: func(a string) error { return s.cmdDot(a) }},
		{prefix: "dot", handler: func(_ string) error { return errors.New("usage: dot <filepath>") }},
		{prefix: "reset", handler: func(_ string) error { return s.cmdReset() }},
		{prefix: "undo", handler: func(_ string) error { return s.cmdUndo() }},
		{prefix: "steps", handler: func(_ string) error { return s.cmdSteps() }},
		{prefix: "help", handler: func(_ string) error { s.cmdHelp(); return nil }},

		// --- render options ---
		{prefix: "pretty", handler: func(_ string) error { return s.toggle(&s.pretty, "Pretty printing") }},
		{prefix: "strict", handler: func(_ string) error { return s.toggle(&s.strict, "Strict mode") }},
		{prefix: "escape", handler: func(_ string) error { return s.toggle(&s.escape, "Always-escape names") }},
		{prefix: "case", handler: func(_ string) error { return s.cmdCase() }},

		// --- parameters ---
		{prefix: "param ", handler: func(a string) error { return s.cmdParam(a) }},
		{prefix: "unparam ", handler: func(a string) error { return s.cmdUnparam(a) }},
		{prefix: "params", handler: func(_ string) error { return s.cmdParams() }},

		// --- reading clauses ---
		{prefix: "optional match ", handler: func(a string) error { return s.cmdMatch(a, true) }, completer: completePatternArgs},
		{prefix: "match ", handler: func(a string) error { return s.cmdMatch(a, false) }, completer: completePatternArgs},
		{prefix: "where ", handler: func(a string) error { return s.cmdWhere(a) }, completer: completeExprArgs},
		{prefix: "with distinct ", handler: func(a string) error { return s.cmdWith(a, true) }, completer: completeExprArgs},
		{prefix: "with ", handler: func(a string) error { return s.cmdWith(a, false) }, completer: completeExprArgs},
		{prefix: "with distinct", handler: func(_ string) error { return s.cmdWith("", true) }},
		{prefix: "with", handler: func(_ string) error { return s.cmdWith("", false) }},
		{prefix: "unwind ", handler: func(a string) error { return s.cmdUnwind(a) }, completer: completeExprArgs},
		{prefix: "return distinct ", handler: func(a string) error { return s.cmdReturn(a, true) }, completer: completeExprArgs},
		{prefix: "return ", handler: func(a string) error { return s.cmdReturn(a, false) }, completer: completeExprArgs},
		{prefix: "return distinct", handler: func(_ string) error { return s.cmdReturn("", true) }},
		{prefix: "return", handler: func(_ string) error { return s.cmdReturn("", false) }},
		{prefix: "order by ", handler: func(a string) error { return s.cmdOrder(a) }, completer: completeOrderArgs},
		{prefix: "order ", handler: func(a string) error { return s.cmdOrder(a) }, completer: completeOrderArgs, hidden: true},
		{prefix: "skip ", handler: func(a string) error { return s.cmdSkip(a) }},
		{prefix: "limit ", handler: func(a string) error { return s.cmdLimit(a) }},

		// --- set operations ---
		{prefix: "union all", handler: func(_ string) error { return s.cmdUnion(true) }},
		{prefix: "union", handler: func(_ string) error { return s.cmdUnion(false) }},

		// --- writing clauses ---
		{prefix: "create ", handler: func(a string) error { return s.cmdCreate(a, false) }, completer: completePatternArgs},
		{prefix: "merge ", handler: func(a string) error { return s.cmdCreate(a, true) }, completer: completePatternArgs},
		{prefix: "on create set ", handler: func(a string) error { return s.cmdMergeAction(a, true) }, completer: completeExprArgs},
		{prefix: "on match set ", handler: func(a string) error { return s.cmdMergeAction(a, false) }, completer: completeExprArgs},
		{prefix: "set ", handler: func(a string) error { return s.cmdSet(a) }, completer: completeExprArgs},
		{prefix: "remove ", handler: func(a string) error { return s.cmdRemove(a) }, completer: completeExprArgs},
		{prefix: "detach delete ", handler: func(a string) error { return s.cmdDelete(a, true) }, completer: completeExprArgs},
		{prefix: "delete ", handler: func(a string) error { return s.cmdDelete(a, false) }, completer: completeExprArgs},

		// --- database connectivity ---
		{prefix: "connect ", handler: func(a string) error { return s.cmdConnect(a) }},
		{prefix: "connect", handler: func(_ string) error { return s.cmdConnect("") }},
		{prefix: "disconnect", handler: func(_ string) error { return s.cmdDisconnect() }},
		{prefix: "graph ", handler: func(a string) error { return s.cmdGraph(a) }},
		{prefix: "graph", handler: func(_ string) error { return s.cmdGraph("") }},
		{prefix: "labels", handler: func(_ string) error { return s.cmdLabels() }},
		{prefix: "run", handler: func(_ string) error { return s.cmdRun() }},
		{prefix: "exec", handler: func(_ string) error { return s.cmdRun() }, hidden: true},

		// --- journal ---
		{prefix: "history ", handler: func(a string) error { return s.cmdHistory(a) }},
		{prefix: "history", handler: func(_ string) error { return s.cmdHistory("") }},
		{prefix: "recall ", handler: func(a string) error { return s.cmdRecall(a) }},

		// --- expression evaluation ---
		{prefix: "expr ", handler: func(a string) error { return s.cmdExpr(a) }, completer: completeExprArgs},

		// --- OPA commands ---
		{prefix: "opa conditions", handler: func(_ string) error { return s.cmdOPAConditions() }},
		{prefix: "opa explain ", handler: func(a string) error { return s.cmdOPAExplain(strings.TrimSpace(a)) }, completer: completeLabelArgs},
		{prefix: "opa explain", handler: func(_ string) error { return s.cmdOPAExplain("") }},
		{prefix: "opa inputs", handler: func(_ string) error { return s.cmdOPAInputs() }},
		{prefix: "opa input ", handler: func(a string) error { return s.cmdOPAInput(strings.TrimSpace(a)) }},
		{prefix: "opa input", handler: func(_ string) error { return s.cmdOPAInput("") }},
		{prefix: "opa policy ", handler: func(a string) error { return s.cmdOPAPolicy(strings.TrimSpace(a)) }},
		{prefix: "opa policy", handler: func(_ string) error { return s.cmdOPAPolicy("") }},
		{prefix: "opa status", handler: func(_ string) error { return s.cmdOPAStatus() }},
		{prefix: "opa url ", handler: func(a string) error { return s.cmdOPAUrl(strings.TrimSpace(a)) }},
		{prefix: "opa url", handler: func(_ string) error { return s.cmdOPAUrl("") }},
		{prefix: "opa off", handler: func(_ string) error { return s.cmdOPAOff() }},
		{prefix: "opa setup", handler: func(_ string) error { return s.cmdOPASetup() }},
		{prefix: "opa", handler: func(_ string) error { return s.cmdOPASetup() }, hidden: true},

		// --- plugins ---
		{prefix: "plugin ", handler: func(a string) error { return s.cmdPlugin(a) }, completer: completePluginArgs},
		{prefix: "plugins", handler: func(_ string) error { s.cmdPlugins(); return nil }},
	}

	// Sort by prefix length descending so longest prefixes match first.
	sort.SliceStable(s.commands, func(i, j int) bool {
		return len(s.commands[i].prefix) > len(s.commands[j].prefix)
	})
}

// commandNames derives the command name list from the registry for tab completion.
func (s *Session) commandNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, cmd := range s.commands {
		if cmd.hidden {
			continue
		}
		name := strings.TrimRight(cmd.prefix, " ")
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	// exit/quit are handled by the REPL loop, not Execute().
	for _, extra := range []string{"exit", "quit"} {
		if !seen[extra] {
			names = append(names, extra)
		}
	}
	sort.Strings(names)
	return names
}

func (s *Session) cmdHelp() {
	_, _ = fmt.Fprintln(s.out, `
  Reading:
    match <pattern>, ...      Add a MATCH clause, e.g. (p:Person)-[:KNOWS]->(f)
    optional match <pattern>  Add an OPTIONAL MATCH clause
    where <condition>         AND a condition into the latest MATCH or WITH
    with [distinct] <items>   Add a WITH projection (bare 'with' projects *)
    unwind <expr> as <name>   Add an UNWIND clause
    return [distinct] <items> Set the RETURN projection (bare 'return' is *)
    order by <expr> [asc|desc], ...  Set ORDER BY on WITH or RETURN
    skip <n>                  Set SKIP
    limit <n>                 Set LIMIT
    union                     Push the current query, start a UNION part
    union all                 Push the current query, start a UNION ALL part

  Writing:
    create <pattern>, ...     Start a CREATE (after any match/where)
    merge <pattern>           Start a MERGE
    on create set <items>     MERGE action run when the pattern is created
    on match set <items>      MERGE action run when the pattern matched
    set <items>               n.prop = expr, n += {map}, n:Label
    remove <items>            n.prop or n:Label
    delete <vars>             DELETE the listed variables
    detach delete <vars>      DETACH DELETE the listed variables

  Output:
    cypher                    Render and display the statement
    ast                       Show a clause-by-clause summary
    dot <filepath>            Export the AST as a Graphviz DOT file
    expr <expression>         Render a standalone expression
    steps                     List the commands that built the statement
    undo                      Drop the last statement-building command
    reset                     Clear the statement

  Rendering:
    pretty                    Toggle one clause per line
    strict                    Toggle strict rendering (rejects unsafe names)
    escape                    Toggle escaping every name with backticks
    case                      Toggle Title labels and UPPER relationship types

  Parameters:
    param <name> <value>      Bind a value used by run
    unparam <name>            Remove a bound value
    params                    List bound values and unbound parameters

  Database (PostgreSQL with Apache AGE):
    connect [dsn]             Connect (setup wizard, reconnect, or provide DSN)
    disconnect                Close the connection
    graph [name]              Show or switch the graph (created when missing)
    labels                    List the graph's labels
    run                       Execute the statement and show the rows (alias: exec)

  Journal:
    history [n]               List the last rendered or run statements
    recall <id>               Show one journal entry

  Plugins - Soft Delete:
    plugin softdelete [prop]                   Enable soft-delete (default: deleted_at)
    plugin softdelete <prop> on <Labels..>     Soft-delete for specific labels
    plugin softdelete <Label.prop, ...>        Per-label soft-delete properties

  Plugins - OPA:
    opa setup                 OPA setup wizard
    plugin opa                Enable OPA from the config file's opa section
    opa status                Show OPA configuration
    opa off                   Disable the OPA plugin
    opa explain <Label> [var] [verbose]  Show how the policy translates to Cypher
    opa conditions            Show the conditions OPA adds to the statement
    opa url <url>             Change the OPA server URL
    opa policy <path>         Change the OPA policy path
    opa input <key> <value>   Set an input value (dotted keys nest)
    opa input <key>           Remove an input value
    opa inputs                List input values

  Plugins - General:
    plugins                   List available plugins and status
    plugin off [name]         Disable one or all plugins

  Session:
    help                      Show this help
    exit / quit               Exit the REPL

  Condition syntax:
    p.age > 30                Comparison (=, <>, <, <=, >, >=, =~)
    p.name STARTS WITH 'A'    Also ENDS WITH, CONTAINS, IN [1, 2]
    p.email IS NULL           IS NULL / IS NOT NULL
    a AND b, a OR b, a XOR b, NOT a, (grouping)
    $name                     Parameter
    count(DISTINCT p)         Function call`)
}

// --- Shared completion helpers ---

// completePatternArgs completes labels after ':' and bound variables
// elsewhere in a pattern.
func completePatternArgs(args string) (completionContext, string) {
	last := lastPatternToken(args)
	if i := strings.LastIndexByte(last, ':'); i >= 0 {
		return contextLabel, last[i+1:]
	}
	return contextVariable, last
}

// completeExprArgs handles completion for expression commands: variables
// and functions, or an operator after a property reference.
func completeExprArgs(args string) (completionContext, string) {
	if strings.HasSuffix(args, " ") {
		prev := strings.Fields(args)
		if len(prev) > 0 && strings.Contains(prev[len(prev)-1], ".") {
			return contextOperator, ""
		}
		return contextVariable, ""
	}
	last := lastPatternToken(args)
	if i := strings.LastIndexByte(last, ':'); i >= 0 {
		return contextLabel, last[i+1:]
	}
	return contextVariable, last
}

// completeOrderArgs handles completion for the order command: sort
// expressions, then a direction after a property reference.
func completeOrderArgs(args string) (completionContext, string) {
	if strings.HasSuffix(args, " ") {
		parts := strings.Fields(args)
		if len(parts) > 0 && strings.Contains(parts[len(parts)-1], ".") {
			return contextOrderDir, ""
		}
		return contextVariable, ""
	}
	last := lastToken(args)
	switch strings.ToLower(last) {
	case "a", "as", "asc", "d", "de", "des", "desc":
		return contextOrderDir, last
	}
	return contextVariable, last
}

// completeLabelArgs completes the label argument of opa explain.
func completeLabelArgs(args string) (completionContext, string) {
	arg := strings.TrimSpace(args)
	if strings.Contains(arg, " ") {
		return contextCommand, ""
	}
	return contextLabel, arg
}

// completePluginArgs handles completion for the plugin command:
// plugin names, or after "off" the names of enabled plugins.
func completePluginArgs(args string) (completionContext, string) {
	if strings.HasPrefix(strings.ToLower(args), "off ") {
		partial := strings.TrimSpace(args[4:])
		return contextPluginOff, partial
	}
	arg := strings.TrimSpace(args)
	if !strings.Contains(arg, " ") {
		return contextPlugin, arg
	}
	return contextCommand, ""
}
