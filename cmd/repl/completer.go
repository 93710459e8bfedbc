package main

import (
	"sort"
	"strings"
)

// completionContext describes what kind of completion is appropriate.
type completionContext int

const (
	contextCommand   completionContext = iota // start of line or partial command
	contextVariable                           // variables and functions in patterns and expressions
	contextLabel                              // after ':' in a pattern
	contextPlugin                             // after plugin
	contextPluginOff                          // after plugin off
	contextOrderDir                           // after a sort expression
	contextOperator                           // after a property reference in a condition
)

var orderDirs = []string{"asc", "desc"}
var operators = []string{
	"<", "<=", "<>", "=", "=~", ">", ">=",
	"AND", "CONTAINS", "ENDS WITH", "IN", "IS NOT NULL", "IS NULL", "NOT", "OR", "STARTS WITH", "XOR",
}

var functionNames = []string{
	"abs(", "avg(",
	"coalesce(", "collect(", "collect(DISTINCT ", "count(", "count(DISTINCT ",
	"endNode(", "exists(", "head(", "id(", "keys(", "labels(", "last(", "length(",
	"max(", "min(", "nodes(", "properties(", "range(", "relationships(",
	"size(", "startNode(", "sum(",
	"toInteger(", "toLower(", "toString(", "toUpper(", "trim(", "type(",
}

// replCompleter implements readline's AutoCompleter interface.
type replCompleter struct {
	sess *Session
}

// Do returns completion candidates for the current line/cursor position.
// length is the number of chars from end of line[:pos] that form the prefix being completed.
// newLine contains the suffixes to append for each candidate.
func (c *replCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	lineStr := string(line[:pos])
	ctx, prefix := c.parseContext(lineStr)

	var candidates []string
	switch ctx {
	case contextCommand:
		candidates = filterPrefix(c.sess.commandNames(), prefix)
	case contextVariable:
		candidates = c.completeVariables(prefix)
	case contextLabel:
		candidates = filterPrefix(c.sess.labels, prefix)
	case contextPlugin:
		candidates = filterPrefix(append([]string{"off"}, c.sess.pluginNames()...), prefix)
	case contextPluginOff:
		candidates = filterPrefix(c.sess.plugins.names(), prefix)
	case contextOrderDir:
		candidates = filterPrefix(orderDirs, prefix)
	case contextOperator:
		candidates = filterPrefix(operators, prefix)
	}

	for _, cand := range candidates {
		suffix := cand[len(prefix):]
		if !strings.HasSuffix(suffix, "(") && !strings.HasSuffix(suffix, " ") {
			suffix += " "
		}
		newLine = append(newLine, []rune(suffix))
	}
	length = len([]rune(prefix))
	return
}

// parseContext examines the line up to cursor and determines what kind of
// completion is needed and the current prefix being typed.
func (c *replCompleter) parseContext(line string) (completionContext, string) {
	lower := strings.ToLower(line)

	for _, cmd := range c.sess.commands {
		if !strings.HasSuffix(cmd.prefix, " ") {
			continue // exact-match commands have no arg completion
		}
		if strings.HasPrefix(lower, cmd.prefix) && cmd.completer != nil {
			return cmd.completer(line[len(cmd.prefix):])
		}
	}

	// Default: command completion.
	return contextCommand, strings.TrimSpace(line)
}

// completeVariables offers the names the statement binds, then function
// names. Property keys are not known, so nothing follows a dot.
func (c *replCompleter) completeVariables(prefix string) []string {
	if strings.Contains(prefix, ".") {
		return nil
	}
	var names []string
	if n, err := c.sess.build(nil); err == nil {
		names = boundNames(n)
	}
	sort.Strings(names)
	candidates := filterPrefix(dedup(names), prefix)
	return append(candidates, filterPrefix(functionNames, prefix)...)
}

// filterPrefix returns items that start with prefix (case-insensitive).
func filterPrefix(items []string, prefix string) []string {
	if prefix == "" {
		result := make([]string, len(items))
		copy(result, items)
		return result
	}
	lowerPrefix := strings.ToLower(prefix)
	var result []string
	for _, item := range items {
		if strings.HasPrefix(strings.ToLower(item), lowerPrefix) {
			result = append(result, item)
		}
	}
	return result
}

// dedup removes duplicate strings.
func dedup(items []string) []string {
	seen := make(map[string]bool, len(items))
	var result []string
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}

// lastToken returns the last whitespace-separated token, handling commas.
func lastToken(s string) string {
	lastSep := -1
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ' ' || s[i] == ',' || s[i] == '\t' {
			lastSep = i
			break
		}
	}
	if lastSep >= 0 {
		return s[lastSep+1:]
	}
	return s
}

// lastPatternToken is lastToken that also splits on pattern punctuation,
// so "(p:Per" yields "p:Per".
func lastPatternToken(s string) string {
	i := strings.LastIndexAny(s, " \t,()[]{}<>-=")
	return s[i+1:]
}
