package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/bawdo/cypherbee/nodes"
	"github.com/bawdo/cypherbee/plugins"
	"github.com/bawdo/cypherbee/plugins/opa"
)

var errOPAOff = errors.New("OPA is not enabled (use 'opa setup' or 'plugin opa')")

// opaPluginRef holds OPA server configuration.
type opaPluginRef struct {
	url    string
	policy string
	input  map[string]any
}

func (r *opaPluginRef) client() *opa.Client {
	return opa.NewClient(r.url, r.policy, r.input)
}

// configureOPA registers the OPA plugin using the session's OPA settings,
// falling back to the config file's opa section. Arguments are ignored.
func configureOPA(s *Session, _ string) error {
	if s.opaConfig == nil {
		d := s.opaDefaults
		if d.URL == "" || d.Policy == "" {
			return errors.New("OPA not configured - run 'opa setup' first")
		}
		input := map[string]any{}
		for k, v := range d.Input {
			input[k] = v
		}
		s.opaConfig = &opaPluginRef{url: d.URL, policy: d.Policy, input: input}
	}
	cfg := s.opaConfig
	s.plugins.enable(enabledPlugin{
		name: "opa",
		rank: rankOPA,
		factory: func() plugins.Transformer {
			return opa.NewFromServer(cfg.url, cfg.policy, cfg.input, opa.WithContext(s.ctx))
		},
		status: func() string { return fmt.Sprintf("policy: %s", cfg.policy) },
		color:  "#9B59B6",
	})
	s.invalidate()
	_, _ = fmt.Fprintf(s.out, "  OPA enabled (policy: %s)\n", cfg.policy)
	return nil
}

func (s *Session) cmdOPAOff() error {
	if s.opaConfig == nil {
		return errOPAOff
	}
	s.plugins.disable("opa")
	s.opaConfig = nil
	s.invalidate()
	_, _ = fmt.Fprintln(s.out, "  OPA disabled")
	return nil
}

func (s *Session) cmdOPAStatus() error {
	if s.opaConfig == nil {
		_, _ = fmt.Fprintln(s.out, "  OPA: off")
		return nil
	}
	_, _ = fmt.Fprintln(s.out, "  OPA: on")
	_, _ = fmt.Fprintf(s.out, "    Server: %s\n", s.opaConfig.url)
	_, _ = fmt.Fprintf(s.out, "    Policy: %s\n", s.opaConfig.policy)
	if len(s.opaConfig.input) > 0 {
		_, _ = fmt.Fprintln(s.out, "    Inputs:")
		printInputMap(s.out, s.opaConfig.input, "      ")
	} else {
		_, _ = fmt.Fprintln(s.out, "    Inputs: (none)")
	}
	return nil
}

func printInputMap(w io.Writer, m map[string]any, indent string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if nested, ok := m[k].(map[string]any); ok {
			_, _ = fmt.Fprintf(w, "%s%s:\n", indent, k)
			printInputMap(w, nested, indent+"  ")
			continue
		}
		_, _ = fmt.Fprintf(w, "%s%s: %s\n", indent, k, formatValue(m[k]))
	}
}

// opaReload re-registers the plugin so later builds see the new settings.
func (s *Session) opaReload() {
	_ = configureOPA(s, "")
}

func (s *Session) cmdOPAUrl(args string) error {
	if s.opaConfig == nil {
		return errOPAOff
	}
	url := strings.TrimSpace(args)
	if url == "" {
		return errors.New("usage: opa url <url>")
	}
	s.opaConfig.url = url
	_, _ = fmt.Fprintf(s.out, "  OPA server URL set to %s\n", url)
	s.opaReload()
	return nil
}

func (s *Session) cmdOPAPolicy(args string) error {
	if s.opaConfig == nil {
		return errOPAOff
	}
	policy := strings.TrimSpace(args)
	if policy == "" {
		return errors.New("usage: opa policy <path>")
	}
	s.opaConfig.policy = policy
	_, _ = fmt.Fprintf(s.out, "  OPA policy path set to %s\n", policy)
	s.opaReload()
	return nil
}

// cmdOPAInput sets (key value) or removes (key) an input field. Dotted
// keys address nested objects: user.tenant 42.
func (s *Session) cmdOPAInput(args string) error {
	if s.opaConfig == nil {
		return errOPAOff
	}
	parts := strings.Fields(args)
	if len(parts) == 0 {
		return errors.New("usage: opa input <key> [value]")
	}
	key := parts[0]
	if len(parts) == 1 {
		if getNestedValue(s.opaConfig.input, key) == nil {
			return fmt.Errorf("input %s is not set", key)
		}
		deleteNestedValue(s.opaConfig.input, key)
		_, _ = fmt.Fprintf(s.out, "  Removed input %s\n", key)
	} else {
		val := parseOPAValue(strings.Join(parts[1:], " "))
		setNestedValue(s.opaConfig.input, key, val)
		_, _ = fmt.Fprintf(s.out, "  Set input %s = %s\n", key, formatValue(val))
	}
	s.opaReload()
	return nil
}

func (s *Session) cmdOPAInputs() error {
	if s.opaConfig == nil {
		return errOPAOff
	}
	if len(s.opaConfig.input) == 0 {
		_, _ = fmt.Fprintln(s.out, "  No inputs set")
		return nil
	}
	printInputMap(s.out, s.opaConfig.input, "  ")
	return nil
}

// cmdOPAExplain shows how the policy's residual expressions for a label
// translate to Cypher conditions on a variable (default n).
func (s *Session) cmdOPAExplain(args string) error {
	if s.opaConfig == nil {
		return errOPAOff
	}
	parts := strings.Fields(args)
	if len(parts) == 0 || len(parts) > 3 {
		return errors.New("usage: opa explain <Label> [variable] [verbose]")
	}
	label := parts[0]
	name := "n"
	verbose := false
	for _, p := range parts[1:] {
		if strings.EqualFold(p, "verbose") {
			verbose = true
		} else {
			name = p
		}
	}

	result, err := s.opaConfig.client().Explain(s.ctx, label, nodes.Var(name))
	if err != nil {
		return fmt.Errorf("OPA explain: %w", err)
	}
	_, _ = fmt.Fprintf(s.out, "  OPA explain for label %s:\n", label)
	if verbose {
		_, _ = fmt.Fprintf(s.out, "    Response:\n      %s\n", result.RawJSON)
	}
	switch {
	case result.AccessDenied:
		_, _ = fmt.Fprintln(s.out, "    Access denied (no matching rules)")
		return nil
	case result.UnconditionalAllow:
		_, _ = fmt.Fprintln(s.out, "    Unconditional allow (no conditions)")
		return nil
	}
	_, _ = fmt.Fprintf(s.out, "    %d query(ies), %d expression(s)\n", result.QueryCount, len(result.Translations))
	for i, tr := range result.Translations {
		if tr.Err != nil {
			_, _ = fmt.Fprintf(s.out, "    [%d] %s %s: %v\n", i+1, tr.Operator, tr.Property, tr.Err)
			continue
		}
		_, _ = fmt.Fprintf(s.out, "    [%d] %s %s -> %s\n", i+1, tr.Operator, tr.Property, tr.Cypher)
	}
	return nil
}

// cmdOPAConditions lists the conditions the policy would add for every
// node the current statement matches.
func (s *Session) cmdOPAConditions() error {
	if s.opaConfig == nil {
		return errOPAOff
	}
	if len(s.steps) == 0 {
		return errNoQuery
	}
	root, err := s.build(nil)
	if err != nil {
		return err
	}
	var stmts []*nodes.Statement
	switch t := root.(type) {
	case *nodes.Union:
		stmts = t.Statements()
	case *nodes.Statement:
		stmts = []*nodes.Statement{t}
	}
	var refs []plugins.NodeRef
	for _, stmt := range stmts {
		refs = append(refs, plugins.CollectNodes(stmt)...)
	}
	if len(refs) == 0 {
		_, _ = fmt.Fprintln(s.out, "  No named nodes in statement")
		return nil
	}

	client := s.opaConfig.client()
	r := s.renderer()
	_, _ = fmt.Fprintln(s.out, "  OPA conditions:")
	for _, ref := range refs {
		for _, label := range ref.Labels {
			conds, err := client.Compile(s.ctx, label, ref.Variable)
			prefix := fmt.Sprintf("    (%s:%s)", ref.Variable.Name(), label)
			switch {
			case err != nil:
				_, _ = fmt.Fprintf(s.out, "%s %v\n", prefix, err)
				continue
			case len(conds) == 0:
				_, _ = fmt.Fprintf(s.out, "%s (unconditional allow)\n", prefix)
				continue
			}
			texts := make([]string, len(conds))
			for i, c := range conds {
				if texts[i], err = r.Render(c); err != nil {
					texts[i] = "<" + err.Error() + ">"
				}
			}
			_, _ = fmt.Fprintf(s.out, "%s %s\n", prefix, strings.Join(texts, " AND "))
		}
	}
	return nil
}

// cmdOPASetup prompts for the server, the policy and any input fields,
// then enables the plugin.
func (s *Session) cmdOPASetup() error {
	if s.rl == nil {
		return errors.New("opa setup requires an interactive session")
	}
	defURL := s.opaDefaults.URL
	if defURL == "" {
		defURL = "http://localhost:8181"
	}
	_, _ = fmt.Fprintln(s.out, "  OPA setup:")
	url := prompt(s.rl, "OPA server URL", defURL)
	policy := prompt(s.rl, "Policy path (e.g. data.graph.allow)", s.opaDefaults.Policy)
	if policy == "" {
		return errors.New("policy path is required")
	}
	input := map[string]any{}
	for k, v := range s.opaDefaults.Input {
		input[k] = v
	}
	_, _ = fmt.Fprintln(s.out, "  Input fields as key=value, empty line to finish:")
	for {
		line := prompt(s.rl, "input", "")
		if line == "" {
			break
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(key) == "" {
			_, _ = fmt.Fprintln(s.out, "  expected key=value")
			continue
		}
		setNestedValue(input, strings.TrimSpace(key), parseOPAValue(strings.TrimSpace(val)))
	}
	s.opaConfig = &opaPluginRef{url: url, policy: policy, input: input}
	return configureOPA(s, "")
}

func parseOPAValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return strings.Trim(s, `"'`)
}

func setNestedValue(m map[string]any, path string, val any) {
	parts := strings.Split(path, ".")
	current := m
	for i := 0; i < len(parts)-1; i++ {
		next, ok := current[parts[i]].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[parts[i]] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = val
}

func deleteNestedValue(m map[string]any, path string) {
	parts := strings.Split(path, ".")
	current := m
	for i := 0; i < len(parts)-1; i++ {
		next, ok := current[parts[i]].(map[string]any)
		if !ok {
			return
		}
		current = next
	}
	delete(current, parts[len(parts)-1])
}

func getNestedValue(m map[string]any, path string) any {
	parts := strings.Split(path, ".")
	current := m
	for i := 0; i < len(parts)-1; i++ {
		next, ok := current[parts[i]].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return current[parts[len(parts)-1]]
}
