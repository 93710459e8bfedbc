package main

import (
	"cmp"
	"slices"

	"github.com/bawdo/cypherbee/nodes"
	"github.com/bawdo/cypherbee/plugins"
	"github.com/bawdo/cypherbee/visitors"
)

// Plugin ranks. Lower ranks rewrite the statement first, so the rendered
// Cypher is the same whatever order the plugins were enabled in.
const (
	rankSoftDelete = 10
	rankOPA        = 20
)

// enabledPlugin is a statement transformer the session applies before
// every render.
type enabledPlugin struct {
	name    string
	rank    int
	factory func() plugins.Transformer // fresh transformer per build
	status  func() string
	color   string // DOT cluster for the conditions it adds
}

// conditionReporter is implemented by transformers that can list the
// conditions they added in their last TransformStatement call.
type conditionReporter interface {
	Added() []nodes.Node
}

// pluginSet holds the enabled plugins in rank order.
type pluginSet struct {
	enabled []enabledPlugin
}

// enable adds p, replacing an enabled plugin of the same name.
func (ps *pluginSet) enable(p enabledPlugin) {
	ps.disable(p.name)
	ps.enabled = append(ps.enabled, p)
	slices.SortStableFunc(ps.enabled, func(a, b enabledPlugin) int { return cmp.Compare(a.rank, b.rank) })
}

// disable removes the named plugin and reports whether it was enabled.
func (ps *pluginSet) disable(name string) bool {
	i := slices.IndexFunc(ps.enabled, func(p enabledPlugin) bool { return p.name == name })
	if i < 0 {
		return false
	}
	ps.enabled = slices.Delete(ps.enabled, i, i+1)
	return true
}

func (ps *pluginSet) disableAll() { ps.enabled = nil }

func (ps *pluginSet) empty() bool { return len(ps.enabled) == 0 }

func (ps *pluginSet) lookup(name string) (enabledPlugin, bool) {
	i := slices.IndexFunc(ps.enabled, func(p enabledPlugin) bool { return p.name == name })
	if i < 0 {
		return enabledPlugin{}, false
	}
	return ps.enabled[i], true
}

// names returns the enabled plugin names in application order.
func (ps *pluginSet) names() []string {
	out := make([]string, len(ps.enabled))
	for i, p := range ps.enabled {
		out[i] = p.name
	}
	return out
}

// transformers creates one transformer per enabled plugin.
func (ps *pluginSet) transformers() []plugins.Transformer {
	ts, _ := ps.traced(nil)
	return ts
}

// traced is like transformers. The returned mark function records the
// conditions each transformer added in prov; call it after the build.
// A nil prov records nothing.
func (ps *pluginSet) traced(prov *visitors.PluginProvenance) ([]plugins.Transformer, func()) {
	ts := make([]plugins.Transformer, len(ps.enabled))
	var marks []func()
	for i, p := range ps.enabled {
		t := p.factory()
		ts[i] = t
		r, ok := t.(conditionReporter)
		if !ok || prov == nil {
			continue
		}
		name, color := p.name, p.color
		marks = append(marks, func() {
			for _, n := range r.Added() {
				prov.Mark(name, color, n)
			}
		})
	}
	return ts, func() {
		for _, m := range marks {
			m()
		}
	}
}

// knownPlugin is a plugin the "plugin" command can enable.
type knownPlugin struct {
	name   string
	enable func(s *Session, args string) error
}
