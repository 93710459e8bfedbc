package visitors

import "github.com/bawdo/cypherbee/nodes"

// ParameterCollector gathers the distinct parameter names of a tree in
// first-use order.
type ParameterCollector struct {
	names []string
	seen  map[string]bool
}

var _ nodes.Visitor = (*ParameterCollector)(nil)

func (pc *ParameterCollector) Enter(n nodes.Node) {
	p, ok := n.(*nodes.Parameter)
	if !ok {
		return
	}
	if pc.seen == nil {
		pc.seen = make(map[string]bool)
	}
	if !pc.seen[p.Name()] {
		pc.seen[p.Name()] = true
		pc.names = append(pc.names, p.Name())
	}
}

// Names returns the collected names.
func (pc *ParameterCollector) Names() []string {
	out := make([]string, len(pc.names))
	copy(out, pc.names)
	return out
}

// Parameters returns the distinct parameter names used in n.
func Parameters(n nodes.Node) []string {
	var pc ParameterCollector
	n.Accept(&pc)
	return pc.Names()
}

// MissingParameters returns the names used in n that have no entry in
// args, in first-use order.
func MissingParameters(n nodes.Node, args map[string]any) []string {
	var missing []string
	for _, name := range Parameters(n) {
		if _, ok := args[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
