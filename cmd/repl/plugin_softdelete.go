package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bawdo/cypherbee/plugins"
	"github.com/bawdo/cypherbee/plugins/softdelete"
)

// configureSoftdelete parses softdelete arguments and registers the
// plugin. Accepted forms:
//
//	plugin softdelete                        deleted_at on every label
//	plugin softdelete removed_at             custom property on every label
//	plugin softdelete removed_at on A B      custom property on some labels
//	plugin softdelete Person.removed_at, ... per-label properties
func configureSoftdelete(s *Session, args string) error {
	rest := strings.TrimSpace(args)
	var opts []softdelete.Option
	var statusFn func() string

	switch {
	case strings.Contains(rest, "."):
		pairs := strings.Split(rest, ",")
		props := map[string]string{}
		for _, pair := range pairs {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			label, prop, _ := strings.Cut(pair, ".")
			if label == "" || prop == "" {
				return fmt.Errorf("invalid Label.property pair: %q", pair)
			}
			if s.normalize {
				label = normalizeLabel(label)
			}
			opts = append(opts, softdelete.WithLabelProperty(label, prop))
			props[label] = prop
		}
		statusFn = func() string {
			pairs := make([]string, 0, len(props))
			for l, p := range props {
				pairs = append(pairs, l+"."+p)
			}
			sort.Strings(pairs)
			return strings.Join(pairs, ", ")
		}
		_, _ = fmt.Fprintln(s.out, "  Soft-delete enabled (per-label properties)")

	case strings.Contains(strings.ToLower(rest), " on "):
		idx := strings.Index(strings.ToLower(rest), " on ")
		prop := strings.TrimSpace(rest[:idx])
		labels := strings.Fields(rest[idx+4:])
		if prop == "" || len(labels) == 0 {
			return errors.New("usage: plugin softdelete <property> on <Label1> [Label2 ...]")
		}
		if s.normalize {
			for i, l := range labels {
				labels[i] = normalizeLabel(l)
			}
		}
		opts = append(opts, softdelete.WithProperty(prop), softdelete.WithLabels(labels...))
		statusFn = func() string {
			return fmt.Sprintf("property: %s, labels: %s", prop, strings.Join(labels, ", "))
		}
		_, _ = fmt.Fprintf(s.out, "  Soft-delete enabled (property: %s, labels: %s)\n", prop, strings.Join(labels, ", "))

	case rest != "":
		prop := strings.Fields(rest)[0]
		opts = append(opts, softdelete.WithProperty(prop))
		statusFn = func() string { return "property: " + prop }
		_, _ = fmt.Fprintf(s.out, "  Soft-delete enabled (property: %s)\n", prop)

	default:
		statusFn = func() string { return "property: deleted_at" }
		_, _ = fmt.Fprintln(s.out, "  Soft-delete enabled (property: deleted_at)")
	}

	s.plugins.enable(enabledPlugin{
		name:    "softdelete",
		rank:    rankSoftDelete,
		factory: func() plugins.Transformer { return softdelete.New(opts...) },
		status:  statusFn,
		color:   "#CC6666",
	})
	s.invalidate()
	return nil
}
