package visitors

import (
	"fmt"
	"reflect"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bawdo/cypherbee/nodes"
)

// RenderCache memoizes rendered text per tree. Trees are immutable, so a
// root's identity is a sound key. Roots of non-comparable types are
// rendered on every call. A RenderCache is safe for concurrent use.
type RenderCache struct {
	cache *lru.Cache[nodes.Node, string]
	opts  []Option
}

// NewRenderCache creates a cache holding up to size rendered trees. Every
// miss renders with a fresh Renderer built from opts.
func NewRenderCache(size int, opts ...Option) (*RenderCache, error) {
	c, err := lru.New[nodes.Node, string](size)
	if err != nil {
		return nil, fmt.Errorf("render cache: %w", err)
	}
	return &RenderCache{cache: c, opts: opts}, nil
}

// Render returns the cached text for root, rendering it on a miss. Failed
// renders are not cached.
func (rc *RenderCache) Render(root nodes.Node) (string, error) {
	if root == nil {
		return "", ErrNilNode
	}
	cacheable := reflect.TypeOf(root).Comparable()
	if cacheable {
		if s, ok := rc.cache.Get(root); ok {
			return s, nil
		}
	}
	s, err := NewRenderer(rc.opts...).Render(root)
	if err != nil {
		return "", err
	}
	if cacheable {
		rc.cache.Add(root, s)
	}
	return s, nil
}

// Len returns the number of cached trees.
func (rc *RenderCache) Len() int { return rc.cache.Len() }

// Purge empties the cache.
func (rc *RenderCache) Purge() { rc.cache.Purge() }
