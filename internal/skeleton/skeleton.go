// Package skeleton turns a markup tree into a placeholder tree of the same
// shape, shown while the real content is still loading.
//
// A Transformer is immutable once built and safe for concurrent use. Every
// call to Render or Transform is a separate pass with its own node cache, so
// nothing computed for one tree is ever visible to another.
package skeleton

import (
	"log/slog"
	"maps"
	"time"

	"github.com/dgallion1/skelgen/internal/vnode"
)

// Classes of the wrapper produced by Render while loading.
const (
	ContainerClass = "skeleton-container"
	OverlayClass   = "skeleton-overlay"
)

// DefaultMaxDepth bounds recursion; deeper subtrees keep their original
// children.
const DefaultMaxDepth = 512

// Transformer builds skeleton trees.
type Transformer struct {
	styles       StyleTable
	centerMarker string
	maxDepth     int
	collapseText bool
	log          *slog.Logger
	observer     Observer
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithStyleTable replaces the placeholder table. The table is copied.
func WithStyleTable(table StyleTable) Option {
	return func(t *Transformer) {
		if table != nil {
			t.styles = maps.Clone(table)
		}
	}
}

// WithCenterMarker sets the class token that centers a subtree.
func WithCenterMarker(marker string) Option {
	return func(t *Transformer) {
		if marker != "" {
			t.centerMarker = marker
		}
	}
}

// WithMaxDepth bounds recursion depth.
func WithMaxDepth(depth int) Option {
	return func(t *Transformer) {
		if depth > 0 {
			t.maxDepth = depth
		}
	}
}

// WithTextCollapse controls whether a table tag holding only text collapses
// into its placeholder. When off, only blank table tags do.
func WithTextCollapse(enabled bool) Option {
	return func(t *Transformer) {
		t.collapseText = enabled
	}
}

// WithLogger sets the logger used for absorbed failures.
func WithLogger(log *slog.Logger) Option {
	return func(t *Transformer) {
		if log != nil {
			t.log = log
		}
	}
}

// WithObserver registers a pass observer.
func WithObserver(o Observer) Option {
	return func(t *Transformer) {
		if o != nil {
			t.observer = o
		}
	}
}

// New creates a Transformer.
func New(opts ...Option) *Transformer {
	t := &Transformer{
		styles:       DefaultStyleTable(),
		centerMarker: DefaultCenterMarker,
		maxDepth:     DefaultMaxDepth,
		collapseText: true,
		log:          slog.New(slog.DiscardHandler),
		observer:     nopObserver{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var defaultTransformer = New()

// Default returns the shared Transformer with built-in settings.
func Default() *Transformer { return defaultTransformer }

// Render is Default().Render.
func Render(loading bool, tree *vnode.Node) *vnode.Node {
	return defaultTransformer.Render(loading, tree)
}

// Unobserved returns a copy of t that reports passes to no observer. Views
// re-rendered on every poll use it so metrics count only real passes.
func (t *Transformer) Unobserved() *Transformer {
	cp := *t
	cp.observer = nopObserver{}
	return &cp
}

// Styles returns a copy of the placeholder table.
func (t *Transformer) Styles() StyleTable { return maps.Clone(t.styles) }

// CenterMarker returns the centering class token.
func (t *Transformer) CenterMarker() string { return t.centerMarker }

// Render returns tree itself when loading is false. Otherwise it returns a
// new container holding the overlay marker followed by the skeleton of tree.
func (t *Transformer) Render(loading bool, tree *vnode.Node) *vnode.Node {
	if !loading {
		return tree
	}
	content, _ := t.Transform(tree)
	return Wrap(content)
}

// Wrap puts an already transformed tree inside the loading container.
func Wrap(content *vnode.Node) *vnode.Node {
	return vnode.Element("div", vnode.Class(ContainerClass),
		vnode.Element("div", vnode.Class(OverlayClass)),
		content,
	)
}

// Transform runs one pass over tree and returns the skeleton without the
// loading wrapper. It never fails: subtrees that cannot be transformed are
// passed through as they are.
func (t *Transformer) Transform(tree *vnode.Node) (*vnode.Node, Stats) {
	start := time.Now()
	p := &pass{
		t:     t,
		cache: make(map[*vnode.Node]*vnode.Node),
	}
	out := p.transform(tree, "", 0)
	t.observer.ObservePass(p.stats, time.Since(start))
	return out, p.stats
}
