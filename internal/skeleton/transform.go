package skeleton

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dgallion1/skelgen/internal/vnode"
)

const (
	textCentered = "skeleton-item skeleton-text w-10/12 mx-auto h-4 my-2"
	textLeft     = "skeleton-item skeleton-text w-1/2 h-4 my-2"
	imageClass   = "skeleton-item skeleton-img"
	itemClass    = "skeleton-item"
	centerClass  = "mx-auto"
)

// pass holds the state of one transformation. The cache maps input nodes to
// their output and dies with the pass.
type pass struct {
	t     *Transformer
	cache map[*vnode.Node]*vnode.Node
	stats Stats
}

func (p *pass) transform(n *vnode.Node, parentClasses string, depth int) *vnode.Node {
	if n == nil {
		p.stats.Passthrough++
		return nil
	}

	switch n.Kind {
	case vnode.KindText:
		p.stats.Text++
		if p.centered(parentClasses) {
			return vnode.Element("div", vnode.Class(textCentered))
		}
		return vnode.Element("div", vnode.Class(textLeft))

	case vnode.KindElement, vnode.KindFragment:
		if cached, ok := p.cache[n]; ok {
			p.stats.CacheHits++
			return cached
		}
		var result *vnode.Node
		if n.Kind == vnode.KindFragment {
			result = p.fragment(n, parentClasses, depth)
		} else {
			result = p.element(n, parentClasses, depth)
		}
		p.cache[n] = result
		return result

	case vnode.KindOpaque:
		p.stats.Opaque++
		return n

	case vnode.KindList:
		p.stats.Lists++
		items, err := p.mapChildren(n.Children, parentClasses, depth)
		items = orElse(p, n, StageChildren, items, err, n.Children)
		return vnode.List(items...)

	default:
		p.stats.Passthrough++
		return n
	}
}

func (p *pass) fragment(n *vnode.Node, parentClasses string, depth int) *vnode.Node {
	p.stats.Fragments++
	children, err := p.mapChildren(n.Children, parentClasses, depth)
	children = orElse(p, n, StageChildren, children, err, n.Children)
	return vnode.Fragment(children...)
}

func (p *pass) element(n *vnode.Node, parentClasses string, depth int) *vnode.Node {
	own := n.Class()
	centered := p.centered(own) || p.centered(parentClasses)
	tag := strings.ToLower(n.Tag)

	if tag == "img" {
		p.stats.Images++
		attrs := vnode.Class(joinClasses(own, imageClass, centerIf(centered)))
		if style, ok := n.Style(); ok {
			attrs = append(attrs, vnode.Attr{Key: "style", Val: style})
		}
		return vnode.Element("div", attrs)
	}

	if class, ok := p.t.styles.Lookup(tag); ok && p.collapses(n.Children) {
		p.stats.Placeholders++
		return vnode.Element("div", vnode.Class(joinClasses(own, itemClass, class, centerIf(centered))))
	}

	p.stats.Containers++
	children, err := p.mapChildren(n.Children, joinClasses(parentClasses, own), depth)
	children = orElse(p, n, StageChildren, children, err, n.Children)

	rebuilt, err := p.rebuild(n, children)
	return orElse(p, n, StageRebuild, rebuilt, err, n)
}

// mapChildren transforms each child. Any error means none of the results
// should be used.
func (p *pass) mapChildren(children []*vnode.Node, classes string, depth int) (out []*vnode.Node, err error) {
	defer recoverPanic(&err)

	if depth+1 > p.t.maxDepth {
		return nil, fmt.Errorf("%w (%d)", ErrDepthExceeded, p.t.maxDepth)
	}
	out = make([]*vnode.Node, 0, len(children))
	for i, c := range children {
		if c != nil && c.Kind > vnode.KindComment {
			return nil, fmt.Errorf("%w: child %d has kind %d", ErrMalformedChild, i, c.Kind)
		}
		out = append(out, p.transform(c, classes, depth+1))
	}
	return out, nil
}

func (p *pass) rebuild(n *vnode.Node, children []*vnode.Node) (out *vnode.Node, err error) {
	defer recoverPanic(&err)

	if !vnode.ValidTag(n.Tag) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTag, n.Tag)
	}
	for _, a := range n.Attrs {
		if !vnode.ValidAttrKey(a.Key) {
			return nil, fmt.Errorf("%w: %q on <%s>", ErrInvalidAttr, a.Key, n.Tag)
		}
	}
	return &vnode.Node{
		Kind:     vnode.KindElement,
		Tag:      n.Tag,
		Attrs:    slices.Clone(n.Attrs),
		Children: children,
	}, nil
}

// orElse returns v, or fallback when err is set. The failure is recorded but
// never returned.
func orElse[T any](p *pass, n *vnode.Node, stage Stage, v T, err error, fallback T) T {
	if err == nil {
		return v
	}
	terr := &TransformError{Stage: stage, Tag: n.Tag, Err: err}
	switch stage {
	case StageChildren:
		p.stats.ChildFallbacks++
	case StageRebuild:
		p.stats.RebuildFallbacks++
	}
	p.t.log.Debug("skeleton fallback", "stage", stage.String(), "tag", n.Tag, "error", terr)
	return fallback
}

func recoverPanic(err *error) {
	if r := recover(); r != nil {
		*err = errors.Join(ErrPanic, fmt.Errorf("%v", r))
	}
}

func (p *pass) centered(classes string) bool {
	return vnode.HasToken(classes, p.t.centerMarker)
}

// collapses reports whether a table tag with these children becomes a
// placeholder block.
func (p *pass) collapses(children []*vnode.Node) bool {
	if blank(children) {
		return true
	}
	return p.t.collapseText && textOnly(children)
}

// blank is true when children render no visible content: nothing at all,
// None markers, comments, or whitespace-only strings. Numbers are never blank.
func blank(children []*vnode.Node) bool {
	for _, c := range children {
		if c == nil {
			continue
		}
		switch c.Kind {
		case vnode.KindNone, vnode.KindComment:
		case vnode.KindText:
			if c.Numeric || strings.TrimSpace(c.Text) != "" {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func textOnly(children []*vnode.Node) bool {
	for _, c := range children {
		if c == nil {
			continue
		}
		switch c.Kind {
		case vnode.KindNone, vnode.KindComment, vnode.KindText:
		default:
			return false
		}
	}
	return true
}

func centerIf(centered bool) string {
	if centered {
		return centerClass
	}
	return ""
}

// joinClasses joins class strings, dropping empty and repeated tokens.
func joinClasses(parts ...string) string {
	var out []string
	for _, part := range parts {
		for _, tok := range strings.Fields(part) {
			if !slices.Contains(out, tok) {
				out = append(out, tok)
			}
		}
	}
	return strings.Join(out, " ")
}
