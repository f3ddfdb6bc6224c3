// Package render serializes markup trees back to HTML or to the JSON tree
// format read by the parser package.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/dgallion1/skelgen/internal/vnode"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MaxDepth is the deepest tree the renderers will write. Cyclic trees hit it.
const MaxDepth = 4096

var (
	// ErrTooDeep is returned for trees nested deeper than MaxDepth.
	ErrTooDeep = errors.New("render: tree too deep")
	// ErrInvalidName is returned for element or attribute names that cannot
	// be written as HTML.
	ErrInvalidName = errors.New("render: invalid name")
)

var voidElements = map[atom.Atom]bool{
	atom.Area:   true,
	atom.Base:   true,
	atom.Br:     true,
	atom.Col:    true,
	atom.Embed:  true,
	atom.Hr:     true,
	atom.Img:    true,
	atom.Input:  true,
	atom.Link:   true,
	atom.Meta:   true,
	atom.Source: true,
	atom.Track:  true,
	atom.Wbr:    true,
}

// HTML writes n as HTML. Fragments and lists are flattened, None renders
// nothing.
func HTML(w io.Writer, n *vnode.Node) error {
	nodes, err := toHTML(n, 0)
	if err != nil {
		return err
	}
	for _, hn := range nodes {
		if err := html.Render(w, hn); err != nil {
			return fmt.Errorf("render html: %w", err)
		}
	}
	return nil
}

// HTMLString is HTML into a string.
func HTMLString(n *vnode.Node) (string, error) {
	var buf bytes.Buffer
	if err := HTML(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toHTML(n *vnode.Node, depth int) ([]*html.Node, error) {
	if n == nil {
		return nil, nil
	}
	if depth > MaxDepth {
		return nil, ErrTooDeep
	}

	switch n.Kind {
	case vnode.KindText:
		return []*html.Node{{Type: html.TextNode, Data: n.Text}}, nil
	case vnode.KindComment:
		return []*html.Node{{Type: html.CommentNode, Data: n.Text}}, nil
	case vnode.KindFragment, vnode.KindList:
		return childrenToHTML(n.Children, depth)
	case vnode.KindOpaque:
		if hn, ok := n.Handle.(*html.Node); ok && hn != nil {
			if hn.Type == html.ElementNode && !vnode.ValidTag(hn.Data) {
				return nil, fmt.Errorf("%w: element %q", ErrInvalidName, hn.Data)
			}
			return []*html.Node{cloneHTML(hn)}, nil
		}
		// No markup to replay, keep a mount point.
		el, err := newElement(n.Tag, nil)
		if err != nil {
			return nil, err
		}
		return []*html.Node{el}, nil
	case vnode.KindElement:
		el, err := newElement(n.Tag, n.Attrs)
		if err != nil {
			return nil, err
		}
		if voidElements[el.DataAtom] {
			return []*html.Node{el}, nil
		}
		children, err := childrenToHTML(n.Children, depth)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			el.AppendChild(c)
		}
		return []*html.Node{el}, nil
	}
	return nil, nil
}

func childrenToHTML(children []*vnode.Node, depth int) ([]*html.Node, error) {
	var out []*html.Node
	for _, c := range children {
		nodes, err := toHTML(c, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, nodes...)
	}
	return out, nil
}

// newElement builds an element node. html.Render writes names verbatim, so
// they are checked here.
func newElement(tag string, attrs []vnode.Attr) (*html.Node, error) {
	if !vnode.ValidTag(tag) {
		return nil, fmt.Errorf("%w: element %q", ErrInvalidName, tag)
	}
	el := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for _, a := range attrs {
		if !vnode.ValidAttrKey(a.Key) {
			return nil, fmt.Errorf("%w: attribute %q on <%s>", ErrInvalidName, a.Key, tag)
		}
		el.Attr = append(el.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	return el, nil
}

// cloneHTML deep-copies a parsed node so it can be attached to a new tree.
// The parser's tree is shared by every render of the same input. Attributes
// with unwritable names are dropped.
func cloneHTML(n *html.Node) *html.Node {
	cp := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	for _, a := range n.Attr {
		if vnode.ValidAttrKey(a.Key) {
			cp.Attr = append(cp.Attr, a)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !vnode.ValidTag(c.Data) {
			// Unwritable element: keep its content only.
			for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
				cp.AppendChild(cloneHTML(gc))
			}
			continue
		}
		cp.AppendChild(cloneHTML(c))
	}
	return cp
}
