package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/skelgen/internal/vnode"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLParser handles HTML documents and fragments.
type HTMLParser struct{}

// OpaqueAttr marks an element whose subtree must not be skeletonized.
const OpaqueAttr = "data-skeleton"

// Elements whose content is not layout markup.
var opaqueAtoms = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Math:     true,
	atom.Iframe:   true,
	atom.Canvas:   true,
	atom.Video:    true,
	atom.Audio:    true,
	atom.Object:   true,
	atom.Noscript: true,
}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*vnode.Node, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}

	if isFullDocument(src) {
		doc, err := html.Parse(bytes.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("parse html: %w", err)
		}
		body := findBody(doc)
		if body == nil {
			return vnode.Fragment(convertChildren(doc)...), nil
		}
		return vnode.Fragment(convertChildren(body)...), nil
	}

	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(src), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse html fragment: %w", err)
	}
	children := make([]*vnode.Node, 0, len(nodes))
	for _, n := range nodes {
		if c := convert(n); c != nil {
			children = append(children, c)
		}
	}
	return vnode.Fragment(children...), nil
}

// convert returns nil for nodes that carry no content (doctype, formatting
// whitespace).
func convert(n *html.Node) *vnode.Node {
	switch n.Type {
	case html.TextNode:
		// Whitespace that spans lines is source formatting, not content.
		if strings.TrimSpace(n.Data) == "" && strings.Contains(n.Data, "\n") {
			return nil
		}
		return vnode.Text(n.Data)
	case html.CommentNode:
		return vnode.Comment(n.Data)
	case html.DocumentNode:
		return vnode.Fragment(convertChildren(n)...)
	case html.ElementNode:
		// The tokenizer accepts names no serializer can write back; keep
		// the content and drop the wrapper.
		if !vnode.ValidTag(n.Data) {
			return vnode.Fragment(convertChildren(n)...)
		}
		if isOpaque(n) {
			return vnode.Opaque(n.Data, n)
		}
		var attrs []vnode.Attr
		for _, a := range n.Attr {
			key := a.Key
			if a.Namespace != "" {
				key = a.Namespace + ":" + a.Key
			}
			if !vnode.ValidAttrKey(key) {
				continue
			}
			attrs = append(attrs, vnode.Attr{Key: key, Val: a.Val})
		}
		return vnode.Element(n.Data, attrs, convertChildren(n)...)
	}
	return nil
}

func convertChildren(n *html.Node) []*vnode.Node {
	var out []*vnode.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if v := convert(c); v != nil {
			out = append(out, v)
		}
	}
	return out
}

func isOpaque(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key == OpaqueAttr && strings.EqualFold(a.Val, "opaque") {
			return true
		}
	}
	switch {
	case n.Namespace != "":
		return true
	case strings.Contains(n.Data, "-"):
		return true
	case n.DataAtom == 0:
		return true
	}
	return opaqueAtoms[n.DataAtom]
}

func isFullDocument(src []byte) bool {
	head := src
	if len(head) > 1024 {
		head = head[:1024]
	}
	head = bytes.ToLower(bytes.TrimSpace(head))
	return bytes.HasPrefix(head, []byte("<!doctype")) || bytes.Contains(head, []byte("<html"))
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
