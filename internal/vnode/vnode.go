// Package vnode is the markup tree shared by the parsers, the skeleton
// transformer and the renderers.
package vnode

import (
	"strconv"
	"strings"
)

// Kind tags the variant a Node holds.
type Kind uint8

const (
	KindNone     Kind = iota // renders nothing
	KindText                 // string or number leaf
	KindElement              // primitive markup element
	KindFragment             // children without a wrapping element
	KindOpaque               // component whose structure is not ours to touch
	KindList                 // bare sequence of nodes
	KindComment              // markup comment
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindText:
		return "text"
	case KindElement:
		return "element"
	case KindFragment:
		return "fragment"
	case KindOpaque:
		return "opaque"
	case KindList:
		return "list"
	case KindComment:
		return "comment"
	default:
		return "unknown"
	}
}

// Attr is a single markup attribute.
type Attr struct {
	Key string
	Val string
}

// Node is one entry of a markup tree. Identity is the pointer: two nodes with
// identical content are still different nodes.
type Node struct {
	Kind Kind

	Tag     string // element tag, or the opaque component name
	Text    string // text or comment content
	Numeric bool   // Text came from a number

	Attrs    []Attr
	Children []*Node // element/fragment children, list items

	// Handle is producer-owned state for opaque nodes (the HTML parser
	// stores the original *html.Node so it can be rendered back verbatim).
	Handle any
}

// None returns an explicit "render nothing" marker.
func None() *Node { return &Node{Kind: KindNone} }

// Text returns a string leaf.
func Text(s string) *Node { return &Node{Kind: KindText, Text: s} }

// Number returns a numeric leaf.
func Number(f float64) *Node {
	return &Node{Kind: KindText, Text: strconv.FormatFloat(f, 'f', -1, 64), Numeric: true}
}

// Element returns a primitive element.
func Element(tag string, attrs []Attr, children ...*Node) *Node {
	return &Node{Kind: KindElement, Tag: tag, Attrs: attrs, Children: children}
}

// Fragment groups children without a wrapper.
func Fragment(children ...*Node) *Node {
	return &Node{Kind: KindFragment, Children: children}
}

// Opaque wraps a component that must be passed through untouched.
func Opaque(name string, handle any) *Node {
	return &Node{Kind: KindOpaque, Tag: name, Handle: handle}
}

// List returns a bare sequence of nodes.
func List(items ...*Node) *Node {
	return &Node{Kind: KindList, Children: items}
}

// Comment returns a comment node.
func Comment(s string) *Node { return &Node{Kind: KindComment, Text: s} }

// Class builds an attribute list holding only a class attribute.
func Class(class string) []Attr {
	return []Attr{{Key: "class", Val: class}}
}

// Attr returns the value of key and whether it is present.
func (n *Node) Attr(key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether key is present.
func (n *Node) HasAttr(key string) bool {
	_, ok := n.Attr(key)
	return ok
}

// Class returns the class attribute, or "".
func (n *Node) Class() string {
	v, _ := n.Attr("class")
	return v
}

// Style returns the style attribute and whether it is set.
func (n *Node) Style() (string, bool) {
	return n.Attr("style")
}

// HasClass reports whether token is one of the node's classes.
func (n *Node) HasClass(token string) bool {
	return HasToken(n.Class(), token)
}

// HasToken reports whether token appears as a whitespace separated field of s.
func HasToken(s, token string) bool {
	if token == "" {
		return false
	}
	for _, f := range strings.Fields(s) {
		if f == token {
			return true
		}
	}
	return false
}
