package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dgallion1/skelgen/internal/vnode"
)

type jsonNode struct {
	Type     string      `json:"type"`
	Tag      string      `json:"tag,omitempty"`
	Text     string      `json:"text,omitempty"`
	Attrs    [][2]string `json:"attrs,omitempty"`
	Children []any       `json:"children,omitempty"`
}

// JSON writes n in the JSON tree format. Attributes are written as ordered
// [key, value] pairs. Opaque handles are not serialized.
func JSON(w io.Writer, n *vnode.Node) error {
	v, err := toJSON(n, 0)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("render json: %w", err)
	}
	return nil
}

func toJSON(n *vnode.Node, depth int) (any, error) {
	if n == nil {
		return nil, nil
	}
	if depth > MaxDepth {
		return nil, ErrTooDeep
	}

	switch n.Kind {
	case vnode.KindNone:
		return nil, nil
	case vnode.KindText:
		if n.Numeric {
			return json.Number(n.Text), nil
		}
		return n.Text, nil
	case vnode.KindList:
		return childrenToJSON(n.Children, depth)
	case vnode.KindComment:
		return jsonNode{Type: "comment", Text: n.Text}, nil
	case vnode.KindOpaque:
		return jsonNode{Type: "opaque", Tag: n.Tag}, nil
	case vnode.KindFragment, vnode.KindElement:
		children, err := childrenToJSON(n.Children, depth)
		if err != nil {
			return nil, err
		}
		out := jsonNode{Type: n.Kind.String(), Tag: n.Tag, Children: children}
		for _, a := range n.Attrs {
			out.Attrs = append(out.Attrs, [2]string{a.Key, a.Val})
		}
		return out, nil
	}
	return nil, fmt.Errorf("render json: unknown node kind %s", n.Kind)
}

func childrenToJSON(children []*vnode.Node, depth int) ([]any, error) {
	out := make([]any, 0, len(children))
	for _, c := range children {
		v, err := toJSON(c, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
