package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dgallion1/skelgen/internal/vnode"
)

// JSONParser reads the JSON tree format:
//
//	"text"                          text
//	42                              number
//	null, true, false               render nothing
//	[ ... ]                         list
//	{"type": "element", "tag": "div", "attrs": {"class": "p-4"}, "children": [...]}
//	{"type": "fragment", "children": [...]}
//	{"type": "opaque", "tag": "UserBadge"}
//	{"type": "comment", "text": "..."}
//
// attrs may also be a list of [key, value] pairs when order matters.
type JSONParser struct{}

func (p *JSONParser) Parse(r io.Reader, filename string) (*vnode.Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return vnode.Fragment(), nil
		}
		return nil, fmt.Errorf("decode json tree: %w", err)
	}
	n, err := decodeNode(raw, "$")
	if err != nil {
		return nil, fmt.Errorf("json tree: %w", err)
	}
	return n, nil
}

func decodeNode(raw any, path string) (*vnode.Node, error) {
	switch v := raw.(type) {
	case nil, bool:
		return vnode.None(), nil
	case string:
		return vnode.Text(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("%s: bad number %q", path, v)
		}
		return vnode.Number(f), nil
	case []any:
		items, err := decodeChildren(v, path)
		if err != nil {
			return nil, err
		}
		return vnode.List(items...), nil
	case map[string]any:
		return decodeObject(v, path)
	}
	return nil, fmt.Errorf("%s: unexpected value %T", path, raw)
}

func decodeObject(obj map[string]any, path string) (*vnode.Node, error) {
	typ, _ := obj["type"].(string)
	tag, _ := obj["tag"].(string)
	if typ == "" && tag != "" {
		typ = "element"
	}

	var children []*vnode.Node
	if rawChildren, ok := obj["children"]; ok && rawChildren != nil {
		list, ok := rawChildren.([]any)
		if !ok {
			// A single child is accepted without the surrounding list.
			list = []any{rawChildren}
		}
		var err error
		children, err = decodeChildren(list, path)
		if err != nil {
			return nil, err
		}
	}

	switch strings.ToLower(typ) {
	case "element":
		if tag == "" {
			return nil, fmt.Errorf("%s: element without tag", path)
		}
		if !vnode.ValidTag(tag) {
			return nil, fmt.Errorf("%s: invalid tag %q", path, tag)
		}
		attrs, err := decodeAttrs(obj["attrs"], path)
		if err != nil {
			return nil, err
		}
		return vnode.Element(tag, attrs, children...), nil
	case "fragment":
		return vnode.Fragment(children...), nil
	case "opaque", "component":
		if tag == "" {
			return nil, fmt.Errorf("%s: opaque node without tag", path)
		}
		if !vnode.ValidTag(tag) {
			return nil, fmt.Errorf("%s: invalid tag %q", path, tag)
		}
		return vnode.Opaque(tag, nil), nil
	case "comment":
		text, _ := obj["text"].(string)
		return vnode.Comment(text), nil
	case "text":
		text, _ := obj["text"].(string)
		return vnode.Text(text), nil
	case "none":
		return vnode.None(), nil
	}
	return nil, fmt.Errorf("%s: unknown node type %q", path, typ)
}

func decodeChildren(list []any, path string) ([]*vnode.Node, error) {
	out := make([]*vnode.Node, 0, len(list))
	for i, item := range list {
		n, err := decodeNode(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func decodeAttrs(raw any, path string) ([]vnode.Attr, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		attrs := make([]vnode.Attr, 0, len(keys))
		for _, k := range keys {
			if !vnode.ValidAttrKey(k) {
				return nil, fmt.Errorf("%s.attrs: invalid attribute name %q", path, k)
			}
			// Missing values (data still loading) drop the attribute.
			if v[k] == nil {
				continue
			}
			attrs = append(attrs, vnode.Attr{Key: k, Val: attrString(v[k])})
		}
		return attrs, nil
	case []any:
		attrs := make([]vnode.Attr, 0, len(v))
		for i, pair := range v {
			kv, ok := pair.([]any)
			if !ok || len(kv) != 2 {
				return nil, fmt.Errorf("%s.attrs[%d]: expected [key, value]", path, i)
			}
			k, ok := kv[0].(string)
			if !ok {
				return nil, fmt.Errorf("%s.attrs[%d]: key must be a string", path, i)
			}
			if !vnode.ValidAttrKey(k) {
				return nil, fmt.Errorf("%s.attrs[%d]: invalid attribute name %q", path, i, k)
			}
			if kv[1] == nil {
				continue
			}
			attrs = append(attrs, vnode.Attr{Key: k, Val: attrString(kv[1])})
		}
		return attrs, nil
	}
	return nil, fmt.Errorf("%s.attrs: expected object or list", path)
}

func attrString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "true"
		}
		return "false"
	}
	b, _ := json.Marshal(v)
	return string(b)
}
