package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/skelgen/internal/vnode"
)

func TestJSONParser_Tree(t *testing.T) {
	input := `{
  "tag": "div",
  "attrs": {"class": "max-w-md mx-auto", "id": "card"},
  "children": [
    {"type": "element", "tag": "img", "attrs": {"src": null, "class": "w-full"}},
    {"tag": "h3", "children": null},
    {"tag": "p", "children": "excerpt"},
    {"type": "opaque", "tag": "ShareButton"},
    {"type": "fragment", "children": [1, "two", false]},
    ["a", null]
  ]
}`
	tree, err := (&JSONParser{}).Parse(strings.NewReader(input), "card.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tree.Tag != "div" {
		t.Fatalf("expected div root, got %q", tree.Tag)
	}
	want := []vnode.Attr{{Key: "class", Val: "max-w-md mx-auto"}, {Key: "id", Val: "card"}}
	for i, a := range want {
		if tree.Attrs[i] != a {
			t.Errorf("attr %d: expected %+v, got %+v", i, a, tree.Attrs[i])
		}
	}
	if len(tree.Children) != 6 {
		t.Fatalf("expected 6 children, got %d", len(tree.Children))
	}

	img := tree.Children[0]
	if img.HasAttr("src") {
		t.Error("expected null src to be dropped")
	}
	if h3 := tree.Children[1]; len(h3.Children) != 0 {
		t.Errorf("expected null children to be empty, got %d", len(h3.Children))
	}
	if p := tree.Children[2]; len(p.Children) != 1 || p.Children[0].Text != "excerpt" {
		t.Errorf("expected single child to be accepted, got %+v", p.Children)
	}
	if op := tree.Children[3]; op.Kind != vnode.KindOpaque || op.Tag != "ShareButton" {
		t.Errorf("expected opaque ShareButton, got %s %q", op.Kind, op.Tag)
	}

	frag := tree.Children[4]
	if frag.Kind != vnode.KindFragment || len(frag.Children) != 3 {
		t.Fatalf("expected fragment with 3 children, got %s with %d", frag.Kind, len(frag.Children))
	}
	if n := frag.Children[0]; !n.Numeric || n.Text != "1" {
		t.Errorf("expected numeric 1, got %+v", n)
	}
	if frag.Children[2].Kind != vnode.KindNone {
		t.Errorf("expected boolean to become none, got %s", frag.Children[2].Kind)
	}

	if list := tree.Children[5]; list.Kind != vnode.KindList || len(list.Children) != 2 {
		t.Errorf("expected list of 2, got %s", list.Kind)
	}
}

func TestJSONParser_OrderedAttrs(t *testing.T) {
	input := `{"tag": "a", "attrs": [["href", "/x"], ["class", "b"], ["tabindex", 1]]}`
	tree, err := (&JSONParser{}).Parse(strings.NewReader(input), "a.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []vnode.Attr{{Key: "href", Val: "/x"}, {Key: "class", Val: "b"}, {Key: "tabindex", Val: "1"}}
	if len(tree.Attrs) != len(want) {
		t.Fatalf("expected %d attrs, got %d", len(want), len(tree.Attrs))
	}
	for i := range want {
		if tree.Attrs[i] != want[i] {
			t.Errorf("attr %d: expected %+v, got %+v", i, want[i], tree.Attrs[i])
		}
	}
}

func TestJSONParser_Errors(t *testing.T) {
	tests := map[string]string{
		"element without tag": `{"type": "element"}`,
		"unknown type":        `{"type": "widget"}`,
		"bad attrs":           `{"tag": "a", "attrs": "x"}`,
		"bad attr pair":       `{"tag": "a", "attrs": [["only-key"]]}`,
		"nested error":        `{"tag": "div", "children": [{"type": "nope"}]}`,
		"not json":            `{`,
		"tag with spaces":     `{"tag": "img src=x onerror=alert(1)", "children": ["hi"]}`,
		"opaque tag":          `{"type": "opaque", "tag": "a>b"}`,
		"attr key in map":     `{"tag": "b", "attrs": {"onmouseover=alert(2) x": "1"}}`,
		"attr key in pairs":   `{"tag": "b", "attrs": [["a\"b", "1"]]}`,
	}
	for name, input := range tests {
		if _, err := (&JSONParser{}).Parse(strings.NewReader(input), "x.json"); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestJSONParser_EmptyInput(t *testing.T) {
	tree, err := (&JSONParser{}).Parse(strings.NewReader(""), "empty.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Kind != vnode.KindFragment || len(tree.Children) != 0 {
		t.Errorf("expected empty fragment, got %s", tree.Kind)
	}
}
