package skeleton

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultCenterMarker is the class token that centers a subtree.
const DefaultCenterMarker = "text-center"

// StyleTable maps primitive tags to the placeholder classes they get when
// empty. Tags not listed fall back to the generic rules.
type StyleTable map[string]string

// DefaultStyleTable returns a fresh copy of the built-in table.
func DefaultStyleTable() StyleTable {
	return StyleTable{
		"h1":    "skeleton-h1 w-[70%] my-4",
		"h2":    "skeleton-h2 w-[65%] my-3",
		"h3":    "skeleton-h3 w-[60%] my-2",
		"h4":    "skeleton-h4 w-[55%] my-2",
		"h5":    "skeleton-h5 w-[50%] my-1",
		"h6":    "skeleton-h6 w-[45%] my-1",
		"p":     "skeleton-p w-[80%] my-3",
		"span":  "skeleton-span w-[40%]",
		"label": "skeleton-label w-[40%]",
	}
}

// Lookup returns the placeholder class for tag.
func (t StyleTable) Lookup(tag string) (string, bool) {
	class, ok := t[tag]
	return class, ok
}

// Tags returns the table keys in sorted order.
func (t StyleTable) Tags() []string {
	return slices.Sorted(maps.Keys(t))
}

// StyleFile is the YAML form of a style override.
type StyleFile struct {
	CenterMarker string            `yaml:"center_marker,omitempty"`
	Tags         map[string]string `yaml:"tags"`
}

// LoadStyleFile decodes a YAML style override. An empty tags section keeps
// the built-in table.
func LoadStyleFile(r io.Reader) (StyleFile, error) {
	var f StyleFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
		return StyleFile{}, fmt.Errorf("decode style table: %w", err)
	}

	f.CenterMarker = strings.TrimSpace(f.CenterMarker)
	if strings.ContainsAny(f.CenterMarker, " \t\n") {
		return StyleFile{}, fmt.Errorf("center_marker %q must be a single class token", f.CenterMarker)
	}

	if len(f.Tags) == 0 {
		f.Tags = DefaultStyleTable()
		return f, nil
	}
	table := make(StyleTable, len(f.Tags))
	for tag, class := range f.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		class = strings.TrimSpace(class)
		if tag == "" {
			return StyleFile{}, fmt.Errorf("style table: empty tag name")
		}
		if class == "" {
			return StyleFile{}, fmt.Errorf("style table: tag %q has no class", tag)
		}
		table[tag] = class
	}
	f.Tags = table
	return f, nil
}

// LoadStyleTable decodes only the tag table of a YAML style override.
func LoadStyleTable(r io.Reader) (StyleTable, error) {
	f, err := LoadStyleFile(r)
	if err != nil {
		return nil, err
	}
	return f.Tags, nil
}

// Encode writes the table as a YAML style file.
func (t StyleTable) Encode(w io.Writer, centerMarker string) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(StyleFile{CenterMarker: centerMarker, Tags: t})
}
