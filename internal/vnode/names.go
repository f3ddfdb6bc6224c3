package vnode

import "unicode"

// ValidTag reports whether tag can be written as an element name: an ASCII
// letter followed by letters, digits, '-', '_', ':' or '.'.
func ValidTag(tag string) bool {
	if tag == "" {
		return false
	}
	for i, r := range tag {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-' || r == '_' || r == ':' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// ValidAttrKey reports whether key can be written as an attribute name.
// Whitespace, controls, quotes, '<', '>', '/' and '=' are rejected.
func ValidAttrKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
		switch r {
		case '"', '\'', '<', '>', '/', '=', unicode.ReplacementChar:
			return false
		}
	}
	return true
}
