package treedb

import (
	"fmt"
	"strings"
)

const reservedChars = ".#$[]"

// parsePath splits p into segments. Leading and trailing slashes are
// ignored; "" and "/" address the root.
func parsePath(p string) ([]string, error) {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil, nil
	}
	segs := strings.Split(p, "/")
	for _, s := range segs {
		if s == "" || strings.ContainsAny(s, reservedChars) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, p)
		}
	}
	return segs, nil
}

// related reports whether a write at w can change the value observed at o.
func related(o, w string) bool {
	return o == "" || w == "" || o == w ||
		strings.HasPrefix(w, o+"/") || strings.HasPrefix(o, w+"/")
}

func joinPath(segs []string) string {
	return strings.Join(segs, "/")
}

func getAt(node any, segs []string) any {
	for _, s := range segs {
		m, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node = m[s]
	}
	return node
}

// setAt stores value at segs below node and returns the new node. node is
// modified in place. Empty objects are pruned on the way back up.
func setAt(node any, segs []string, value any) any {
	if len(segs) == 0 {
		return value
	}
	m, ok := node.(map[string]any)
	if !ok {
		if value == nil {
			return node
		}
		m = make(map[string]any)
	}

	child := setAt(m[segs[0]], segs[1:], value)
	if child == nil {
		delete(m, segs[0])
	} else {
		m[segs[0]] = child
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// ValidatePath reports whether p can address a location.
func ValidatePath(p string) error {
	_, err := parsePath(p)
	return err
}

// ValidateKey reports whether k can name a single child.
func ValidateKey(k string) error {
	if !validKey(k) {
		return fmt.Errorf("%w: invalid key %q", ErrInvalidPath, k)
	}
	return nil
}
