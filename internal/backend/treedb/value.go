package treedb

import (
	"fmt"
	"strconv"
	"strings"
)

// normalize deep-copies v into the tree representation: objects become
// map[string]any without nil children, arrays become index-keyed objects
// and empty objects become nil.
func normalize(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string, bool, float64, float32, int, int32, int64, uint, uint32, uint64:
		return val, nil
	case map[string]any:
		return normalizeObject(val)
	case map[string]string:
		obj := make(map[string]any, len(val))
		for k, e := range val {
			obj[k] = e
		}
		return normalizeObject(obj)
	case []any:
		obj := make(map[string]any, len(val))
		for i, e := range val {
			obj[strconv.Itoa(i)] = e
		}
		return normalizeObject(obj)
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidValue, v)
	}
}

func normalizeObject(obj map[string]any) (any, error) {
	out := make(map[string]any, len(obj))
	for k, e := range obj {
		if !validKey(k) {
			return nil, fmt.Errorf("%w: invalid key %q", ErrInvalidValue, k)
		}
		n, err := normalize(e)
		if err != nil {
			return nil, err
		}
		if n != nil {
			out[k] = n
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func validKey(k string) bool {
	return k != "" && !strings.ContainsAny(k, reservedChars+"/")
}

func cloneValue(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(m))
	for k, e := range m {
		out[k] = cloneValue(e)
	}
	return out
}
