package protocol

// Headers is the wire representation of envelope headers: an ordered
// sequence of single-key objects. Relaying nodes append entries rather
// than rewriting earlier state; readers fold the sequence left to
// right, so the latest value for a key wins.
type Headers []map[string]any

// Fold collapses the sequence into its effective mapping.
func (h Headers) Fold() map[string]any {
	out := map[string]any{}
	for _, item := range h {
		for k, v := range item {
			out[k] = v
		}
	}
	return out
}

// Append returns a new sequence with one more single-key entry. The
// receiver is never mutated.
func (h Headers) Append(key string, value any) Headers {
	out := make(Headers, len(h), len(h)+1)
	copy(out, h)
	return append(out, map[string]any{key: value})
}

// Get reads a key through the folded view.
func (h Headers) Get(key string) (any, bool) {
	var found any
	ok := false
	for _, item := range h {
		if v, has := item[key]; has {
			found, ok = v, true
		}
	}
	return found, ok
}
