package frame

// Header is an ordered, append-preserving collection of STOMP header
// pairs. Unlike a Go map it keeps insertion order, which matters for
// serializing CONNECTED/MESSAGE frames with a stable header layout and
// for round-tripping frames whose original header order should survive
// parse -> serialize.
type Header struct {
	pairs [][2]string
}

// NewHeader returns an empty header.
func NewHeader() *Header {
	return &Header{}
}

// Add appends a header pair without checking for an existing key. Used
// when building frames from scratch, where the caller already knows the
// keys are unique.
func (h *Header) Add(key, value string) {
	h.pairs = append(h.pairs, [2]string{key, value})
}

// Set replaces the value of the first pair with this key, or appends a
// new pair if the key is not present.
func (h *Header) Set(key, value string) {
	for i := range h.pairs {
		if h.pairs[i][0] == key {
			h.pairs[i][1] = value
			return
		}
	}
	h.Add(key, value)
}

// Get returns the value of the first pair with this key.
func (h *Header) Get(key string) (string, bool) {
	for _, p := range h.pairs {
		if p[0] == key {
			return p[1], true
		}
	}
	return "", false
}

// Del removes every pair with this key.
func (h *Header) Del(key string) {
	out := h.pairs[:0]
	for _, p := range h.pairs {
		if p[0] != key {
			out = append(out, p)
		}
	}
	h.pairs = out
}

// Len returns the number of header pairs.
func (h *Header) Len() int {
	if h == nil {
		return 0
	}
	return len(h.pairs)
}

// At returns the key/value pair at position i, in insertion order.
func (h *Header) At(i int) (string, string) {
	p := h.pairs[i]
	return p[0], p[1]
}

// Clone returns an independent copy.
func (h *Header) Clone() *Header {
	if h == nil {
		return NewHeader()
	}
	out := &Header{pairs: make([][2]string, len(h.pairs))}
	copy(out.pairs, h.pairs)
	return out
}

// Overlay copies pairs from other into h, overwriting any existing key
// and appending new ones. Used by SEND to let incoming headers win over
// the handler's defaults (§4.5).
func (h *Header) Overlay(other *Header) {
	if other == nil {
		return
	}
	for _, p := range other.pairs {
		h.Set(p[0], p[1])
	}
}

// addIfAbsent appends key/value only if the key is not already present,
// keeping the first occurrence per STOMP 1.1 duplicate-header handling.
func (h *Header) addIfAbsent(key, value string) {
	if _, ok := h.Get(key); ok {
		return
	}
	h.Add(key, value)
}
