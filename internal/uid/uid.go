package uid

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedID is returned when a unique id string cannot be parsed.
var ErrMalformedID = errors.New("malformed unique id")

// Segment is one typed element of a unique id path.
// The type string acts as a namespace owned by the resolver that mints it
// (e.g. "package", "suite", "method").
type Segment struct {
	Type  string
	Value string
}

// ID is an ordered path of typed segments that stably addresses a node in a
// discovery tree. IDs are immutable: Append returns a new ID and never
// mutates the receiver. Two IDs are equal iff their segment sequences are
// equal element-wise.
type ID struct {
	segments []Segment
}

// New creates an ID with a single root segment.
func New(segmentType, value string) ID {
	return ID{segments: []Segment{{Type: segmentType, Value: value}}}
}

// Append returns a new ID with one additional segment. The receiver is left
// untouched, so descriptors can safely share id prefixes.
func (id ID) Append(segmentType, value string) ID {
	segments := make([]Segment, 0, len(id.segments)+1)
	segments = append(segments, id.segments...)
	segments = append(segments, Segment{Type: segmentType, Value: value})
	return ID{segments: segments}
}

// Segments returns a copy of the segment sequence.
func (id ID) Segments() []Segment {
	out := make([]Segment, len(id.segments))
	copy(out, id.segments)
	return out
}

// Last returns the final segment. It panics on a zero ID; callers are
// expected to only ask for the last segment of a constructed id.
func (id ID) Last() Segment {
	return id.segments[len(id.segments)-1]
}

// Length returns the number of segments.
func (id ID) Length() int {
	return len(id.segments)
}

// IsZero reports whether the id has no segments.
func (id ID) IsZero() bool {
	return len(id.segments) == 0
}

// Equals reports structural equality.
func (id ID) Equals(other ID) bool {
	if len(id.segments) != len(other.segments) {
		return false
	}
	for i, seg := range id.segments {
		if other.segments[i] != seg {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is an ancestor-or-self path of id.
func (id ID) HasPrefix(prefix ID) bool {
	if len(prefix.segments) > len(id.segments) {
		return false
	}
	for i, seg := range prefix.segments {
		if id.segments[i] != seg {
			return false
		}
	}
	return true
}

// String renders the canonical form "type:value/type:value/...". The result
// is usable as a map key and round-trips through Parse.
func (id ID) String() string {
	var b strings.Builder
	for i, seg := range id.segments {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(escape(seg.Type))
		b.WriteByte(':')
		b.WriteString(escape(seg.Value))
	}
	return b.String()
}

// Parse reconstructs an ID from its canonical string form. It fails with
// ErrMalformedID on empty input, empty segments, or segments that do not
// match the "type:value" grammar.
func Parse(s string) (ID, error) {
	if s == "" {
		return ID{}, fmt.Errorf("%w: empty string", ErrMalformedID)
	}

	parts := strings.Split(s, "/")
	segments := make([]Segment, 0, len(parts))
	for _, part := range parts {
		segType, value, ok := strings.Cut(part, ":")
		if !ok {
			return ID{}, fmt.Errorf("%w: segment %q has no type separator", ErrMalformedID, part)
		}
		if segType == "" || value == "" {
			return ID{}, fmt.Errorf("%w: segment %q has an empty type or value", ErrMalformedID, part)
		}
		if strings.Contains(value, ":") {
			return ID{}, fmt.Errorf("%w: segment %q has an unescaped colon in its value", ErrMalformedID, part)
		}

		t, err := unescape(segType)
		if err != nil {
			return ID{}, err
		}
		v, err := unescape(value)
		if err != nil {
			return ID{}, err
		}
		segments = append(segments, Segment{Type: t, Value: v})
	}
	return ID{segments: segments}, nil
}

// escape protects the grammar characters so arbitrary segment values survive
// a String/Parse round trip.
func escape(s string) string {
	if !strings.ContainsAny(s, "%:/") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '%', ':', '/':
			fmt.Fprintf(&b, "%%%02X", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func unescape(s string) (string, error) {
	if !strings.ContainsRune(s, '%') {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+3 > len(s) {
			return "", fmt.Errorf("%w: truncated escape in %q", ErrMalformedID, s)
		}
		var decoded byte
		if _, err := fmt.Sscanf(s[i+1:i+3], "%02X", &decoded); err != nil {
			return "", fmt.Errorf("%w: invalid escape in %q", ErrMalformedID, s)
		}
		b.WriteByte(decoded)
		i += 2
	}
	return b.String(), nil
}
