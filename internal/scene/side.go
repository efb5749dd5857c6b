package scene

import (
	"fmt"
	"strings"
)

// Side identifies one of the two synchronized environments.
type Side int

const (
	// SideAuthoring is the content-creation tool (A). It pushes local edits
	// and pulls remote ones on its own timer.
	SideAuthoring Side = iota + 1
	// SideEngine is the real-time engine (B). It is only ever polled.
	SideEngine
)

// sideAliases maps accepted wire tags to sides. The named aliases are the
// tags used by the first generation of clients.
var sideAliases = map[string]Side{
	"a":         SideAuthoring,
	"authoring": SideAuthoring,
	"blender":   SideAuthoring,
	"b":         SideEngine,
	"engine":    SideEngine,
	"ue5":       SideEngine,
}

// ParseSide converts a wire tag to a Side. Matching is case-insensitive.
func ParseSide(tag string) (Side, error) {
	if s, ok := sideAliases[strings.ToLower(strings.TrimSpace(tag))]; ok {
		return s, nil
	}
	return 0, fmt.Errorf("unknown side %q: must be A or B", tag)
}

// Valid reports whether s is one of the two defined sides.
func (s Side) Valid() bool {
	return s == SideAuthoring || s == SideEngine
}

// Other returns the opposite side.
func (s Side) Other() Side {
	switch s {
	case SideAuthoring:
		return SideEngine
	case SideEngine:
		return SideAuthoring
	}
	return 0
}

// String returns the canonical wire tag ("A" or "B").
func (s Side) String() string {
	switch s {
	case SideAuthoring:
		return "A"
	case SideEngine:
		return "B"
	}
	return fmt.Sprintf("Side(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid side %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Side) UnmarshalText(text []byte) error {
	parsed, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
