package viewset

import (
	"fmt"
	"strings"
)

// Name identifies one derived view. Views are always compared by name, never
// by the identity of the image they hold.
type Name int

// The full enumeration of views, in display order.
const (
	Original Name = iota
	Edges
	Highlight
	Pixelate
	Grey
	Gauss
	Median
	Reduce
	Otsu
	Ohbuchi

	numNames
)

var nameStrings = [numNames]string{
	Original:  "original",
	Edges:     "edges",
	Highlight: "highlight",
	Pixelate:  "pixelate",
	Grey:      "grey",
	Gauss:     "gauss",
	Median:    "median",
	Reduce:    "reduce",
	Otsu:      "otsu",
	Ohbuchi:   "ohbuchi",
}

// aliases accepts the toolbar labels of the original viewer.
var aliases = map[string]Name{
	"sobel":    Edges,
	"pixelize": Pixelate,
	"gray":     Grey,
}

func (n Name) String() string {
	if n >= 0 && n < numNames {
		return nameStrings[n]
	}
	return fmt.Sprintf("Name(%d)", int(n))
}

// Valid reports whether n is part of the enumeration.
func (n Name) Valid() bool {
	return n >= 0 && n < numNames
}

// MarshalText implements encoding.TextMarshaler.
func (n Name) MarshalText() ([]byte, error) {
	if !n.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownView, int(n))
	}
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Name) UnmarshalText(text []byte) error {
	v, err := ParseName(string(text))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

// ParseName resolves a case-insensitive view name. Unknown names return an
// error wrapping ErrUnknownView.
func ParseName(s string) (Name, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, str := range nameStrings {
		if str == key {
			return Name(i), nil
		}
	}
	if n, ok := aliases[key]; ok {
		return n, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// AllNames returns every view name in display order.
func AllNames() []Name {
	names := make([]Name, numNames)
	for i := range names {
		names[i] = Name(i)
	}
	return names
}

// FeatureLevel selects which optional views Load computes.
type FeatureLevel int

const (
	// LevelMinimal computes Original, Edges, Highlight and Pixelate.
	LevelMinimal FeatureLevel = iota

	// LevelFilters adds Grey, Gauss and Median.
	LevelFilters

	// LevelFull adds Reduce, Otsu and Ohbuchi.
	LevelFull
)

var levelStrings = map[FeatureLevel]string{
	LevelMinimal: "minimal",
	LevelFilters: "filters",
	LevelFull:    "full",
}

func (l FeatureLevel) String() string {
	if s, ok := levelStrings[l]; ok {
		return s
	}
	return fmt.Sprintf("FeatureLevel(%d)", int(l))
}

// ParseFeatureLevel parses "minimal", "filters" or "full" (case-insensitive).
func ParseFeatureLevel(s string) (FeatureLevel, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for l, str := range levelStrings {
		if str == key {
			return l, nil
		}
	}
	return LevelMinimal, fmt.Errorf("unknown feature level %q", s)
}

// Views returns the views computed at this level, in display order.
func (l FeatureLevel) Views() []Name {
	names := []Name{Original, Edges, Highlight, Pixelate}
	if l >= LevelFilters {
		names = append(names, Grey, Gauss, Median)
	}
	if l >= LevelFull {
		names = append(names, Reduce, Otsu, Ohbuchi)
	}
	return names
}

// Includes reports whether n is computed at this level.
func (l FeatureLevel) Includes(n Name) bool {
	for _, v := range l.Views() {
		if v == n {
			return true
		}
	}
	return false
}
