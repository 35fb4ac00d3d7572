// Package templates holds the fixed template catalogs for the still-image
// and video families.
package templates

import (
	"fmt"
	"strings"
)

// Family separates still-image templates from video templates.
type Family int

const (
	Image Family = iota
	Video
)

func (f Family) String() string {
	switch f {
	case Image:
		return "image"
	case Video:
		return "video"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Family) UnmarshalText(b []byte) error {
	parsed, err := ParseFamily(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseFamily converts "image" or "video" into a Family.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image":
		return Image, nil
	case "video":
		return Video, nil
	}
	return 0, fmt.Errorf("unknown template family %q", s)
}

// ID identifies a template. The set is closed; every handler switches over
// all three values.
type ID int

const (
	Metropoles ID = iota + 1
	Choquei
	Classico
)

var idNames = map[ID]string{
	Metropoles: "metropoles",
	Choquei:    "choquei",
	Classico:   "classico",
}

func (id ID) String() string {
	if n, ok := idNames[id]; ok {
		return n
	}
	return fmt.Sprintf("template(%d)", int(id))
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	if _, ok := idNames[id]; !ok {
		return nil, fmt.Errorf("unknown template id %d", int(id))
	}
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseID resolves a template id by name.
func ParseID(s string) (ID, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for id, n := range idNames {
		if n == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown template %q", s)
}

// Descriptor describes one template within a family.
type Descriptor struct {
	ID        ID     `json:"id"`
	Label     string `json:"label"`
	SlotCount int    `json:"slots"`
	// HasText is false for templates that ignore the text fields.
	HasText bool `json:"hasText"`
}

var imageCatalog = []Descriptor{
	{ID: Metropoles, Label: "Metropoles", SlotCount: 1, HasText: true},
	{ID: Choquei, Label: "Choquei", SlotCount: 2, HasText: true},
}

var videoCatalog = []Descriptor{
	{ID: Metropoles, Label: "Metropoles", SlotCount: 1, HasText: true},
	{ID: Choquei, Label: "Choquei", SlotCount: 2, HasText: true},
	{ID: Classico, Label: "Clássico", SlotCount: 1, HasText: false},
}

// Catalog returns a copy of the template table for the family.
func Catalog(f Family) []Descriptor {
	var src []Descriptor
	if f == Video {
		src = videoCatalog
	} else {
		src = imageCatalog
	}
	out := make([]Descriptor, len(src))
	copy(out, src)
	return out
}

// Lookup returns the descriptor of id within family f.
func Lookup(f Family, id ID) (Descriptor, error) {
	for _, d := range Catalog(f) {
		if d.ID == id {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("template %s is not available for %s", id, f)
}

// SlotNames returns the slot keys a template with n slots requires.
func SlotNames(n int) []string {
	if n >= 2 {
		return []string{"left", "right"}
	}
	return []string{"left"}
}
