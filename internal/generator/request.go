package generator

import (
	"fmt"
	"slices"
	"sort"

	"hotghost/internal/compositor"
	"hotghost/internal/effects"
	"hotghost/internal/media"
	"hotghost/internal/templates"
)

// TextSet is the optional text of a template; *bold* markup is allowed.
type TextSet = compositor.TextSet

// Slot names.
const (
	SlotLeft  = "left"
	SlotRight = "right"
)

// MediaSlot is one uploaded file.
type MediaSlot struct {
	Name        string
	ContentType string
	Data        []byte
}

// Request is everything a generation needs.
type Request struct {
	Family   templates.Family
	Template templates.ID
	// Slots is keyed by SlotLeft and SlotRight.
	Slots map[string]MediaSlot
	Texts TextSet
	// Effects is keyed like Slots. Missing entries use effects.Defaults.
	Effects map[string]effects.Settings
	// Replace is a result handle this generation supersedes. It is released
	// once the new result is registered.
	Replace string
}

func (r Request) effects(slot string) effects.Settings {
	if s, ok := r.Effects[slot]; ok {
		return s
	}
	return effects.Defaults()
}

// CanGenerate reports whether the template exists in the family and every
// slot it requires holds data. It does no other validation and never
// touches the engine.
func CanGenerate(r Request) bool {
	d, err := templates.Lookup(r.Family, r.Template)
	if err != nil {
		return false
	}
	for _, name := range templates.SlotNames(d.SlotCount) {
		if len(r.Slots[name].Data) == 0 {
			return false
		}
	}
	return true
}

// validated is a request that passed Validate.
type validated struct {
	Request
	desc  templates.Descriptor
	slots []string
	info  map[string]media.Info
}

// Validate checks the request fully: template, slots, payload types and
// effect ranges. Errors match ErrInputValidation.
func Validate(r Request) error {
	_, err := validate(r)
	return err
}

func validate(r Request) (*validated, error) {
	d, err := templates.Lookup(r.Family, r.Template)
	if err != nil {
		return nil, &InputError{Field: "template", Err: err}
	}
	v := &validated{
		Request: r,
		desc:    d,
		slots:   templates.SlotNames(d.SlotCount),
		info:    make(map[string]media.Info, d.SlotCount),
	}

	want := media.KindImage
	if r.Family == templates.Video {
		want = media.KindVideo
	}
	for _, name := range v.slots {
		slot, ok := r.Slots[name]
		if !ok || len(slot.Data) == 0 {
			return nil, &InputError{Field: name, Err: errMissingSlot}
		}
		info, err := media.Sniff(slot.Data, slot.ContentType, slot.Name)
		if err != nil {
			return nil, &InputError{Field: name, Err: err}
		}
		if info.Kind != want {
			return nil, &InputError{Field: name, Err: fmt.Errorf("%w: %s template needs %s, got %s",
				media.ErrKindMismatch, r.Family, want, info.MIME)}
		}
		v.info[name] = info
	}

	for _, name := range sortedKeys(r.Slots) {
		if !slices.Contains(v.slots, name) {
			return nil, &InputError{Field: name, Err: errUnknownSlot}
		}
	}
	for _, name := range sortedKeys(r.Effects) {
		if !slices.Contains(v.slots, name) {
			return nil, &InputError{Field: "effects." + name, Err: errUnknownSlot}
		}
		if err := effects.Validate(r.Effects[name], r.Family); err != nil {
			return nil, &InputError{Field: "effects." + name, Err: err}
		}
	}

	if !d.HasText {
		v.Texts = TextSet{}
	}
	return v, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v *validated) inputBytes() int64 {
	var n int64
	for _, name := range v.slots {
		n += int64(len(v.Slots[name].Data))
	}
	return n
}
