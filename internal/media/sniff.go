package media

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrNotMedia is returned when a payload is neither an image nor a video.
	ErrNotMedia = errors.New("payload is not an image or video")
	// ErrKindMismatch is returned when the payload contradicts its declared type.
	ErrKindMismatch = errors.New("payload does not match declared media type")
	// ErrEmpty is returned for zero-length payloads.
	ErrEmpty = errors.New("empty payload")
)

// Info describes a sniffed payload.
type Info struct {
	MIME      string
	Extension string
	Kind      Kind
}

// Sniff detects the real type of data. When declared is non-empty its kind
// must agree with the detected kind; otherwise the filename extension is
// checked the same way.
func Sniff(data []byte, declared, filename string) (Info, error) {
	if len(data) == 0 {
		return Info{}, ErrEmpty
	}

	mt := mimetype.Detect(data)
	info := Info{MIME: mt.String(), Extension: mt.Extension(), Kind: kindOf(mt)}

	want := KindFromMIME(declared)
	if want == KindOther && filename != "" {
		want = KindFromName(filename)
	}

	if info.Kind == KindOther {
		return Info{}, fmt.Errorf("%w: detected %s", ErrNotMedia, info.MIME)
	}
	if want != KindOther && want != info.Kind {
		return Info{}, fmt.Errorf("%w: declared %s, detected %s", ErrKindMismatch, want, info.MIME)
	}
	return info, nil
}

func kindOf(mt *mimetype.MIME) Kind {
	for m := mt; m != nil; m = m.Parent() {
		if k := KindFromMIME(m.String()); k != KindOther {
			return k
		}
	}
	return KindOther
}
