// Package assets resolves the fixed, bundled assets the templates draw on:
// the two logos, the low-opacity texture loop, the intro still and the
// closing video.
//
// Assets live in one directory and are looked up by stable id. Each id
// accepts a few file names so that both descriptive names and the legacy
// bundle names work. Missing logos are replaced by a
// generated placeholder so still images can render on a bare install.
package assets

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"sync"

	"hotghost/internal/filesystem"
	"hotghost/internal/logging"
	"hotghost/internal/media"
	"hotghost/internal/textlayout"
)

// ID names a bundled asset.
type ID string

const (
	LogoMetropoles ID = "logo-metropoles"
	LogoChoquei    ID = "logo-choquei"
	Texture        ID = "texture"
	IntroStill     ID = "intro-still"
	ClosingVideo   ID = "closing-video"
)

// All lists every asset id in a stable order.
var All = []ID{LogoMetropoles, LogoChoquei, Texture, IntroStill, ClosingVideo}

var candidates = map[ID][]string{
	LogoMetropoles: {"logo-metropoles.webp", "logo-metropoles.png"},
	LogoChoquei:    {"logo-choquei.png", "logo-choquei.webp"},
	Texture:        {"texture.mp4", "transparencia.mp4"},
	IntroStill:     {"intro-still.png", "milisegundos.png"},
	ClosingVideo:   {"closing-video.mp4", "relogio.mp4"},
}

// ErrMissing is returned when an asset has no file on disk.
var ErrMissing = errors.New("asset not found")

// Status reports where an asset resolved to.
type Status struct {
	ID      ID     `json:"id"`
	Path    string `json:"path,omitempty"`
	Present bool   `json:"present"`
	// Placeholder is true for logos that will be generated on demand.
	Placeholder bool `json:"placeholder,omitempty"`
}

// Store resolves and caches assets from a directory.
type Store struct {
	dir  string
	text *textlayout.Engine

	mu     sync.Mutex
	images map[ID]image.Image
}

// New returns a Store reading from dir. text renders placeholder labels and
// may be nil, in which case placeholders carry no label.
func New(dir string, text *textlayout.Engine) *Store {
	return &Store{dir: dir, text: text, images: make(map[ID]image.Image)}
}

// Dir returns the asset directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute path of an asset file.
func (s *Store) Path(id ID) (string, error) {
	names, ok := candidates[id]
	if !ok {
		return "", fmt.Errorf("unknown asset %q", id)
	}
	for _, name := range names {
		p := filepath.Join(s.dir, name)
		if info, err := filesystem.StatWithRetry(p, filesystem.DefaultRetryConfig()); err == nil && !info.IsDir() {
			abs, err := filepath.Abs(p)
			if err != nil {
				return p, nil
			}
			return abs, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", ErrMissing, id, s.dir)
}

// Image returns a decoded raster asset. Logos fall back to a placeholder
// when their file is missing or unreadable; other ids return the error.
func (s *Store) Image(id ID) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if img, ok := s.images[id]; ok {
		return img, nil
	}

	img, err := s.load(id)
	if err != nil {
		if !isLogo(id) {
			return nil, err
		}
		logging.Warn("Logo %s unavailable (%v), using placeholder", id, err)
		img = s.placeholder(id)
	}
	s.images[id] = img
	return img, nil
}

func (s *Store) load(id ID) (image.Image, error) {
	p, err := s.Path(id)
	if err != nil {
		return nil, err
	}
	data, err := filesystem.ReadFileWithRetry(p, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", id, err)
	}
	img, err := media.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode asset %s: %w", id, err)
	}
	return img, nil
}

func isLogo(id ID) bool {
	return id == LogoMetropoles || id == LogoChoquei
}

// placeholder renders a flat badge with the asset name.
func (s *Store) placeholder(id ID) image.Image {
	w, h := 800, 160
	bg := color.NRGBA{R: 0xC8, G: 0x10, B: 0x2E, A: 0xFF}
	label := "METROPOLES"
	if id == LogoChoquei {
		w, h = 400, 400
		bg = color.NRGBA{R: 0xF2, G: 0xB7, B: 0x05, A: 0xFF}
		label = "CHOQUEI"
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	if s.text != nil {
		s.text.DrawLine(img, "*"+label+"*", float64(w)/2, float64(h)/2, float64(h)/4, color.White, textlayout.AlignCenter)
	}
	return img
}

// Check reports the resolution state of every asset.
func (s *Store) Check() []Status {
	out := make([]Status, 0, len(All))
	for _, id := range All {
		st := Status{ID: id}
		if p, err := s.Path(id); err == nil {
			st.Path = p
			st.Present = true
		} else if isLogo(id) {
			st.Placeholder = true
		}
		out = append(out, st)
	}
	return out
}

// VideoReady reports whether every asset the video templates need exists.
func (s *Store) VideoReady() error {
	for _, id := range []ID{Texture, IntroStill, ClosingVideo} {
		if _, err := s.Path(id); err != nil {
			return err
		}
	}
	return nil
}

// Font files looked up under the asset directory.
const (
	RegularFont = "fonts/regular.ttf"
	BoldFont    = "fonts/bold.ttf"
)

// TextEngine builds the text engine from the bundled fonts in dir. When
// either file is missing or unparsable the built-in Go fonts are used.
func TextEngine(dir string) *textlayout.Engine {
	cfg := filesystem.DefaultRetryConfig()
	regular, err := filesystem.ReadFileWithRetry(filepath.Join(dir, RegularFont), cfg)
	if err != nil {
		logging.Debug("Bundled fonts unavailable (%v), using built-in fonts", err)
		return textlayout.NewDefault()
	}
	bold, err := filesystem.ReadFileWithRetry(filepath.Join(dir, BoldFont), cfg)
	if err != nil {
		bold = regular
	}
	eng, err := textlayout.New(regular, bold)
	if err != nil {
		logging.Warn("Bundled fonts unusable (%v), using built-in fonts", err)
		return textlayout.NewDefault()
	}
	return eng
}
