package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// progressBar redraws a single status line. It is silent unless the
// destination is a terminal.
type progressBar struct {
	w     io.Writer
	width int
	label string
	last  int
}

func newProgressBar(f *os.File, label string) *progressBar {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	width := 30
	if cols, _, err := term.GetSize(fd); err == nil && cols > len(label)+20 {
		width = min(50, cols-len(label)-12)
	}
	return &progressBar{w: f, width: width, label: label, last: -1}
}

// Update draws fraction f in [0, 1]. A nil bar ignores updates.
func (p *progressBar) Update(f float64) {
	if p == nil {
		return
	}
	pct := int(f*100 + 0.5)
	pct = max(0, min(100, pct))
	if pct == p.last {
		return
	}
	p.last = pct
	filled := p.width * pct / 100
	fmt.Fprintf(p.w, "\r%s [%s%s] %3d%%", p.label, strings.Repeat("#", filled), strings.Repeat(".", p.width-filled), pct)
}

// Done ends the status line.
func (p *progressBar) Done() {
	if p == nil || p.last < 0 {
		return
	}
	fmt.Fprintln(p.w)
}
