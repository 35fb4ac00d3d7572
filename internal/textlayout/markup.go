package textlayout

import (
	"regexp"
	"strings"
	"unicode"
)

// Run is a contiguous piece of text drawn with a single weight.
type Run struct {
	Text string
	Bold bool
}

var boldPattern = regexp.MustCompile(`\*[^*]+\*`)

// ParseRuns splits text into alternating normal and bold runs. A bold run is
// a pair of asterisks enclosing at least one non-asterisk character; the
// markers are dropped. Asterisks that do not form such a pair stay in the
// text literally, so "***" is one normal run and "**b**" yields "*", bold
// "b", "*".
func ParseRuns(text string) []Run {
	var runs []Run
	last := 0
	for _, loc := range boldPattern.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			runs = append(runs, Run{Text: text[last:loc[0]]})
		}
		runs = append(runs, Run{Text: text[loc[0]+1 : loc[1]-1], Bold: true})
		last = loc[1]
	}
	if last < len(text) {
		runs = append(runs, Run{Text: text[last:]})
	}
	return runs
}

// Line is one wrapped line as weighted runs.
type Line []Run

// String renders the line back into markup.
func (l Line) String() string {
	var b strings.Builder
	for _, r := range l {
		if r.Bold {
			b.WriteString("*" + r.Text + "*")
			continue
		}
		b.WriteString(r.Text)
	}
	return b.String()
}

func (l Line) add(r Run) Line {
	if r.Text == "" {
		return l
	}
	if n := len(l); n > 0 && l[n-1].Bold == r.Bold {
		l[n-1].Text += r.Text
		return l
	}
	return append(l, r)
}

// word is a whitespace-delimited piece of text. A word may mix weights,
// as in "foo*bar*". gapBold is the weight of the whitespace before it.
type word struct {
	segs    []Run
	gapBold bool
}

// splitWords breaks runs on whitespace, keeping each character's weight.
func splitWords(runs []Run) []word {
	var (
		words   []word
		cur     *word
		gapBold bool
	)
	for _, run := range runs {
		for _, r := range run.Text {
			if unicode.IsSpace(r) {
				if cur != nil {
					words = append(words, *cur)
					cur = nil
				}
				gapBold = run.Bold
				continue
			}
			if cur == nil {
				cur = &word{gapBold: gapBold}
			}
			cur.segs = Line(cur.segs).add(Run{Text: string(r), Bold: run.Bold})
		}
	}
	if cur != nil {
		words = append(words, *cur)
	}
	return words
}

// joinWords lays words out on one line separated by single spaces. A space
// inside a bold run stays bold.
func joinWords(words []word) Line {
	var l Line
	for i, w := range words {
		if i > 0 {
			l = l.add(Run{Text: " ", Bold: w.gapBold})
		}
		for _, s := range w.segs {
			l = l.add(s)
		}
	}
	return l
}
