// Package caption turns generated response text into timed caption cues and the
// drawtext filter chain that renders them.
package caption

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Canvas and cadence of the rendered caption track.
const (
	Width     = 1280
	Height    = 720
	FrameRate = 30

	// SentenceInterval is the slot each sentence occupies on the timeline.
	SentenceInterval = 3 * time.Second
	// DisplayDuration is how long a sentence stays on screen within its slot.
	DisplayDuration = 2500 * time.Millisecond
)

// ErrNoSentences is returned when there is nothing to render.
var ErrNoSentences = errors.New("caption: no sentences to render")

// Cue is one sentence with its display window.
type Cue struct {
	Index int
	Text  string
	Start time.Duration
	End   time.Duration
}

// SplitSentences splits text on '.', '!' and '?', trimming whitespace and
// dropping empty fragments.
func SplitSentences(text string) []string {
	fragments := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	sentences := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if s := strings.TrimSpace(f); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// BuildCues assigns sentence i the window [3i, 3i+2.5] seconds.
func BuildCues(sentences []string) []Cue {
	cues := make([]Cue, len(sentences))
	for i, s := range sentences {
		start := time.Duration(i) * SentenceInterval
		cues[i] = Cue{
			Index: i,
			Text:  s,
			Start: start,
			End:   start + DisplayDuration,
		}
	}
	return cues
}

// TotalDuration is the length of a caption track holding n sentences.
func TotalDuration(n int) time.Duration {
	return time.Duration(n) * SentenceInterval
}

// optionEscaper escapes the characters the filter option parser treats as
// special.
var optionEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)

// EscapeText prepares text for a single-quoted drawtext argument. The filter
// string is unescaped twice, once by the graph parser and once by the option
// parser. Inside the graph level quotes a quote cannot be escaped, so it
// closes the quoted run, emits an escaped quote and reopens.
func EscapeText(s string) string {
	return strings.ReplaceAll(optionEscaper.Replace(s), `'`, `'\''`)
}

// Style controls how each cue is drawn.
type Style struct {
	FontFile string
	FontSize int
}

// DefaultStyle is white 48px text on a half transparent black box.
var DefaultStyle = Style{FontSize: 48}

// Filter builds the comma separated drawtext chain for cues.
func Filter(cues []Cue, style Style) (string, error) {
	if len(cues) == 0 {
		return "", ErrNoSentences
	}
	if style.FontSize <= 0 {
		style.FontSize = DefaultStyle.FontSize
	}

	parts := make([]string, 0, len(cues))
	for _, c := range cues {
		var b strings.Builder
		b.WriteString("drawtext=")
		if style.FontFile != "" {
			fmt.Fprintf(&b, "fontfile='%s':", EscapeText(style.FontFile))
		}
		fmt.Fprintf(&b, "text='%s':expansion=none", EscapeText(c.Text))
		fmt.Fprintf(&b, ":fontcolor=white:fontsize=%d", style.FontSize)
		b.WriteString(":box=1:boxcolor=black@0.5:boxborderw=10")
		b.WriteString(":x=(w-text_w)/2:y=(h-text_h)/2")
		fmt.Fprintf(&b, ":enable='between(t,%s,%s)'", Seconds(c.Start), Seconds(c.End))
		parts = append(parts, b.String())
	}
	return strings.Join(parts, ","), nil
}

// Seconds formats d as a decimal second count without trailing zeros.
func Seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
