package tuitest

import (
	"strings"
)

// Frame is the screen between two erase-display sequences, raw and as plain text.
type Frame struct {
	Index int
	ANSI  string
	Plain string
}

// Contains reports whether the frame shows text once styling is stripped.
func (f Frame) Contains(text string) bool {
	return strings.Contains(f.Plain, text)
}

// FinalFrame returns the last captured frame. The second return value is false
// when no frames were recorded.
func (r *Recording) FinalFrame() (Frame, bool) {
	if r == nil || len(r.Frames) == 0 {
		return Frame{}, false
	}
	return r.Frames[len(r.Frames)-1], true
}

// parseFrames splits a PTY stream on CSI J. Frames with no visible text are dropped. An
// inline program that never clears the screen yields a single frame.
func parseFrames(raw []byte) []Frame {
	stream := string(raw)
	var (
		frames []Frame
		plain  strings.Builder
		start  int
	)
	flush := func(end int) {
		text := normalizeLines(plain.String())
		plain.Reset()
		if strings.TrimSpace(text) == "" {
			return
		}
		frames = append(frames, Frame{Index: len(frames), ANSI: stream[start:end], Plain: text})
	}
	scanANSI(stream,
		func(text string) { plain.WriteString(text) },
		func(from, to int, csiFinal byte) {
			if csiFinal == 'J' {
				flush(from)
				start = to
			}
		},
	)
	flush(len(stream))
	return frames
}

func stripANSI(s string) string {
	var b strings.Builder
	scanANSI(s, func(text string) { b.WriteString(text) }, func(int, int, byte) {})
	return b.String()
}

// scanANSI walks s once. Printable runs go to text; each escape sequence is reported by its
// byte range, with the final byte when it is a CSI sequence. Carriage returns, NULs and
// charset shifts are dropped. A sequence cut off at the end of s swallows the remainder.
func scanANSI(s string, text func(string), seq func(from, to int, csiFinal byte)) {
	for i := 0; i < len(s); {
		switch c := s[i]; {
		case c == 0x1b:
			n, final := escapeLen(s[i:])
			seq(i, i+n, final)
			i += n
		case ignoredControl(c):
			i++
		default:
			j := i + 1
			for j < len(s) && s[j] != 0x1b && !ignoredControl(s[j]) {
				j++
			}
			text(s[i:j])
			i = j
		}
	}
}

func ignoredControl(c byte) bool {
	return c == '\r' || c == 0x00 || c == 0x0e || c == 0x0f
}

// escapeLen measures the sequence at the start of s, which begins with ESC.
func escapeLen(s string) (int, byte) {
	if len(s) < 2 {
		return len(s), 0
	}
	switch s[1] {
	case '[':
		for j := 2; j < len(s); j++ {
			if s[j] >= 0x40 && s[j] <= 0x7e {
				return j + 1, s[j]
			}
		}
		return len(s), 0
	case ']', 'P', 'X', '^', '_':
		for j := 2; j < len(s); j++ {
			if s[j] == 0x07 && s[1] == ']' {
				return j + 1, 0
			}
			if s[j] == 0x1b && j+1 < len(s) && s[j+1] == '\\' {
				return j + 2, 0
			}
		}
		return len(s), 0
	default:
		j := 1
		for j < len(s) && s[j] >= 0x20 && s[j] <= 0x2f {
			j++
		}
		if j < len(s) {
			return j + 1, 0
		}
		return len(s), 0
	}
}

func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
