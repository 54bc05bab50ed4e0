package tuitest

import (
	"bytes"
	"testing"
)

func TestParseFramesSplitsOnClear(t *testing.T) {
	t.Parallel()

	raw := []byte("\x1b[2J\x1b[H\x1b[1mDisputes\x1b[0m   \r\nPP-D-1234\r\n\x1b[2J\x1b[HResponse for PP-D-1234\r\n\r\n")
	frames := parseFrames(raw)
	if len(frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(frames))
	}
	if frames[0].Plain != "Disputes\nPP-D-1234" {
		t.Fatalf("first frame = %q", frames[0].Plain)
	}
	rec := &Recording{Frames: frames}
	final, ok := rec.FinalFrame()
	if !ok || !final.Contains("Response for PP-D-1234") || final.Index != 1 {
		t.Fatalf("final frame = %+v", final)
	}
	if !rec.Contains("PP-D-1234") || rec.Contains("PP-D-9999") {
		t.Fatal("Recording.Contains mismatch")
	}
}

func TestStripANSIHandlesEverySequenceKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"sgr", "\x1b[1;38;5;212mOVERDUE\x1b[0m", "OVERDUE"},
		{"private mode", "\x1b[?25lDue\x1b[?25h", "Due"},
		{"osc bell", "\x1b]0;DisputeDesk\x07PP-D-1", "PP-D-1"},
		{"osc st", "\x1b]8;;https://example.com\x1b\\link\x1b]8;;\x1b\\", "link"},
		{"charset", "\x1b(BAmount\x0f", "Amount"},
		{"cut off", "Buyer\x1b[38;5", "Buyer"},
		{"carriage return", "line\r\nnext", "line\nnext"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := stripANSI(tt.in); got != tt.want {
				t.Fatalf("stripANSI(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFramesWithoutClearIsOneFrame(t *testing.T) {
	t.Parallel()

	frames := parseFrames([]byte("\x1b[?25lDisputes\r\n\x1b[2K\x1b[1AResponse submitted for PP-D-2001.\r\n"))
	if len(frames) != 1 || !frames[0].Contains("Response submitted for PP-D-2001.") {
		t.Fatalf("frames = %+v", frames)
	}
	if parseFrames([]byte("\x1b[2J\x1b[H   \r\n")) != nil {
		t.Fatal("blank screens should not produce frames")
	}
}

func TestResponderAnswersQueriesInOrder(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	tr := newTerminalResponder(&out)
	tr.Process([]byte("\x1b]11;?\x07noise\x1b["))
	tr.Process([]byte("6n"))

	want := "\x1b]11;rgb:0000/0000/0000\x07\x1b[1;1R"
	if out.String() != want {
		t.Fatalf("replies = %q, want %q", out.String(), want)
	}
}

func TestCaptureContainsIgnoresStyling(t *testing.T) {
	t.Parallel()

	c := &capture{}
	c.Write([]byte("\x1b[38;5;81mDis"))
	c.Write([]byte("putes\x1b[0m"))
	if !c.Contains("Disputes") {
		t.Fatal("capture should match across writes once styling is stripped")
	}
}
