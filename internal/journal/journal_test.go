package journal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/csheth/disputedesk/internal/desk"
)

type stubSink struct {
	err   error
	calls int
}

func (s *stubSink) SubmitResponse(context.Context, desk.Submission) error {
	s.calls++
	return s.err
}

func TestSinkRecordsOutcomes(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "journal.json")
	next := &stubSink{}
	clock := time.Date(2025, time.February, 9, 12, 0, 0, 0, time.UTC)
	sink := &Sink{Next: next, Path: path, Log: zerolog.Nop(), Now: func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}}

	if err := sink.SubmitResponse(context.Background(), desk.Submission{DisputeID: "PP-D-1234", Text: "We shipped it.", RequestID: "req-1"}); err != nil {
		t.Fatalf("SubmitResponse() error = %v", err)
	}
	next.err = errors.New("503 service unavailable")
	if err := sink.SubmitResponse(context.Background(), desk.Submission{DisputeID: "PP-D-5678", Text: "Sorry about the colour."}); !errors.Is(err, next.err) {
		t.Fatalf("SubmitResponse() error = %v, want the sink's error", err)
	}

	entries, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].EntryType != EntrySubmitted || entries[0].Text != "We shipped it." || entries[0].RequestID != "req-1" {
		t.Fatalf("first entry = %+v", entries[0])
	}
	if entries[1].EntryType != EntryFailed || entries[1].Error != "503 service unavailable" {
		t.Fatalf("second entry = %+v", entries[1])
	}
	if got := ForDispute(entries, "PP-D-5678"); len(got) != 1 || got[0].DisputeID != "PP-D-5678" {
		t.Fatalf("ForDispute() = %+v", got)
	}
}

func TestJournalWriteFailureDoesNotFailSubmission(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	next := &stubSink{}
	sink := &Sink{Next: next, Path: filepath.Join(blocker, "journal.json"), Log: zerolog.Nop()}
	if err := sink.SubmitResponse(context.Background(), desk.Submission{DisputeID: "PP-D-1234", Text: "text"}); err != nil {
		t.Fatalf("journal errors must not surface: %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("next sink calls = %d", next.calls)
	}
}

func TestLoadSkipsUnknownEntriesAndMissingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if entries, err := Load(filepath.Join(dir, "absent.json")); err != nil || entries != nil {
		t.Fatalf("Load(missing) = %v, %v", entries, err)
	}

	path := filepath.Join(dir, "journal.json")
	raw := `[
  {"entryType": "note", "body": "legacy"},
  {"entryType": "submitted", "disputeId": "PP-D-2", "text": "b", "at": "2025-02-10T00:00:00Z"},
  {"entryType": "submitted", "disputeId": "PP-D-1", "text": "a", "at": "2025-02-09T00:00:00Z"}
]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write journal: %v", err)
	}
	entries, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(entries) != 2 || entries[0].DisputeID != "PP-D-1" {
		t.Fatalf("entries should be known types, oldest first: %+v", entries)
	}
}
