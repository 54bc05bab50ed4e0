// Package journal keeps a local, append-only record of every response handed to the dispute
// API, so an operator can see what was sent after the fact.
package journal

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	EntrySubmitted = "submitted"
	EntryFailed    = "failed"
)

// Entry is one submission attempt.
type Entry struct {
	EntryType string    `json:"entryType"`
	DisputeID string    `json:"disputeId"`
	RequestID string    `json:"requestId,omitempty"`
	Text      string    `json:"text"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

type entryHeader struct {
	EntryType string `json:"entryType"`
}

// Append adds entries to the journal file, creating it if necessary.
func Append(path string, newEntries ...Entry) error {
	if len(newEntries) == 0 {
		return nil
	}
	raws := make([]json.RawMessage, 0, len(newEntries))
	for _, entry := range newEntries {
		raw, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		raws = append(raws, raw)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	entries, err := loadEntries(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		entries = nil
	}
	return writeEntries(path, append(entries, raws...))
}

// Load returns every known entry, oldest first. Entries of types this version does not know
// are skipped. A missing file is an empty journal.
func Load(path string) ([]Entry, error) {
	raws, err := loadEntries(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		entryType, err := detectEntryType(raw)
		if err != nil {
			return nil, err
		}
		if entryType != EntrySubmitted && entryType != EntryFailed {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].At.Before(entries[j].At) })
	return entries, nil
}

// ForDispute filters entries down to one dispute.
func ForDispute(entries []Entry, disputeID string) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.DisputeID == disputeID {
			out = append(out, e)
		}
	}
	return out
}

func writeEntries(path string, entries []json.RawMessage) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func loadEntries(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func detectEntryType(raw json.RawMessage) (string, error) {
	var header entryHeader
	if err := json.Unmarshal(raw, &header); err != nil {
		return "", err
	}
	return header.EntryType, nil
}
