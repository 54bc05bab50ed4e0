package evidence

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/csheth/disputedesk/internal/dispute"
)

func TestCondenseDeduplicatesAndSkipsBoilerplate(t *testing.T) {
	t.Parallel()

	text := strings.Join([]string{
		"Page 1 of 2",
		"Order #4411 shipped via USPS with tracking USP123456789.",
		"Thanks for shopping with us!",
		"Order   #4411 shipped via USPS with tracking USP123456789.",
		"© 2025 Acme. All rights reserved.",
		"----",
	}, "\n\n")

	got := Condense(text, []string{"USP123456789"}, 1_000)
	if strings.Count(got, "USP123456789") != 1 {
		t.Fatalf("duplicate paragraph kept:\n%s", got)
	}
	for _, unwanted := range []string{"Page 1", "rights reserved", "----"} {
		if strings.Contains(got, unwanted) {
			t.Fatalf("boilerplate %q kept:\n%s", unwanted, got)
		}
	}
	if !strings.HasPrefix(got, "Order #4411") {
		t.Fatalf("keyword-rich paragraph should lead:\n%s", got)
	}
	if !strings.Contains(got, "Thanks for shopping") {
		t.Fatalf("ordinary paragraph dropped:\n%s", got)
	}
}

func TestCondenseRespectsBudget(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("word ", 100) + "\n\n" + strings.Repeat("other ", 100)
	if got := Condense(text, nil, 50); len([]rune(got)) > 50 {
		t.Fatalf("excerpt exceeds budget: %d runes", len([]rune(got)))
	}
	if got := Condense(text, nil, 0); got != "" {
		t.Fatalf("zero budget should yield nothing, got %q", got)
	}
}

func TestExcerptWithoutEvidenceURL(t *testing.T) {
	t.Parallel()

	loader, err := New(Options{CacheDir: t.TempDir(), Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got, err := loader.Excerpt(context.Background(), dispute.SampleDisputes()[0])
	if err != nil || got != "" {
		t.Fatalf("expected empty excerpt, got %q, %v", got, err)
	}
}

func TestExcerptFromRemoteTextDocument(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("Packing slip\n\nWireless Headphones, black.\n\nDelivered to front porch, signature on file, tracking USP123456789."))
	}))
	t.Cleanup(server.Close)

	loader, err := New(Options{CacheDir: t.TempDir(), HTTPClient: server.Client(), Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	d := dispute.SampleDisputes()[0]
	d.Details.EvidenceURL = server.URL + "/slip.txt"

	got, err := loader.Excerpt(context.Background(), d)
	if err != nil {
		t.Fatalf("Excerpt() error = %v", err)
	}
	if !strings.HasPrefix(got, "Delivered to front porch") {
		t.Fatalf("delivery paragraph should rank first:\n%s", got)
	}
	if !strings.Contains(got, "Wireless Headphones") {
		t.Fatalf("item paragraph missing:\n%s", got)
	}
}

func TestExcerptFromLocalFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(path, []byte("Refund issued on 2025-02-10 for order 4411."), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	loader, err := New(Options{CacheDir: t.TempDir(), LocalDir: dir})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, ref := range []string{path, "file://" + path, "note.txt"} {
		d := dispute.SampleDisputes()[1]
		d.Details.EvidenceURL = ref
		got, err := loader.Excerpt(context.Background(), d)
		if err != nil {
			t.Fatalf("Excerpt(%s) error = %v", ref, err)
		}
		if got != "Refund issued on 2025-02-10 for order 4411." {
			t.Fatalf("Excerpt(%s) = %q", ref, got)
		}
	}
}

func TestExcerptRejectsBrokenDocuments(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(broken, []byte("%PDF-1.4\nnot really a pdf"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	binary := filepath.Join(dir, "image.bin")
	if err := os.WriteFile(binary, []byte{0xff, 0xfe, 0x00, 0x81}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	loader, err := New(Options{CacheDir: t.TempDir(), LocalDir: dir})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, ref := range []string{broken, binary, "ftp://example.com/x.pdf"} {
		d := dispute.SampleDisputes()[0]
		d.Details.EvidenceURL = ref
		if _, err := loader.Excerpt(context.Background(), d); err == nil {
			t.Fatalf("expected an error for %s", ref)
		}
	}
}

func TestExcerptRefusesFilesOutsideEvidenceDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	secret := filepath.Join(root, "credentials")
	if err := os.WriteFile(secret, []byte("aws_secret_access_key = SECRET123"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	evidenceDir := filepath.Join(root, "evidence")
	if err := os.Mkdir(evidenceDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	link := filepath.Join(evidenceDir, "slip.txt")
	if err := os.Symlink(secret, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	d := dispute.SampleDisputes()[0]
	d.Details.EvidenceURL = "file://" + secret
	remoteOnly, err := New(Options{CacheDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got, err := remoteOnly.Excerpt(context.Background(), d); !errors.Is(err, ErrLocalDisabled) || got != "" {
		t.Fatalf("Excerpt() = %q, %v; want ErrLocalDisabled", got, err)
	}

	confined, err := New(Options{CacheDir: t.TempDir(), LocalDir: evidenceDir})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, ref := range []string{secret, "file://" + secret, "../credentials", link} {
		d.Details.EvidenceURL = ref
		got, err := confined.Excerpt(context.Background(), d)
		if !errors.Is(err, ErrOutsideDir) || got != "" {
			t.Fatalf("Excerpt(%s) = %q, %v; want ErrOutsideDir", ref, got, err)
		}
	}
}
