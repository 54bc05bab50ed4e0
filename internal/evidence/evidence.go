// Package evidence loads seller-side documents attached to a dispute and reduces them to a short
// excerpt that fits in a generation prompt.
package evidence

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/csheth/disputedesk/internal/dispute"
)

// DefaultBudget caps the excerpt length in runes.
const DefaultBudget = 8_000

var (
	// ErrLocalDisabled is returned for file references when no evidence directory is set.
	ErrLocalDisabled = errors.New("local evidence is disabled (no evidence directory configured)")
	// ErrOutsideDir is returned for file references that escape the evidence directory.
	ErrOutsideDir = errors.New("path is outside the evidence directory")
)

type Options struct {
	CacheDir string
	// LocalDir is the only directory file:// URLs and bare paths may point into. Dispute
	// records can come from a remote API, so local references are refused when it is empty.
	LocalDir   string
	Budget     int
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Loader resolves a dispute's evidence URL to condensed text. Remote documents go through an
// on-disk cache; file:// URLs and bare paths are read in place from LocalDir.
type Loader struct {
	cache    *docCache
	localDir string
	budget   int
	log      zerolog.Logger
}

func New(opts Options) (*Loader, error) {
	cache, err := newDocCache(opts.CacheDir, opts.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("evidence: cache: %w", err)
	}
	budget := opts.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}
	var localDir string
	if dir := strings.TrimSpace(opts.LocalDir); dir != "" {
		if localDir, err = canonicalPath(dir); err != nil {
			return nil, fmt.Errorf("evidence: local dir: %w", err)
		}
	}
	return &Loader{cache: cache, localDir: localDir, budget: budget, log: opts.Logger}, nil
}

// Excerpt returns the condensed evidence for d, or "" when none is attached.
func (l *Loader) Excerpt(ctx context.Context, d dispute.Dispute) (string, error) {
	ref := strings.TrimSpace(d.Details.EvidenceURL)
	if ref == "" {
		return "", nil
	}
	local, err := l.resolve(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("evidence: fetch %s: %w", ref, err)
	}
	text, err := extractText(local)
	if err != nil {
		return "", fmt.Errorf("evidence: extract %s: %w", ref, err)
	}
	excerpt := Condense(text, keywordsFor(d), l.budget)
	l.log.Debug().
		Str("dispute_id", d.ID).
		Str("source", ref).
		Int("chars", len(text)).
		Int("excerpt_chars", len(excerpt)).
		Msg("evidence condensed")
	return excerpt, nil
}

func (l *Loader) resolve(ctx context.Context, ref string) (string, error) {
	parsed, err := url.Parse(ref)
	if err != nil || parsed.Scheme == "" {
		return l.localPath(ref)
	}
	switch parsed.Scheme {
	case "http", "https":
		return l.cache.Fetch(ctx, ref)
	case "file":
		return l.localPath(parsed.Path)
	default:
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
}

// localPath maps a file reference into LocalDir. Relative paths are taken from LocalDir and
// symlinks are resolved before the containment check.
func (l *Loader) localPath(ref string) (string, error) {
	if l.localDir == "" {
		return "", ErrLocalDisabled
	}
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.localDir, path)
	}
	resolved, err := canonicalPath(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(l.localDir, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideDir
	}
	return resolved, nil
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// keywordsFor boosts paragraphs that mention this dispute's own identifiers.
func keywordsFor(d dispute.Dispute) []string {
	keywords := []string{d.ID, d.Details.TrackingNumber, d.Details.ShippingCarrier}
	keywords = append(keywords, strings.Fields(d.Details.Order.ItemName)...)
	return keywords
}
