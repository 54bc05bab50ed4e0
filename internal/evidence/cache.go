package evidence

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const (
	cacheEnvVar        = "DISPUTEDESK_CACHE_DIR"
	cacheSubdir        = "disputedesk/evidence"
	cacheTTL           = 24 * time.Hour
	maxDocumentBytes   = 32 << 20
	defaultHTTPTimeout = 30 * time.Second
)

var (
	errDocumentTooLarge = fmt.Errorf("evidence document is larger than %d MiB", maxDocumentBytes>>20)
	// errNotEvidence covers HTML answers, which are login walls or error pages rather than
	// receipts, labels or photos of the item.
	errNotEvidence = errors.New("evidence URL returned a web page, not a document")
)

// docCache keeps downloaded evidence on disk so repeated drafts for the same dispute do not
// refetch it. Entries are revalidated with the server's validators after cacheTTL.
type docCache struct {
	dir    string
	client *http.Client
}

// cacheEntry is the set of files backing one evidence URL.
type cacheEntry struct {
	url     string
	doc     string
	meta    string
	partial string
}

type entryMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"lastModified"`
	ContentType  string    `json:"contentType"`
	CachedAt     time.Time `json:"cachedAt"`
	Size         int64     `json:"size"`
}

// validator returns the value for If-Range, preferring the strong ETag.
func (m entryMeta) validator() string {
	if m.ETag != "" {
		return m.ETag
	}
	return m.LastModified
}

// newDocCache stores documents under dir, falling back to $DISPUTEDESK_CACHE_DIR and then the
// user cache directory.
func newDocCache(dir string, client *http.Client) (*docCache, error) {
	if dir == "" {
		dir = os.Getenv(cacheEnvVar)
	}
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = filepath.Join(os.TempDir(), "disputedesk-cache")
		}
		dir = filepath.Join(base, cacheSubdir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &docCache{dir: dir, client: client}, nil
}

func (c *docCache) entry(docURL string) cacheEntry {
	base := filepath.Join(c.dir, cacheKey(docURL))
	return cacheEntry{url: docURL, doc: base + ".doc", meta: base + ".meta", partial: base + ".part"}
}

// Fetch returns the local path of the document at docURL. A copy younger than cacheTTL is used
// as is; an older one is revalidated, and served stale when the server cannot be reached.
func (c *docCache) Fetch(ctx context.Context, docURL string) (string, error) {
	e := c.entry(docURL)
	cached, err := os.Stat(e.doc)
	haveCopy := err == nil && cached.Size() > 0
	if haveCopy && time.Since(cached.ModTime()) < cacheTTL {
		return e.doc, nil
	}

	meta, _ := e.loadMeta()
	if err := c.refresh(ctx, e, meta, haveCopy); err != nil {
		if haveCopy {
			return e.doc, nil
		}
		return "", err
	}
	return e.doc, nil
}

// refresh brings e.doc up to date. With a local copy the request is conditional; with a
// leftover partial download it asks for the remaining bytes only.
func (c *docCache) refresh(ctx context.Context, e cacheEntry, meta entryMeta, haveCopy bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url, nil)
	if err != nil {
		return err
	}
	if haveCopy {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}
	resumeFrom := e.partialSize()
	if resumeFrom > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", resumeFrom))
		if v := meta.validator(); v != "" {
			req.Header.Set("If-Range", v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		if !haveCopy {
			return c.refresh(ctx, e, entryMeta{}, false)
		}
		now := time.Now()
		_ = os.Chtimes(e.doc, now, now)
		meta.CachedAt = now.UTC()
		return e.saveMeta(meta)
	case http.StatusOK:
		return e.store(resp, 0)
	case http.StatusPartialContent:
		return e.store(resp, resumeFrom)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("evidence download failed: %s (%s)", resp.Status, strings.TrimSpace(string(body)))
	}
}

// store writes the response body into the partial file, starting at offset, and moves the
// completed file into place.
func (e cacheEntry) store(resp *http.Response, offset int64) error {
	contentType := resp.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == "text/html" {
		return errNotEvidence
	}
	if resp.ContentLength > maxDocumentBytes-offset {
		return errDocumentTooLarge
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if offset > 0 {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(e.partial, flags, 0o644)
	if err != nil {
		return err
	}
	limit := maxDocumentBytes - offset
	written, err := io.Copy(file, io.LimitReader(resp.Body, limit+1))
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err == nil && written > limit {
		err = errDocumentTooLarge
	}
	if err != nil {
		if errors.Is(err, errDocumentTooLarge) {
			_ = os.Remove(e.partial)
		}
		return err
	}
	if err := os.Rename(e.partial, e.doc); err != nil {
		return err
	}

	meta := entryMeta{
		URL:          e.url,
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
		ContentType:  contentType,
		CachedAt:     time.Now().UTC(),
		Size:         offset + written,
	}
	return e.saveMeta(meta)
}

func (e cacheEntry) partialSize() int64 {
	info, err := os.Stat(e.partial)
	if err != nil {
		return 0
	}
	return info.Size()
}

func (e cacheEntry) loadMeta() (entryMeta, error) {
	data, err := os.ReadFile(e.meta)
	if err != nil {
		return entryMeta{}, err
	}
	var meta entryMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return entryMeta{}, err
	}
	return meta, nil
}

func (e cacheEntry) saveMeta(meta entryMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(e.meta, data, 0o644)
}

// cacheKey keeps a readable stem from the URL and disambiguates it with a hash.
func cacheKey(docURL string) string {
	sum := sha1.Sum([]byte(docURL))
	hash := hex.EncodeToString(sum[:])[:12]
	stem := sanitizeKey(strings.TrimSuffix(path.Base(docURL), path.Ext(docURL)))
	if stem == "" || stem == "." || stem == "-" {
		return hash
	}
	return stem + "-" + hash
}

func sanitizeKey(value string) string {
	value = strings.TrimSpace(value)
	if i := strings.IndexAny(value, "?#"); i >= 0 {
		value = value[:i]
	}
	value = strings.NewReplacer("/", "-", ":", "-", "..", "-").Replace(value)
	if len(value) > 48 {
		value = value[:48]
	}
	return value
}
