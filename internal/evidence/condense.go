package evidence

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	paragraphSplit   = regexp.MustCompile(`\n{2,}`)
	whitespaceSanity = regexp.MustCompile(`\s+`)
	pageMarker       = regexp.MustCompile(`^page \d+( of \d+)?$`)
)

// defaultKeywords mark paragraphs that usually settle a dispute.
var defaultKeywords = []string{
	"tracking",
	"delivered",
	"shipped",
	"signature",
	"invoice",
	"refund",
	"return",
	"order",
	"description",
	"photo",
}

type chunk struct {
	text  string
	score int
	index int
}

// Condense drops boilerplate and repeated paragraphs from text, ranks the remainder by how many
// keywords it mentions and emits at most budget runes. Ties keep document order.
func Condense(text string, keywords []string, budget int) string {
	if budget <= 0 {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	seen := map[string]bool{}
	var chunks []chunk
	for _, paragraph := range paragraphSplit.Split(text, -1) {
		trimmed := strings.TrimSpace(paragraph)
		if isBoilerplate(trimmed) {
			continue
		}
		hash := hashChunk(canonicalParagraph(trimmed))
		if seen[hash] {
			continue
		}
		seen[hash] = true
		chunks = append(chunks, chunk{text: trimmed, index: len(chunks)})
	}

	terms := normalizeKeywords(keywords)
	for i := range chunks {
		chunks[i].score = scoreChunk(chunks[i].text, terms)
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].score == chunks[j].score {
			return chunks[i].index < chunks[j].index
		}
		return chunks[i].score > chunks[j].score
	})
	return clipChunks(chunks, budget)
}

func normalizeKeywords(extra []string) []string {
	out := make([]string, 0, len(defaultKeywords)+len(extra))
	seen := map[string]bool{}
	for _, kw := range append(append([]string{}, defaultKeywords...), extra...) {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if len(kw) < 3 || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

func canonicalParagraph(text string) string {
	return strings.ToLower(whitespaceSanity.ReplaceAllString(strings.TrimSpace(text), " "))
}

func isBoilerplate(paragraph string) bool {
	lower := strings.ToLower(strings.TrimSpace(paragraph))
	if lower == "" {
		return true
	}
	switch {
	case pageMarker.MatchString(lower):
		return true
	case strings.HasPrefix(lower, "copyright"), strings.HasPrefix(lower, "©"):
		return true
	case strings.HasPrefix(lower, "terms and conditions"):
		return true
	case strings.Contains(lower, "all rights reserved"):
		return true
	case strings.Contains(lower, "unsubscribe"):
		return true
	}
	alpha := 0
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alpha++
		}
	}
	if len(lower) <= 3 {
		return true
	}
	if alpha*3 < len(lower) {
		return true
	}
	return false
}

func scoreChunk(text string, keywords []string) int {
	lower := strings.ToLower(text)
	score := 0
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			score++
		}
	}
	return score
}

func hashChunk(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

func clipChunks(chunks []chunk, budget int) string {
	var builder strings.Builder
	remaining := budget
	for _, c := range chunks {
		if remaining <= 0 {
			break
		}
		if builder.Len() > 0 {
			if remaining <= 2 {
				break
			}
			builder.WriteString("\n\n")
			remaining -= 2
		}
		runes := []rune(c.text)
		if len(runes) > remaining {
			builder.WriteString(string(runes[:remaining]))
			break
		}
		builder.WriteString(c.text)
		remaining -= len(runes)
	}
	return builder.String()
}
