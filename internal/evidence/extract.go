package evidence

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const maxTextFileBytes = 4 << 20

var (
	pdfMagic             = []byte("%PDF-")
	extraneousWhitespace = regexp.MustCompile(`[ \t]+`)
)

// extractText returns the plain text of a cached document. PDFs are detected by their header,
// anything else must be UTF-8 text.
func extractText(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	head := make([]byte, len(pdfMagic))
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	if bytes.Equal(head[:n], pdfMagic) {
		return extractPDFText(path)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	data, err := io.ReadAll(io.LimitReader(file, maxTextFileBytes))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("evidence: %s is neither a PDF nor UTF-8 text", path)
	}
	return normalizeText(string(data)), nil
}

func extractPDFText(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var builder strings.Builder
	if _, err := io.Copy(&builder, content); err != nil {
		return "", err
	}
	return normalizeText(builder.String()), nil
}

func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = extraneousWhitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
