// Package loader reads policy files from disk and extracts their raw text.
// Load failures are structural, never transient, so there are no retries:
// the indexer decides whether to skip or abort.
package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/skywise-ai/skywise/engine/policy"
)

// Load reads the file at path, detects its format and owning airline from
// the path, and returns the extracted text.
func Load(path string) (policy.Document, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return policy.Document{}, err
	}
	airline, err := DetectAirline(path)
	if err != nil {
		return policy.Document{}, fmt.Errorf("%w: %s: %v", policy.ErrLoad, path, err)
	}
	var text string
	switch format {
	case policy.FormatPDF:
		text, err = extractPDF(path)
	default:
		text, err = extractPlain(path)
	}
	if err != nil {
		return policy.Document{}, err
	}
	if strings.TrimSpace(text) == "" {
		return policy.Document{}, fmt.Errorf("%w: %s", policy.ErrUnsupportedDocument, path)
	}
	return policy.Document{
		Path:    path,
		Airline: airline,
		Format:  format,
		Text:    text,
	}, nil
}

// DetectFormat resolves the document format from the file extension, falling
// back to content sniffing for extensionless files.
func DetectFormat(path string) (policy.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return policy.FormatMarkdown, nil
	case ".txt":
		return policy.FormatText, nil
	case ".pdf":
		return policy.FormatPDF, nil
	case "":
		return sniffFormat(path)
	default:
		return "", fmt.Errorf("%w: %s: unsupported file type %q", policy.ErrLoad, path, filepath.Ext(path))
	}
}

func sniffFormat(path string) (policy.Format, error) {
	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", policy.ErrLoad, path, err)
	}
	switch {
	case mime.Is("application/pdf"):
		return policy.FormatPDF, nil
	case mime.Is("text/plain"), mime.Is("text/markdown"):
		return policy.FormatText, nil
	default:
		return "", fmt.Errorf("%w: %s: unsupported content type %q", policy.ErrLoad, path, mime.String())
	}
}

// DetectAirline derives the owning airline from the closest matching path
// segment, mirroring the <docs-root>/<Airline>/<file> ingestion layout.
func DetectAirline(path string) (policy.Airline, error) {
	segments := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if airline, err := policy.ParseAirline(segments[i]); err == nil {
			return airline, nil
		}
	}
	return "", fmt.Errorf("no airline segment in path %q", path)
}

func extractPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", policy.ErrLoad, path, err)
	}
	return string(data), nil
}

func extractPDF(path string) (text string, err error) {
	// The pdf library panics on some malformed inputs; treat that the same
	// as any other unparseable file.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: pdf parse panic: %v", policy.ErrLoad, path, r)
		}
	}()
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", policy.ErrLoad, path, err)
	}
	defer file.Close()
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", policy.ErrLoad, path, err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("%w: %s: %v", policy.ErrLoad, path, err)
	}
	if strings.TrimSpace(buf.String()) == "" {
		// Pages rendered without any text operators: an image-only scan.
		return "", fmt.Errorf("%w: %s: pdf appears to contain only images, OCR required", policy.ErrUnsupportedDocument, path)
	}
	return buf.String(), nil
}
