// Package document models the content parts of an extraction request.
// A part is either inline text or a reference to a local file. File parts
// carry a SHA-256 content digest computed at construction so that request
// fingerprints depend on file content, not on transient paths or handles.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Part kinds as they appear in canonical serializations.
const (
	KindText = "text"
	KindFile = "file"
)

// Part is one ordered element of a request's content.
type Part interface {
	// Kind returns "text" or "file".
	Kind() string

	// Canonical returns a content-stable representation of the part,
	// suitable for fingerprinting. Two parts with equal canonical forms
	// are treated as identical requests.
	Canonical() string
}

// TextPart is inline text content.
type TextPart struct {
	Text string
}

// Text creates a text part.
func Text(s string) TextPart {
	return TextPart{Text: s}
}

// Kind returns "text".
func (p TextPart) Kind() string { return KindText }

// Canonical returns the text itself.
func (p TextPart) Canonical() string { return p.Text }

// FilePart references a local file by path. The digest is computed over the
// file's bytes when the part is constructed; the path is never part of the
// canonical form.
type FilePart struct {
	Path   string
	Name   string // base name, used for provider uploads
	Digest string // hex SHA-256 of the file content
	Size   int64
	Pages  int // page count for PDFs, 0 otherwise
}

// File creates a file part, computing the content digest immediately.
// PDF files are preflighted: an unreadable or structurally invalid PDF
// fails here, before any provider spend.
func File(path string) (FilePart, error) {
	f, err := os.Open(path)
	if err != nil {
		return FilePart{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return FilePart{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return FilePart{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	part := FilePart{
		Path:   path,
		Name:   filepath.Base(path),
		Digest: hex.EncodeToString(h.Sum(nil)),
		Size:   info.Size(),
	}

	if IsPDF(path) {
		pages, err := pdfPageCount(path)
		if err != nil {
			return FilePart{}, fmt.Errorf("invalid PDF %s: %w", path, err)
		}
		part.Pages = pages
	}

	return part, nil
}

// Kind returns "file".
func (p FilePart) Kind() string { return KindFile }

// Canonical returns the content digest. The name and path stay out of the
// canonical form so a renamed or moved file keys the same cache entry.
func (p FilePart) Canonical() string {
	return p.Digest
}

// IsPDF reports whether path has a .pdf extension.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
