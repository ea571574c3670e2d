package scan

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dshills/shieldscan/internal/client"
	"github.com/dshills/shieldscan/internal/patch"
)

const (
	// maxFilenameChars is the longest filename the API accepts.
	maxFilenameChars = 256
	// truncatedFilenameChars is how many trailing characters are kept when
	// a filename is too long.
	truncatedFilenameChars = 255
)

// Unit is one document to scan. It is immutable.
type Unit struct {
	content  string
	filename string
	mode     patch.Filemode
}

// NewUnit creates a Unit with the given provenance.
func NewUnit(content, filename string, mode patch.Filemode) Unit {
	return Unit{content: content, filename: filename, mode: mode}
}

// NewFile creates a Unit for a plain file.
func NewFile(content, filename string) Unit {
	return NewUnit(content, filename, patch.FileFile)
}

// NewFileFromBytes creates a Unit for a plain file, replacing invalid UTF-8
// sequences.
func NewFileFromBytes(raw []byte, filename string) Unit {
	return NewFile(strings.ToValidUTF8(string(raw), "�"), filename)
}

func (u Unit) Content() string      { return u.content }
func (u Unit) Filename() string     { return u.filename }
func (u Unit) Mode() patch.Filemode { return u.mode }

// Payload returns the document as sent to the API. Filenames longer than 256
// characters keep their trailing 255 characters, which hold the most
// specific path segments.
func (u Unit) Payload() client.Payload {
	return client.Payload{
		Filename: transportFilename(u.filename),
		Document: u.content,
		Filemode: u.mode,
	}
}

func transportFilename(name string) string {
	n := utf8.RuneCountInString(name)
	if n <= maxFilenameChars {
		return name
	}
	runes := []rune(name)
	return string(runes[n-truncatedFilenameChars:])
}

// RelativeTo returns a copy of u whose filename is relative to root.
func (u Unit) RelativeTo(root string) (Unit, error) {
	rel, err := filepath.Rel(root, u.filename)
	if err != nil {
		return Unit{}, fmt.Errorf("making %s relative to %s: %w", u.filename, root, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Unit{}, fmt.Errorf("%s is not under %s", u.filename, root)
	}
	return NewUnit(u.content, rel, u.mode), nil
}

// HasExtensions reports whether any suffix of the filename ("a.tf.json" has
// ".tf" and ".json") is in exts.
func (u Unit) HasExtensions(exts map[string]struct{}) bool {
	for _, s := range suffixes(filepath.Base(u.filename)) {
		if _, ok := exts[s]; ok {
			return true
		}
	}
	return false
}

func suffixes(base string) []string {
	if strings.HasSuffix(base, ".") {
		return nil
	}
	parts := strings.Split(strings.TrimLeft(base, "."), ".")
	out := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		out = append(out, "."+p)
	}
	return out
}

func (u Unit) String() string {
	return fmt.Sprintf("<Unit filename=%s filemode=%s>", u.filename, u.mode)
}
