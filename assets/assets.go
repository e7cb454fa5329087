// Package assets serves the certificate template the renderer draws onto.
package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultTemplate is the name of the bundled landscape certificate template.
const DefaultTemplate = "certificate.pdf"

//go:embed certificate.pdf
var bundled embed.FS

var ErrTemplateMissing = errors.New("template asset missing")

type Storage interface {
	ReadTemplate(path string) ([]byte, error)
}

// Embedded reads templates compiled into the binary.
type Embedded struct{}

func (Embedded) ReadTemplate(path string) ([]byte, error) {
	if path == "" {
		path = DefaultTemplate
	}
	b, err := bundled.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateMissing, path)
	}
	return b, err
}

// Dir reads templates from a directory on disk. Relative paths resolve under
// Root; absolute paths are read as-is.
type Dir struct {
	Root string
}

func (d Dir) ReadTemplate(path string) ([]byte, error) {
	if path == "" {
		path = DefaultTemplate
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(d.Root, path)
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}
	return b, nil
}

// ForPath picks Dir when a template path is configured and Embedded otherwise.
func ForPath(path string) Storage {
	if path == "" {
		return Embedded{}
	}
	return Dir{}
}
