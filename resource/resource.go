// Package resource loads shader blobs by path relative to a "shaders"
// directory.
package resource

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Built-in shader paths.
const (
	AssistVS  = "shaders/assist.vert"
	AssistPS  = "shaders/assist.frag"
	ModelVS   = "shaders/model.vert"
	ModelPS   = "shaders/model.frag"
	TerrainVS = "shaders/terrain.vert"
	TerrainPS = "shaders/terrain.frag"
)

// ErrNotFound is returned when a path does not name a file.
var ErrNotFound = errors.New("resource: not found")

// ErrBadPath is returned for absolute paths or paths leaving the root.
var ErrBadPath = errors.New("resource: bad path")

// Provider returns the bytes of a file.
type Provider interface {
	FileData(name string) ([]byte, error)
}

//go:embed shaders
var builtin embed.FS

// FSProvider serves files from an fs.FS.
type FSProvider struct {
	fsys fs.FS
}

// Embedded returns a provider over the shaders compiled into the binary.
func Embedded() *FSProvider { return &FSProvider{fsys: builtin} }

// Dir returns a provider reading from root on disk.
func Dir(root string) *FSProvider { return &FSProvider{fsys: os.DirFS(root)} }

// FromFS wraps an arbitrary file system.
func FromFS(fsys fs.FS) *FSProvider { return &FSProvider{fsys: fsys} }

func (p *FSProvider) FileData(name string) ([]byte, error) {
	clean, err := cleanPath(name)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(p.fsys, clean)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// cleanPath normalizes separators and rejects anything fs.ValidPath would
// not accept after cleaning.
func cleanPath(name string) (string, error) {
	name = filepath.ToSlash(name)
	if name == "" || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%q: %w", name, ErrBadPath)
	}
	clean := path.Clean(name)
	if !fs.ValidPath(clean) || clean == "." {
		return "", fmt.Errorf("%q: %w", name, ErrBadPath)
	}
	return clean, nil
}
