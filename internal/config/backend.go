package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentic-research/yomitran/api"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// Backend reads and writes one configuration file on a billy filesystem.
type Backend struct {
	fs   billy.Filesystem
	name string
}

func NewBackend(fs billy.Filesystem, name string) *Backend {
	return &Backend{fs: fs, name: name}
}

// Open returns a Backend for a file on the local disk.
func Open(path string) (*Backend, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	return NewBackend(osfs.New(filepath.Dir(abs)), filepath.Base(abs)), nil
}

func (b *Backend) Name() string { return b.name }

// Exists reports whether the file is present.
func (b *Backend) Exists() bool {
	_, err := b.fs.Stat(b.name)
	return err == nil
}

// Load reads and parses the file.
func (b *Backend) Load() (*Loaded, error) {
	data, err := util.ReadFile(b.fs, b.name)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", b.name, err)
	}
	l, err := Parse(data, FormatFor(b.name))
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", b.name, err)
	}
	return l, nil
}

// Save writes cfg. If the file already keeps the configuration under
// Namespace, only that slot is replaced.
func (b *Backend) Save(cfg *api.Config) error {
	f := FormatFor(b.name)
	var root map[string]any
	if data, err := util.ReadFile(b.fs, b.name); err == nil {
		if doc, err := decodeDocument(data, f); err == nil {
			if obj, ok := doc.(map[string]any); ok {
				if _, ok := obj[Namespace]; ok {
					root = obj
				}
			}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read config %s: %w", b.name, err)
	}

	data, err := Encode(cfg, f, root)
	if err != nil {
		return err
	}
	tmp := b.name + ".tmp"
	if err := util.WriteFile(b.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", b.name, err)
	}
	if err := b.fs.Rename(tmp, b.name); err != nil {
		_ = b.fs.Remove(tmp)
		return fmt.Errorf("replace config %s: %w", b.name, err)
	}
	return nil
}
