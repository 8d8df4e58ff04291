package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"pen-tool/internal/pen/document"
)

var ErrInvalidName = errors.New("invalid document name")

var nameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

// ValidName reports whether name can be used as a document name.
func ValidName(name string) bool {
	return nameRe.MatchString(name) && !strings.Contains(name, "..")
}

// ============================================================
// File Storage
// ============================================================

// FileStorage keeps one JSON file per document under root.
type FileStorage struct {
	root string
}

func NewFileStorage(root string) *FileStorage {
	return &FileStorage{root: root}
}

func (s *FileStorage) Root() string {
	return s.root
}

func (s *FileStorage) DocumentPath(name string) string {
	return filepath.Join(s.root, name+".json")
}

func (s *FileStorage) EnsureDir() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("mkdir documents dir: %w", err)
	}
	return nil
}

func (s *FileStorage) Put(_ context.Context, name string, data []byte) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := s.EnsureDir(); err != nil {
		return err
	}
	// Written next to the target, then renamed into place.
	tmp := s.DocumentPath(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	if err := os.Rename(tmp, s.DocumentPath(name)); err != nil {
		return fmt.Errorf("rename document: %w", err)
	}
	return nil
}

func (s *FileStorage) Get(_ context.Context, name string) ([]byte, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	data, err := os.ReadFile(s.DocumentPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", document.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

// List returns the stored document names in order.
func (s *FileStorage) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read documents dir: %w", err)
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStorage) Delete(_ context.Context, name string) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	err := os.Remove(s.DocumentPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", document.ErrNotFound, name)
	}
	return err
}
