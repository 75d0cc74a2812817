// Package adapters stores latest-price artifacts.
package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"stockprice_backend/internal/feature/latestprices/domain/entity"
	"stockprice_backend/internal/feature/latestprices/usecase"
)

// FileArtifactStore keeps the artifact as an indented JSON file.
type FileArtifactStore struct {
	path string
}

var _ usecase.ArtifactStore = (*FileArtifactStore)(nil)

// NewFileArtifactStore creates a store writing to path.
func NewFileArtifactStore(path string) *FileArtifactStore {
	return &FileArtifactStore{path: path}
}

// Save replaces the artifact. Readers never see a partially written file.
func (s *FileArtifactStore) Save(_ context.Context, a entity.Artifact) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	b, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}

// Load reads the artifact. It returns entity.ErrArtifactNotFound when none exists.
func (s *FileArtifactStore) Load(_ context.Context) (entity.Artifact, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return entity.Artifact{}, entity.ErrArtifactNotFound
	}
	if err != nil {
		return entity.Artifact{}, fmt.Errorf("read artifact: %w", err)
	}
	var a entity.Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return entity.Artifact{}, fmt.Errorf("decode artifact %s: %w", s.path, err)
	}
	return a, nil
}
