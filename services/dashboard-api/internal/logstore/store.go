// Package logstore persists named JSON arrays as flat files.
//
// Each read loads the whole file and each write replaces it. There is no
// locking: the store assumes a single writer and the last write wins.
package logstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/sumails/sumails/internal/apperr"
)

// ProcessingLog is the name of the account processing history store.
const ProcessingLog = "account_processing_log"

type Store struct {
	dir string
	log *zap.Logger
}

func New(dir string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{dir: dir, log: log}
}

// Dir returns the data directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", apperr.Invalid("name", "invalid store name")
	}
	return filepath.Join(s.dir, name+".json"), nil
}

// Read returns the items of the named store. A missing or malformed file
// yields an empty slice: absence of a log is not an error for readers.
func Read[T any](s *Store, name string) ([]T, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store %s: %w", name, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		s.log.Warn("Malformed store file, treating as empty",
			zap.String("store", name),
			zap.Error(err),
		)
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Write replaces the named store with items, pretty-printed with a 2-space indent.
// The file is renamed into place so readers never observe a partial write.
func Write[T any](s *Store, name string, items []T) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if items == nil {
		items = []T{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store %s: %w", name, err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write store %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close store %s: %w", name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace store %s: %w", name, err)
	}

	s.log.Debug("Store written", zap.String("store", name), zap.Int("items", len(items)))
	return nil
}
