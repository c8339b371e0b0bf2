// Package dataset reads the precomputed vector exports and the full record
// files of the three collections from a directory.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kailas-cloud/linkdex/internal/domain"
	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/item"
	"github.com/kailas-cloud/linkdex/internal/domain/link"
)

// Files names the per-collection files inside the dataset directory.
type Files struct {
	Vectors map[collection.Kind]string
	Records map[collection.Kind]string
}

// Repo loads dataset files. Missing files are reported as domain.ErrNotFound.
type Repo struct {
	fsys   fs.FS
	files  Files
	logger *zap.Logger
}

// New creates a repository reading from dir.
func New(dir string, files Files, logger *zap.Logger) *Repo {
	return NewFS(os.DirFS(dir), files, logger)
}

// NewFS creates a repository over an arbitrary file system.
func NewFS(fsys fs.FS, files Files, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{fsys: fsys, files: files, logger: logger}
}

// Items reads the vector file of a collection.
func (r *Repo) Items(kind collection.Kind) ([]item.Raw, error) {
	data, err := r.read(r.files.Vectors[kind])
	if err != nil {
		return nil, fmt.Errorf("%s vectors: %w", kind, err)
	}
	raws, err := DecodeItems(kind, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s vectors: %w", kind, err)
	}
	r.logger.Debug("Dataset vectors read", zap.String("collection", kind.String()), zap.Int("items", len(raws)))
	return raws, nil
}

// Records reads the full record file of a collection.
func (r *Repo) Records(kind collection.Kind) ([]link.Record, error) {
	data, err := r.read(r.files.Records[kind])
	if err != nil {
		return nil, fmt.Errorf("%s records: %w", kind, err)
	}
	recs, err := DecodeRecords(kind, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s records: %w", kind, err)
	}
	r.logger.Debug("Dataset records read", zap.String("collection", kind.String()), zap.Int("records", len(recs)))
	return recs, nil
}

func (r *Repo) read(name string) ([]byte, error) {
	if name == "" {
		return nil, domain.ErrNotFound
	}
	data, err := fs.ReadFile(r.fsys, filepath.ToSlash(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// DecodeItems parses a vector export. Rows lacking model embeddings are skipped.
func DecodeItems(kind collection.Kind, rd io.Reader) ([]item.Raw, error) {
	raw, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	arr, err := unwrap(raw)
	if err != nil {
		return nil, err
	}
	var rows []vectorRow
	if err := json.Unmarshal(arr, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	out := make([]item.Raw, 0, len(rows))
	for i, row := range rows {
		if r, ok := rowToRaw(i, row); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// DecodeRecords parses a record file.
func DecodeRecords(kind collection.Kind, rd io.Reader) ([]link.Record, error) {
	raw, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	arr, err := unwrap(raw)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(arr))
	dec.UseNumber()
	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	out := make([]link.Record, 0, len(rows))
	for i, row := range rows {
		if row == nil {
			continue
		}
		out = append(out, rowToRecord(kind, i, row))
	}
	return out, nil
}
