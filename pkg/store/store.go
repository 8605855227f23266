// Package store persists generated binary artifacts as flat files under
// category-named directories, with a JSON metadata sidecar per artifact.
package store

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lumoworks/lumo/pkg/models"
)

const sidecarExt = ".json"

// ArtifactStore owns the artifact directory tree. Artifact bytes live at
// <root>/<category>/<filename>; metadata lives next to them in a
// <id>.json sidecar.
type ArtifactStore struct {
	root    string
	baseURL string
}

// NewArtifactStore creates the category directories under root.
// baseURL is the public path prefix artifacts are served from.
func NewArtifactStore(root, baseURL string) (*ArtifactStore, error) {
	for _, category := range []models.ArtifactCategory{
		models.ArtifactImage, models.ArtifactAudio, models.ArtifactVideo, models.ArtifactCode,
	} {
		if err := os.MkdirAll(filepath.Join(root, category.Dir()), 0o755); err != nil {
			return nil, &StorageError{Op: "init", Err: err}
		}
	}

	return &ArtifactStore{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Root returns the artifact root directory, for static file serving.
func (s *ArtifactStore) Root() string {
	return s.root
}

// PutInput describes an artifact being written.
type PutInput struct {
	ID       string // generated when empty
	Category models.ArtifactCategory
	Ext      string // file extension without the dot
	Prompt   string
	Metadata map[string]any
}

// Put writes artifact bytes and their metadata sidecar.
func (s *ArtifactStore) Put(_ context.Context, in PutInput, data []byte) (*models.Artifact, error) {
	artifact, path, err := s.prepare(in)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, &StorageError{Op: "put", ID: artifact.ID, Err: err}
	}

	artifact.Size = int64(len(data))

	if err := s.writeSidecar(artifact); err != nil {
		return nil, err
	}

	return artifact, nil
}

// PutStream writes artifact bytes from a reader, for provider downloads
// that should not be buffered whole in memory.
func (s *ArtifactStore) PutStream(_ context.Context, in PutInput, r io.Reader) (*models.Artifact, error) {
	artifact, path, err := s.prepare(in)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, &StorageError{Op: "put", ID: artifact.ID, Err: err}
	}

	written, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(path)

		return nil, &StorageError{Op: "put", ID: artifact.ID, Err: err}
	}

	artifact.Size = written

	if err := s.writeSidecar(artifact); err != nil {
		return nil, err
	}

	return artifact, nil
}

// ImportFile moves an existing file (e.g. a muxer output) into the store.
func (s *ArtifactStore) ImportFile(_ context.Context, in PutInput, srcPath string) (*models.Artifact, error) {
	artifact, path, err := s.prepare(in)
	if err != nil {
		return nil, err
	}

	if err := os.Rename(srcPath, path); err != nil {
		// Rename fails across filesystems; fall back to copy.
		if copyErr := copyFile(srcPath, path); copyErr != nil {
			return nil, &StorageError{Op: "import", ID: artifact.ID, Err: copyErr}
		}

		_ = os.Remove(srcPath)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &StorageError{Op: "import", ID: artifact.ID, Err: err}
	}

	artifact.Size = info.Size()

	if err := s.writeSidecar(artifact); err != nil {
		return nil, err
	}

	return artifact, nil
}

// Get returns the artifact bytes and metadata.
func (s *ArtifactStore) Get(ctx context.Context, category models.ArtifactCategory, id string) ([]byte, *models.Artifact, error) {
	artifact, err := s.Meta(ctx, category, id)
	if err != nil {
		return nil, nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.root, category.Dir(), artifact.Filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, &StorageError{Op: "get", ID: id, Err: ErrArtifactNotFound}
		}

		return nil, nil, &StorageError{Op: "get", ID: id, Err: err}
	}

	return data, artifact, nil
}

// Meta returns artifact metadata without the bytes.
func (s *ArtifactStore) Meta(_ context.Context, category models.ArtifactCategory, id string) (*models.Artifact, error) {
	payload, err := os.ReadFile(s.sidecarPath(category, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &StorageError{Op: "meta", ID: id, Err: ErrArtifactNotFound}
		}

		return nil, &StorageError{Op: "meta", ID: id, Err: err}
	}

	var artifact models.Artifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, &StorageError{Op: "meta", ID: id, Err: err}
	}

	return &artifact, nil
}

// List returns one page of artifact metadata, newest first, plus the
// total count for the category.
func (s *ArtifactStore) List(_ context.Context, category models.ArtifactCategory, page, limit int) ([]*models.Artifact, int, error) {
	if page < 1 {
		page = 1
	}

	if limit < 1 {
		limit = 20
	}

	dir := filepath.Join(s.root, category.Dir())

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, &StorageError{Op: "list", Err: err}
	}

	artifacts := make([]*models.Artifact, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), sidecarExt) {
			continue
		}

		payload, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}

		var artifact models.Artifact
		if err := json.Unmarshal(payload, &artifact); err != nil {
			continue
		}

		artifacts = append(artifacts, &artifact)
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].CreatedAt.After(artifacts[j].CreatedAt)
	})

	total := len(artifacts)

	start := (page - 1) * limit
	if start >= total {
		return []*models.Artifact{}, total, nil
	}

	end := start + limit
	if end > total {
		end = total
	}

	return artifacts[start:end], total, nil
}

// Delete removes the artifact bytes and sidecar.
func (s *ArtifactStore) Delete(ctx context.Context, category models.ArtifactCategory, id string) error {
	artifact, err := s.Meta(ctx, category, id)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.root, category.Dir(), artifact.Filename)); err != nil && !os.IsNotExist(err) {
		return &StorageError{Op: "delete", ID: id, Err: err}
	}

	if err := os.Remove(s.sidecarPath(category, id)); err != nil {
		return &StorageError{Op: "delete", ID: id, Err: err}
	}

	return nil
}

func (s *ArtifactStore) prepare(in PutInput) (*models.Artifact, string, error) {
	if !in.Category.Valid() {
		return nil, "", &StorageError{Op: "put", Err: ErrInvalidCategory}
	}

	id := in.ID
	if id == "" {
		id = uuid.New().String()
	}

	filename := id
	if in.Ext != "" {
		filename += "." + in.Ext
	}

	now := time.Now().UTC()
	artifact := &models.Artifact{
		ID:         id,
		Filename:   filename,
		URL:        s.baseURL + "/" + in.Category.Dir() + "/" + filename,
		Category:   in.Category,
		Prompt:     in.Prompt,
		Metadata:   in.Metadata,
		CreatedAt:  now,
		ModifiedAt: now,
	}

	return artifact, filepath.Join(s.root, in.Category.Dir(), filename), nil
}

func (s *ArtifactStore) writeSidecar(artifact *models.Artifact) error {
	payload, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return &StorageError{Op: "put", ID: artifact.ID, Err: err}
	}

	if err := os.WriteFile(s.sidecarPath(artifact.Category, artifact.ID), payload, 0o644); err != nil {
		return &StorageError{Op: "put", ID: artifact.ID, Err: err}
	}

	return nil
}

func (s *ArtifactStore) sidecarPath(category models.ArtifactCategory, id string) string {
	return filepath.Join(s.root, category.Dir(), id+sidecarExt)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()

		return err
	}

	return out.Close()
}
