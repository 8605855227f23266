package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lumoworks/lumo/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ArtifactStore {
	t.Helper()

	s, err := NewArtifactStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	return s
}

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	artifact, err := s.Put(ctx, PutInput{
		Category: models.ArtifactImage,
		Ext:      "png",
		Prompt:   "a lighthouse at dusk",
	}, []byte("png-bytes"))
	require.NoError(t, err)

	assert.NotEmpty(t, artifact.ID)
	assert.Equal(t, artifact.ID+".png", artifact.Filename)
	assert.Equal(t, "/uploads/images/"+artifact.Filename, artifact.URL)
	assert.Equal(t, int64(len("png-bytes")), artifact.Size)

	data, meta, err := s.Get(ctx, models.ArtifactImage, artifact.ID)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "a lighthouse at dusk", meta.Prompt)

	require.NoError(t, s.Delete(ctx, models.ArtifactImage, artifact.ID))

	_, _, err = s.Get(ctx, models.ArtifactImage, artifact.ID)
	assert.True(t, IsArtifactNotFound(err))
}

func TestGetNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Meta(ctx, models.ArtifactVideo, "missing")
	assert.True(t, IsArtifactNotFound(err))

	err = s.Delete(ctx, models.ArtifactVideo, "missing")
	assert.True(t, IsArtifactNotFound(err))
}

func TestPutInvalidCategory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Put(ctx, PutInput{Category: "font"}, []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestPutStream(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	artifact, err := s.PutStream(ctx, PutInput{
		Category: models.ArtifactAudio,
		Ext:      "mp3",
	}, strings.NewReader("mp3-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(len("mp3-bytes")), artifact.Size)

	data, _, err := s.Get(ctx, models.ArtifactAudio, artifact.ID)
	require.NoError(t, err)
	assert.Equal(t, "mp3-bytes", string(data))
}

func TestListPaginatesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := range 5 {
		_, err := s.Put(ctx, PutInput{
			ID:       fmt.Sprintf("code-%d", i),
			Category: models.ArtifactCode,
			Ext:      "go",
		}, []byte("package main"))
		require.NoError(t, err)

		// Creation timestamps must differ for a stable order.
		time.Sleep(5 * time.Millisecond)
	}

	page1, total, err := s.List(ctx, models.ArtifactCode, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page1, 2)
	assert.Equal(t, "code-4", page1[0].ID)
	assert.Equal(t, "code-3", page1[1].ID)

	page3, total, err := s.List(ctx, models.ArtifactCode, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page3, 1)
	assert.Equal(t, "code-0", page3[0].ID)

	empty, _, err := s.List(ctx, models.ArtifactCode, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
