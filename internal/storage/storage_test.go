package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/recipebox/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDisabled(t *testing.T) {
	s, err := Open(context.Background(), config.StorageConfig{Backend: config.StorageBackendNone})
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Backend: "ftp"})
	assert.ErrorContains(t, err, "ftp")
}

func TestOpenMinioRequiresCredentials(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{
		Backend: config.StorageBackendMinio,
		Minio:   config.MinioConfig{Endpoint: "localhost:9000", Bucket: "images"},
	})
	assert.ErrorContains(t, err, "access key")
}

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, config.StorageConfig{Backend: config.StorageBackendMemory})
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "/uploads/recipe/a.png", strings.NewReader("png"), 3, "image/png"))

	obj, err := s.Get(ctx, "uploads/recipe/a.png")
	require.NoError(t, err)
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	assert.Equal(t, "image/png", obj.ContentType)
	assert.EqualValues(t, 3, obj.Size)

	require.NoError(t, s.Delete(ctx, "uploads/recipe/a.png"))
	_, err = s.Get(ctx, "uploads/recipe/a.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestDeleteMissingIsNotAnError(t *testing.T) {
	s := NewStorage(NewMemory("images"))
	assert.NoError(t, s.Delete(context.Background(), "uploads/recipe/missing.png"))
}

func TestRejectsInvalidKeys(t *testing.T) {
	s := NewStorage(NewMemory("images"))
	ctx := context.Background()

	for _, key := range []string{"", "  ", "/", "uploads/../secret"} {
		assert.Error(t, s.Put(ctx, key, strings.NewReader("x"), 1, "text/plain"), key)
	}
}
