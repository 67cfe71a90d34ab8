package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func TestLocalStore_Save(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "/uploads/", 1024)
	require.NoError(t, err)

	url, err := store.Save(context.Background(), "tickets", Upload{
		Filename: "Foto AC.JPEG",
		Size:     5,
		Content:  bytes.NewBufferString("image"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/tickets/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	content, err := os.ReadFile(filepath.Join(root, "tickets", filepath.Base(url)))
	require.NoError(t, err)
	assert.Equal(t, "image", string(content))
}

func TestLocalStore_RejectsBadInput(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/uploads", 4)
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "tickets", Upload{Filename: "script.sh", Size: 1, Content: bytes.NewBufferString("x")})
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))

	_, err = store.Save(context.Background(), "tickets", Upload{Filename: "a.png", Size: 10, Content: bytes.NewBufferString("0123456789")})
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))

	// declared size lies; the stream is still capped
	_, err = store.Save(context.Background(), "tickets", Upload{Filename: "a.png", Size: 1, Content: bytes.NewBufferString("0123456789")})
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
}

func TestLocalStore_FolderCannotEscapeRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "/uploads", 0)
	require.NoError(t, err)

	url, err := store.Save(context.Background(), "../../etc", Upload{Filename: "a.png", Content: bytes.NewBufferString("x")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/etc/"))
	_, err = os.Stat(filepath.Join(root, "etc"))
	assert.NoError(t, err)
}

func TestLocalStore_Remove(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "/uploads", 0)
	require.NoError(t, err)
	ctx := context.Background()

	url, err := store.Save(ctx, "proofs", Upload{Filename: "a.png", Content: bytes.NewBufferString("x")})
	require.NoError(t, err)
	path := filepath.Join(root, "proofs", filepath.Base(url))
	require.FileExists(t, path)

	require.NoError(t, store.Remove(ctx, url))
	assert.NoFileExists(t, path)
	assert.NoError(t, store.Remove(ctx, url))

	assert.Error(t, store.Remove(ctx, "/elsewhere/proofs/a.png"))
	assert.Error(t, store.Remove(ctx, "/uploads/../outside.png"))
}
