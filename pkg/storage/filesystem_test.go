package storage

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("client went away") }

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.SaveStream("passport_1_a.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "passport_1_a.png", name)

	f, err := store.Open(name)
	require.NoError(t, err)
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "png-bytes", string(body))

	require.NoError(t, store.Delete(name))
	_, err = os.Stat(store.Path(name))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, store.Delete(name))
}

func TestLocalStorageRefusesOverwrite(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.SaveStream("a.jpg", strings.NewReader("one"))
	require.NoError(t, err)
	_, err = store.SaveStream("a.jpg", strings.NewReader("two"))
	require.Error(t, err)
}

func TestLocalStorageRemovesPartialFile(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.SaveStream("broken.jpg", failingReader{})
	require.Error(t, err)
	_, statErr := os.Stat(store.Path("broken.jpg"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "..", "../etc/passwd", "a/b.jpg", `a\b.jpg`} {
		_, err := store.Open(name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}
