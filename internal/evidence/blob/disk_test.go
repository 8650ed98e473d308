package blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safedesk/pkg/platform/sentinel"
)

func TestDisk(t *testing.T) {
	ctx := context.Background()
	disk, err := NewDisk(t.TempDir(), "/uploads/")
	require.NoError(t, err)

	t.Run("put open delete", func(t *testing.T) {
		key := NewKey(".PNG")
		assert.True(t, strings.HasSuffix(key, ".png"))

		require.NoError(t, disk.Put(ctx, key, strings.NewReader("bytes"), "image/png"))
		rc, err := disk.Open(ctx, key)
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, rc.Close())
		require.NoError(t, err)
		assert.Equal(t, "bytes", string(data))
		assert.Equal(t, "/uploads/"+key, disk.URL(key))

		require.NoError(t, disk.Delete(ctx, key))
		_, err = disk.Open(ctx, key)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		entries, err := os.ReadDir(disk.Dir())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("traversal keys rejected", func(t *testing.T) {
		assert.Error(t, disk.Put(ctx, "../escape.txt", strings.NewReader("x"), "text/plain"))
		_, err := disk.Open(ctx, "..")
		assert.Error(t, err)
	})
}

func TestDiskServeHTTP(t *testing.T) {
	ctx := context.Background()
	disk, err := NewDisk(t.TempDir(), "/uploads/")
	require.NoError(t, err)

	pdf := "%PDF-1.4\n%fake"
	key := NewKey(".pdf")
	require.NoError(t, disk.Put(ctx, key, strings.NewReader(pdf), "application/pdf"))

	serve := func(method, path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		disk.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
		return rr
	}

	t.Run("serves stored blob with sniffed type", func(t *testing.T) {
		rr := serve(http.MethodGet, "/uploads/"+key)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, pdf, rr.Body.String())
	})

	t.Run("directory is not listed", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve(http.MethodGet, "/uploads/").Code)
	})

	t.Run("unknown key is not found", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve(http.MethodGet, "/uploads/"+NewKey(".png")).Code)
	})

	t.Run("writes are rejected", func(t *testing.T) {
		assert.Equal(t, http.StatusMethodNotAllowed, serve(http.MethodPost, "/uploads/"+key).Code)
	})
}
