package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nutriguard/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type memStore map[string][]byte

func (m memStore) Read(ctx context.Context, id string) ([]byte, error) {
	if data, ok := m[id]; ok {
		return data, nil
	}
	return nil, common.ErrNotFound
}

func TestToDataURI(t *testing.T) {
	data := pngBytes(t)
	s := NewService(1<<20, time.Second, nil)

	t.Run("should encode valid images", func(t *testing.T) {
		uri, err := s.ToDataURI(data)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
		require.NoError(t, err)
		assert.Equal(t, data, decoded)
	})

	t.Run("should reject empty input", func(t *testing.T) {
		_, err := s.ToDataURI(nil)
		assert.ErrorIs(t, err, ErrNoImage)
	})

	t.Run("should reject non images", func(t *testing.T) {
		_, err := s.ToDataURI([]byte("hello, this is plain text"))
		assert.ErrorIs(t, err, ErrInvalidImage)
		assert.Equal(t, http.StatusBadRequest, common.StatusOf(err))
	})

	t.Run("should reject truncated images", func(t *testing.T) {
		_, err := s.ToDataURI(data[:20])
		assert.ErrorIs(t, err, ErrInvalidImage)
	})

	t.Run("should enforce the size limit", func(t *testing.T) {
		small := NewService(10, time.Second, nil)
		_, err := small.ToDataURI(data)
		assert.ErrorIs(t, err, ErrImageTooLarge)
		assert.Equal(t, http.StatusRequestEntityTooLarge, common.StatusOf(err))
	})
}

func TestLoad(t *testing.T) {
	data := pngBytes(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/meal.png" {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(data)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewService(1<<20, 5*time.Second, memStore{"abc.png": data})

	t.Run("should prefer inline data", func(t *testing.T) {
		got, err := s.Load(ctx, Source{Data: []byte("inline"), FileID: "abc.png", URL: srv.URL + "/meal.png"})
		require.NoError(t, err)
		assert.Equal(t, []byte("inline"), got)
	})

	t.Run("should read uploads by file id", func(t *testing.T) {
		got, err := s.Load(ctx, Source{FileID: "abc.png"})
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("should report missing uploads as bad input", func(t *testing.T) {
		_, err := s.Load(ctx, Source{FileID: "missing.png"})
		assert.ErrorIs(t, err, ErrImageFetch)
		assert.True(t, errors.Is(err, common.ErrNotFound))
	})

	t.Run("should fetch remote images", func(t *testing.T) {
		uri, err := s.LoadDataURI(ctx, Source{URL: srv.URL + "/meal.png"})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	})

	t.Run("should fail on remote non-200", func(t *testing.T) {
		_, err := s.Load(ctx, Source{URL: srv.URL + "/gone.png"})
		assert.ErrorIs(t, err, ErrImageFetch)
	})

	t.Run("should reject non-http urls", func(t *testing.T) {
		_, err := s.Load(ctx, Source{URL: "file:///etc/passwd"})
		assert.ErrorIs(t, err, ErrImageFetch)
	})

	t.Run("should require a source", func(t *testing.T) {
		assert.True(t, Source{}.Empty())
		_, err := s.Load(ctx, Source{})
		assert.ErrorIs(t, err, ErrNoImage)
	})

	t.Run("should fail without upload store", func(t *testing.T) {
		_, err := NewService(0, time.Second, nil).Load(ctx, Source{FileID: "abc.png"})
		assert.ErrorIs(t, err, ErrImageFetch)
	})
}

func TestLoadRemoteSizeLimit(t *testing.T) {
	chunk := bytes.Repeat([]byte{0xff}, 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/declared.png" {
			w.Header().Set("Content-Length", "65536")
		}
		flusher, _ := w.(http.Flusher)
		for i := 0; i < 16; i++ {
			if _, err := w.Write(chunk); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	defer srv.Close()

	s := NewService(1024, 5*time.Second, nil)
	ctx := context.Background()

	t.Run("should stop reading streamed bodies over the limit", func(t *testing.T) {
		_, err := s.LoadDataURI(ctx, Source{URL: srv.URL + "/streamed.png"})
		assert.ErrorIs(t, err, ErrImageTooLarge)
		assert.Equal(t, http.StatusRequestEntityTooLarge, common.StatusOf(err))
	})

	t.Run("should reject declared lengths over the limit", func(t *testing.T) {
		_, err := s.Load(ctx, Source{URL: srv.URL + "/declared.png"})
		assert.ErrorIs(t, err, ErrImageTooLarge)
	})

	t.Run("should accept bodies within the limit", func(t *testing.T) {
		got, err := NewService(1<<20, 5*time.Second, nil).Load(ctx, Source{URL: srv.URL + "/streamed.png"})
		require.NoError(t, err)
		assert.Len(t, got, 16*4096)
	})
}
