package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 5), B: 128, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFetcher_Fetch(t *testing.T) {
	payload := pngBytes(t, testImage(40, 30))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/face.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(payload)
		case "/text":
			_, _ = w.Write([]byte("definitely not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f := NewFetcher(5*time.Second, 0)

	t.Run("decodes png", func(t *testing.T) {
		img, err := f.Fetch(context.Background(), server.URL+"/face.png")
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())
	})

	t.Run("not found", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), server.URL+"/missing.png")
		assert.ErrorIs(t, err, ErrFetchFailed)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("undecodable body", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), server.URL+"/text")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("invalid scheme", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), "ftp://example.com/a.png")
		assert.ErrorIs(t, err, ErrInvalidURL)
	})

	t.Run("empty url", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), "")
		assert.ErrorIs(t, err, ErrInvalidURL)
	})
}

func TestFetcher_TooLarge(t *testing.T) {
	payload := pngBytes(t, testImage(64, 64))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	_, err := NewFetcher(time.Second, int64(len(payload)-1)).Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = NewFetcher(time.Second, int64(len(payload))).Fetch(context.Background(), server.URL)
	assert.NoError(t, err)
}

func TestFetcher_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher(time.Second, 0).Fetch(ctx, server.URL)
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestDecode(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(8, 8), nil))
	img, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}

func TestCrop(t *testing.T) {
	src := testImage(100, 50)

	tests := []struct {
		name  string
		rect  image.Rectangle
		want  image.Rectangle
		empty bool
	}{
		{"inside", image.Rect(10, 10, 30, 20), image.Rect(0, 0, 20, 10), false},
		{"clamped to bounds", image.Rect(90, 40, 200, 200), image.Rect(0, 0, 10, 10), false},
		{"negative origin", image.Rect(-20, -20, 5, 5), image.Rect(0, 0, 5, 5), false},
		{"inverted corners", image.Rect(30, 20, 10, 10), image.Rect(0, 0, 20, 10), false},
		{"outside", image.Rect(200, 200, 300, 300), image.Rectangle{}, true},
		{"zero area", image.Rect(10, 10, 10, 40), image.Rectangle{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Crop(src, tt.rect)
			if tt.empty {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Bounds())
		})
	}
}

func TestCrop_CopiesPixels(t *testing.T) {
	src := testImage(20, 20)

	got := Crop(src, image.Rect(5, 6, 10, 10))
	require.NotNil(t, got)

	assert.Equal(t, src.At(5, 6), got.At(0, 0))
	assert.Equal(t, src.At(9, 9), got.At(4, 3))
}

func TestResize(t *testing.T) {
	got := Resize(testImage(300, 200), 224, 224)
	assert.Equal(t, image.Rect(0, 0, 224, 224), got.Bounds())

	small := Resize(testImage(300, 200), 30, 20)
	assert.Equal(t, image.Rect(0, 0, 30, 20), small.Bounds())
}

func TestDataURI(t *testing.T) {
	uri, err := DataURI(testImage(16, 16))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/jpeg;base64,"))
	require.NoError(t, err)

	img, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 16), img.Bounds())
}

func TestBase64(t *testing.T) {
	s, err := Base64(testImage(4, 4))
	require.NoError(t, err)

	_, err = base64.StdEncoding.DecodeString(s)
	assert.NoError(t, err)
}
