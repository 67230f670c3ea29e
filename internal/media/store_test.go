package media

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newStore(t *testing.T) Store {
	return Store{
		Dir:      t.TempDir(),
		BaseURL:  "http://localhost:8080/media/",
		MaxBytes: 1 << 20,
		Now:      func() time.Time { return time.Unix(0, 1700000000000000000) },
	}
}

func TestSaveImageResizesAndStoresJPEG(t *testing.T) {
	s := newStore(t)
	url, err := s.SaveImage(context.Background(), BucketProducts, bytes.NewReader(pngBytes(t, 1600, 400)))
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/media/products/1700000000000000000.jpg", url)

	img, err := imaging.Open(filepath.Join(s.Dir, "products", "1700000000000000000.jpg"))
	require.NoError(t, err)
	require.Equal(t, 800, img.Bounds().Dx())
	require.Equal(t, 200, img.Bounds().Dy())
}

func TestSaveImageRejects(t *testing.T) {
	s := newStore(t)
	_, err := s.SaveImage(context.Background(), "receipts", bytes.NewReader(pngBytes(t, 10, 10)))
	require.ErrorIs(t, err, ErrUnknownBucket)

	_, err = s.SaveImage(context.Background(), BucketBanners, strings.NewReader("not an image"))
	require.ErrorIs(t, err, ErrNotImage)

	s.MaxBytes = 10
	_, err = s.SaveImage(context.Background(), BucketBanners, bytes.NewReader(pngBytes(t, 10, 10)))
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestRemoveOnlyTouchesOwnFiles(t *testing.T) {
	s := newStore(t)
	url, err := s.Put(BucketReceipts, "42.pdf", []byte("%PDF"))
	require.NoError(t, err)
	require.True(t, s.Exists(BucketReceipts, "42.pdf"))

	require.NoError(t, s.Remove(context.Background(), "https://cdn.example.com/x.jpg"))
	require.NoError(t, s.Remove(context.Background(), url))
	require.False(t, s.Exists(BucketReceipts, "42.pdf"))
	require.NoError(t, s.Remove(context.Background(), url))

	require.Error(t, s.Remove(context.Background(), "http://localhost:8080/media/products/../../etc/passwd"))
}

func TestPutRejectsTraversal(t *testing.T) {
	s := newStore(t)
	_, err := s.Put("..", "x", nil)
	require.Error(t, err)
	_, err = s.Put(BucketProducts, "../x", nil)
	require.Error(t, err)
	_, err = os.Stat(filepath.Join(s.Dir, "..", "x"))
	require.True(t, os.IsNotExist(err))
}

func TestUploadHandler(t *testing.T) {
	s := newStore(t)
	r := chi.NewRouter()
	r.Post("/uploads/{bucket}", Handler{Store: &s}.Upload)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "burger.png")
	require.NoError(t, err)
	_, err = part.Write(pngBytes(t, 20, 20))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploads/banners", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var payload struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	require.True(t, strings.HasSuffix(payload.Data["url"], "/media/banners/1700000000000000000.jpg"))

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/uploads/secrets", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/uploads/products", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServeKeepsReceiptsPrivate(t *testing.T) {
	s := newStore(t)
	_, err := s.Put(BucketBanners, "a.jpg", []byte("jpeg"))
	require.NoError(t, err)
	_, err = s.Put(BucketReceipts, "42.pdf", []byte("%PDF"))
	require.NoError(t, err)

	h := Handler{Store: &s}
	r := chi.NewRouter()
	r.Get("/media/{bucket}/{name}", h.Serve)
	r.Get("/admin/orders/{id}/receipt", h.Receipt)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/media/banners/a.jpg", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "jpeg", rr.Body.String())

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/media/receipts/42.pdf", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/orders/42/receipt", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "private, no-store", rr.Header().Get("Cache-Control"))

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/orders/7/receipt", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}
