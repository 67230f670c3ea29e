package media

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Handler accepts admin image uploads.
type Handler struct {
	Store  *Store
	Logger *zerolog.Logger
}

// Upload handles POST /api/v1/admin/uploads/{bucket} with a multipart
// "file" field. It responds with the public URL of the stored image.
func (h Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "MEDIA_NOT_CONFIGURED", "media store not configured", nil)
		return
	}
	bucket := chi.URLParam(r, "bucket")
	if !ImageBucket(bucket) {
		common.JSONError(w, http.StatusNotFound, "UNKNOWN_BUCKET", "unknown upload bucket", map[string]any{"allowed": []string{BucketProducts, BucketBanners}})
		return
	}
	if h.Store.MaxBytes > 0 {
		// Multipart framing needs a little headroom over the file itself.
		r.Body = http.MaxBytesReader(w, r.Body, h.Store.MaxBytes+64<<10)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "image exceeds the upload limit", nil)
			return
		}
		common.JSONError(w, http.StatusBadRequest, "FILE_REQUIRED", "multipart field \"file\" is required", nil)
		return
	}
	defer file.Close()

	url, err := h.Store.SaveImage(r.Context(), bucket, file)
	switch {
	case err == nil:
		common.Data(w, http.StatusCreated, map[string]string{"url": url})
	case errors.Is(err, ErrTooLarge):
		common.JSONError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "image exceeds the upload limit", nil)
	case errors.Is(err, ErrNotImage):
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_IMAGE", "file is not a supported image", nil)
	default:
		if h.Logger != nil {
			h.Logger.Error().Err(err).Str("bucket", bucket).Msg("store upload")
		}
		common.WriteError(w, err)
	}
}

// Serve handles GET /media/{bucket}/{name} for the public image buckets.
// Archived receipts carry customer data and are only reachable through
// Receipt.
func (h Handler) Serve(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	if h.Store == nil || !ImageBucket(bucket) {
		http.NotFound(w, r)
		return
	}
	h.serveFile(w, r, bucket, chi.URLParam(r, "name"), "public, max-age=86400")
}

// Receipt handles GET /api/v1/admin/orders/{id}/receipt, returning the
// ticket archived by the worker.
func (h Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLParamID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "MEDIA_NOT_CONFIGURED", "media store not configured", nil)
		return
	}
	name := strconv.FormatInt(id, 10) + ".pdf"
	if !h.Store.Exists(BucketReceipts, name) {
		common.JSONError(w, http.StatusNotFound, "RECEIPT_NOT_ARCHIVED", "receipt has not been archived yet", nil)
		return
	}
	h.serveFile(w, r, BucketReceipts, name, "private, no-store")
}

func (h Handler) serveFile(w http.ResponseWriter, r *http.Request, bucket, name, cacheControl string) {
	path, err := h.Store.path(bucket, name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", cacheControl)
	http.ServeContent(w, r, name, info.ModTime(), f)
}
