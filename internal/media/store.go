// Package media stores uploaded catalog images and archived receipts on
// local disk and maps them to public URLs under /media.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// Buckets accepted for image uploads. Receipts are written by the worker only.
const (
	BucketProducts = "products"
	BucketBanners  = "banners"
	BucketReceipts = "receipts"

	maxDimension = 800
	jpegQuality  = 75
)

var (
	// ErrUnknownBucket is returned for buckets outside the allow list.
	ErrUnknownBucket = errors.New("media: unknown bucket")
	// ErrNotImage is returned when the upload cannot be decoded.
	ErrNotImage = errors.New("media: file is not a supported image")
	// ErrTooLarge is returned when the upload exceeds MaxBytes.
	ErrTooLarge = errors.New("media: file too large")
)

// Store writes files below Dir and serves them from BaseURL.
type Store struct {
	Dir      string
	BaseURL  string
	MaxBytes int64
	Now      func() time.Time
}

// ImageBucket reports whether b accepts image uploads.
func ImageBucket(b string) bool {
	return b == BucketProducts || b == BucketBanners
}

// SaveImage decodes r, shrinks it to fit 800x800 and stores it as a
// quality 75 JPEG named after the upload time. It returns the public URL.
func (s Store) SaveImage(ctx context.Context, bucket string, r io.Reader) (string, error) {
	if !ImageBucket(bucket) {
		return "", fmt.Errorf("%w: %s", ErrUnknownBucket, bucket)
	}
	if s.MaxBytes > 0 {
		r = io.LimitReader(r, s.MaxBytes+1)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if s.MaxBytes > 0 && int64(len(raw)) > s.MaxBytes {
		return "", ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return s.Put(bucket, fmt.Sprintf("%d.jpg", s.now().UnixNano()), buf.Bytes())
}

// Put writes data to <Dir>/<bucket>/<name> and returns its public URL.
func (s Store) Put(bucket, name string, data []byte) (string, error) {
	path, err := s.path(bucket, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write media: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("commit media: %w", err)
	}
	return s.URL(bucket, name), nil
}

// Exists reports whether <bucket>/<name> is already stored.
func (s Store) Exists(bucket, name string) bool {
	path, err := s.path(bucket, name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// URL is the public address of <bucket>/<name>.
func (s Store) URL(bucket, name string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + bucket + "/" + name
}

// Remove deletes the file behind a URL produced by this store. URLs that
// point elsewhere are ignored, so externally hosted images are left alone.
func (s Store) Remove(_ context.Context, url string) error {
	base := strings.TrimRight(s.BaseURL, "/") + "/"
	if url == "" || !strings.HasPrefix(url, base) {
		return nil
	}
	bucket, name, ok := strings.Cut(strings.TrimPrefix(url, base), "/")
	if !ok {
		return nil
	}
	path, err := s.path(bucket, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove media: %w", err)
	}
	return nil
}

// path resolves bucket/name below Dir, rejecting anything that would
// escape it.
func (s Store) path(bucket, name string) (string, error) {
	if bucket == "" || name == "" || strings.ContainsAny(bucket+name, `/\`) || strings.HasPrefix(name, ".") || bucket == ".." {
		return "", fmt.Errorf("media: invalid path %q/%q", bucket, name)
	}
	root, err := filepath.Abs(s.Dir)
	if err != nil {
		return "", err
	}
	full := filepath.Join(root, bucket, name)
	if !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("media: invalid path %q/%q", bucket, name)
	}
	return full, nil
}

func (s Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
