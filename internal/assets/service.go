// Package assets keeps the single profile image of a resume in object
// storage.
//
// A new object is written before the database records its key, and the old
// object is only removed once the new key is committed. The two stores are
// not transactional: a crash between the steps leaves an orphaned object
// behind, never a dangling reference.
package assets

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/karthik1704/rsr-v1/internal/shared/apperr"
	"github.com/karthik1704/rsr-v1/internal/shared/metrics"
	"github.com/karthik1704/rsr-v1/internal/shared/storage/object"
	"github.com/karthik1704/rsr-v1/internal/shared/telemetry"
	"github.com/karthik1704/rsr-v1/internal/shared/util"
)

const DefaultMaxBytes int64 = 5 << 20

// Image is a stored image read back from the object store.
type Image struct {
	Data        []byte
	ContentType string
}

type Service struct {
	Store object.ObjectStore
	// Strict makes a failure to remove the previous object fail the upload.
	// When false the failure is logged and counted instead.
	Strict   bool
	MaxBytes int64
}

func NewService(store object.ObjectStore, strict bool, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Service{Store: store, Strict: strict, MaxBytes: maxBytes}
}

// Upload validates an image and writes it under a fresh key for owner.
// declaredType is the client's Content-Type and may be empty; the sniffed type
// of the bytes decides. The previous image is left alone until Cleanup.
func (s *Service) Upload(ctx context.Context, owner, fileName, declaredType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes()+1))
	if err != nil {
		return "", apperr.Validation("could not read upload")
	}
	if len(data) == 0 {
		return "", apperr.Invalid("invalid image", apperr.FieldIssue{Field: "file", Issue: "empty file"})
	}
	if int64(len(data)) > s.maxBytes() {
		return "", apperr.Invalid("invalid image", apperr.FieldIssue{Field: "file", Issue: "file too large"})
	}
	if declaredType != "" && !isImage(declaredType) && declaredType != "application/octet-stream" {
		return "", apperr.Invalid("invalid image", apperr.FieldIssue{Field: "file", Issue: "must be an image"})
	}
	mt := mimetype.Detect(data)
	if !isImage(mt.String()) {
		return "", apperr.Invalid("invalid image", apperr.FieldIssue{Field: "file", Issue: "must be an image, got " + mt.String()})
	}

	key, err := util.UniqueObjectKey(owner, fileName)
	if err != nil {
		return "", apperr.Invalid("invalid image", apperr.FieldIssue{Field: "file", Issue: "invalid file name"})
	}
	if _, err := s.Store.Put(ctx, key, mt.String(), bytes.NewReader(data)); err != nil {
		return "", apperr.External(err, "could not store image")
	}

	metrics.IncAssetUpload()
	telemetry.Info("asset.stored", map[string]any{
		"owner":        owner,
		"key":          key,
		"content_type": mt.String(),
		"bytes":        len(data),
	})
	return key, nil
}

// Cleanup removes an image that is no longer referenced. In strict mode a
// failed delete is returned; otherwise it is logged and counted.
func (s *Service) Cleanup(ctx context.Context, owner, key string) error {
	if key == "" {
		return nil
	}
	err := s.Store.Delete(ctx, key)
	if err == nil {
		return nil
	}
	if s.Strict {
		return apperr.External(err, "could not remove previous image")
	}
	metrics.IncAssetCleanupFailed()
	telemetry.Warn("asset.cleanup_failed", map[string]any{
		"owner": owner,
		"key":   key,
		"error": err,
	})
	return nil
}

// Open reads the image stored at key.
func (s *Service) Open(ctx context.Context, key string) (Image, error) {
	rc, err := s.Store.Open(ctx, key)
	if errors.Is(err, object.ErrNotFound) {
		return Image{}, apperr.NotFound("image not found")
	}
	if err != nil {
		return Image{}, apperr.External(err, "could not read image")
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return Image{}, apperr.External(err, "could not read image")
	}
	return Image{Data: data, ContentType: mimetype.Detect(data).String()}, nil
}

// Remove deletes the object at key. Missing objects are not an error.
func (s *Service) Remove(ctx context.Context, key string) error {
	if err := s.Store.Delete(ctx, key); err != nil {
		return apperr.External(err, "could not remove image")
	}
	return nil
}

func (s *Service) maxBytes() int64 {
	if s.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return s.MaxBytes
}

func isImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}
