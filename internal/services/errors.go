package services

import (
	"errors"
	"fmt"

	"molvis-backend/internal/storage"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrQuotaExceeded   = errors.New("storage quota exceeded")
)

// StorageError marks a failed round trip against the object store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Machine-readable codes persisted in entries.error_code alongside the
// verbatim error text.
const (
	ErrCodeDownloadFailed   = "download_failed"
	ErrCodeConversionFailed = "conversion_failed"
	ErrCodeUploadFailed     = "upload_failed"
)

// ConversionError tags a background conversion failure with the phase it
// happened in.
type ConversionError struct {
	Code string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
