package model

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

// Input errors: reported to the user, nothing is persisted
var (
	ErrEmptyContent = goerr.New("content is empty")
	ErrInvalidInput = goerr.New("invalid input")
)

// Extraction errors: reported to the user, nothing is persisted
var (
	ErrFetch        = goerr.New("failed to fetch content")
	ErrFileNotFound = goerr.New("file not found")
	ErrOCR          = goerr.New("failed to recognize text in image")
)

// Structuring errors: recovered by the pipeline, never fatal
var (
	ErrAuth             = goerr.New("structuring backend credential is not configured or rejected")
	ErrTransport        = goerr.New("structuring backend request failed")
	ErrSchema           = goerr.New("structuring backend response does not match the expected schema")
	ErrEmptyResponse    = goerr.New("structuring backend returned empty content")
	ErrNoStructureFound = goerr.New("no structured data found in structuring backend response")
)

// Store errors
var (
	ErrStoreWrite = goerr.New("failed to write to knowledge store")
	ErrStoreQuery = goerr.New("failed to query knowledge store")
)

// Other errors
var (
	ErrNotification = goerr.New("failed to send notification")
	ErrConfig       = goerr.New("invalid configuration")
	ErrTaskRunning  = goerr.New("another task is already running")
)

// Context keys for error values
const (
	StoreIDKey    = "store_id"
	RecordIDKey   = "record_id"
	SourceKindKey = "source_kind"
	ContractKey   = "contract"
)

// IsInputError reports whether err is an InputError
func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptyContent) || errors.Is(err, ErrInvalidInput)
}

// IsExtractionError reports whether err is an ExtractionError
func IsExtractionError(err error) bool {
	return errors.Is(err, ErrFetch) || errors.Is(err, ErrFileNotFound) || errors.Is(err, ErrOCR)
}

// IsStructuringError reports whether err is a StructuringError
func IsStructuringError(err error) bool {
	for _, target := range []error{ErrAuth, ErrTransport, ErrSchema, ErrEmptyResponse, ErrNoStructureFound} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
