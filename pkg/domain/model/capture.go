package model

import (
	"strings"

	"github.com/secmon-lab/mindforge/pkg/domain/types"
)

// RawCapture is the unprocessed input of one ingestion. It is consumed once by the
// extractor and never persisted directly.
type RawCapture struct {
	Content    string // text itself, URL to fetch, or image path
	SourceKind types.SourceKind
	OriginURL  string
	// Temporary marks an image file owned by the pipeline; it is removed after extraction
	Temporary bool
}

// NewTextCapture creates a capture of free text
func NewTextCapture(text string) RawCapture {
	return RawCapture{Content: text, SourceKind: types.SourceKindText}
}

// NewURLCapture creates a capture of a web page
func NewURLCapture(url string) RawCapture {
	url = strings.TrimSpace(url)
	return RawCapture{Content: url, SourceKind: types.SourceKindURL, OriginURL: url}
}

// NewImageCapture creates a capture of an image file on local disk
func NewImageCapture(path string, temporary bool) RawCapture {
	return RawCapture{Content: path, SourceKind: types.SourceKindImage, Temporary: temporary}
}
