package extract

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/domain/types"
	"github.com/secmon-lab/mindforge/pkg/utils/logging"
	"github.com/secmon-lab/mindforge/pkg/utils/safe"
)

// Fetcher returns the main article text of a web page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Recognizer returns the text recognized in an image file
type Recognizer interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// Extractor normalizes a raw capture into one raw text
type Extractor struct {
	fetcher    Fetcher
	recognizer Recognizer
}

// New creates an extractor. Either collaborator may be nil, in which case that source
// kind is rejected.
func New(fetcher Fetcher, recognizer Recognizer) *Extractor {
	return &Extractor{fetcher: fetcher, recognizer: recognizer}
}

// Extract returns the raw text of capture. Whitespace-only content fails with
// model.ErrEmptyContent whatever the source kind. A temporary image is removed on
// every exit path.
func (x *Extractor) Extract(ctx context.Context, capture model.RawCapture) (string, error) {
	if capture.SourceKind == types.SourceKindImage && capture.Temporary {
		defer safe.Remove(ctx, capture.Content)
	}

	logger := logging.From(ctx).With(model.SourceKindKey, capture.SourceKind)

	var text string
	switch capture.SourceKind {
	case types.SourceKindText:
		text = capture.Content

	case types.SourceKindURL:
		if x.fetcher == nil {
			return "", goerr.Wrap(model.ErrInvalidInput, "URL capture is not supported")
		}
		if strings.TrimSpace(capture.Content) == "" {
			return "", goerr.Wrap(model.ErrEmptyContent, "URL is empty")
		}
		logger.Info("fetching web page", "url", capture.Content)
		fetched, err := x.fetcher.Fetch(ctx, capture.Content)
		if err != nil {
			return "", err
		}
		text = fetched

	case types.SourceKindImage:
		if x.recognizer == nil {
			return "", goerr.Wrap(model.ErrInvalidInput, "image capture is not supported")
		}
		logger.Info("recognizing image text", "path", capture.Content)
		recognized, err := x.recognizer.Recognize(ctx, capture.Content)
		if err != nil {
			return "", err
		}
		text = recognized

	default:
		return "", goerr.Wrap(model.ErrInvalidInput, "unknown source kind", goerr.V(model.SourceKindKey, capture.SourceKind))
	}

	if strings.TrimSpace(text) == "" {
		return "", goerr.Wrap(model.ErrEmptyContent, "extracted content is empty", goerr.V(model.SourceKindKey, capture.SourceKind))
	}

	logger.Debug("content extracted", "length", len([]rune(text)))
	return text, nil
}
