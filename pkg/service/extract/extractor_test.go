package extract_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/domain/types"
	"github.com/secmon-lab/mindforge/pkg/service/extract"
)

type fakeFetcher struct {
	text string
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)
	return f.text, f.err
}

type fakeRecognizer struct {
	text  string
	err   error
	paths []string
}

func (f *fakeRecognizer) Recognize(_ context.Context, path string) (string, error) {
	f.paths = append(f.paths, path)
	return f.text, f.err
}

func writeTempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.png")
	gt.NoError(t, os.WriteFile(path, []byte("png"), 0o600)).Required()
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestExtract(t *testing.T) {
	ctx := context.Background()

	testCases := map[string]struct {
		capture func(t *testing.T) model.RawCapture
		fetcher *fakeFetcher
		ocr     *fakeRecognizer
		want    string
		wantErr error
	}{
		"text passes through": {
			capture: func(t *testing.T) model.RawCapture { return model.NewTextCapture("  note body ") },
			want:    "  note body ",
		},
		"blank text": {
			capture: func(t *testing.T) model.RawCapture { return model.NewTextCapture(" \n\t") },
			wantErr: model.ErrEmptyContent,
		},
		"url fetched": {
			capture: func(t *testing.T) model.RawCapture { return model.NewURLCapture("https://example.com/a") },
			fetcher: &fakeFetcher{text: "Title: A\n\nbody"},
			want:    "Title: A\n\nbody",
		},
		"url fetch failure": {
			capture: func(t *testing.T) model.RawCapture { return model.NewURLCapture("https://example.com/a") },
			fetcher: &fakeFetcher{err: model.ErrFetch},
			wantErr: model.ErrFetch,
		},
		"url without fetcher": {
			capture: func(t *testing.T) model.RawCapture { return model.NewURLCapture("https://example.com/a") },
			wantErr: model.ErrInvalidInput,
		},
		"image recognized blank": {
			capture: func(t *testing.T) model.RawCapture { return model.NewImageCapture(writeTempImage(t), false) },
			ocr:     &fakeRecognizer{text: "   "},
			wantErr: model.ErrEmptyContent,
		},
		"unknown kind": {
			capture: func(t *testing.T) model.RawCapture {
				return model.RawCapture{Content: "x", SourceKind: types.SourceKind("fax")}
			},
			wantErr: model.ErrInvalidInput,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var fetcher extract.Fetcher
			if tc.fetcher != nil {
				fetcher = tc.fetcher
			}
			var ocr extract.Recognizer
			if tc.ocr != nil {
				ocr = tc.ocr
			}

			got, err := extract.New(fetcher, ocr).Extract(ctx, tc.capture(t))
			if tc.wantErr != nil {
				gt.Error(t, err).Is(tc.wantErr)
				return
			}
			gt.NoError(t, err).Required()
			gt.Value(t, got).Equal(tc.want)
		})
	}
}

func TestExtractRemovesTemporaryImage(t *testing.T) {
	ctx := context.Background()

	t.Run("removed after success", func(t *testing.T) {
		path := writeTempImage(t)
		ocr := &fakeRecognizer{text: "hello"}

		got, err := extract.New(nil, ocr).Extract(ctx, model.NewImageCapture(path, true))
		gt.NoError(t, err).Required()
		gt.Value(t, got).Equal("hello")
		gt.Array(t, ocr.paths).Length(1)
		gt.Bool(t, fileExists(path)).False()
	})

	t.Run("removed after failure", func(t *testing.T) {
		path := writeTempImage(t)
		ocr := &fakeRecognizer{err: errors.New("boom")}

		_, err := extract.New(nil, ocr).Extract(ctx, model.NewImageCapture(path, true))
		gt.Value(t, err).NotNil()
		gt.Bool(t, fileExists(path)).False()
	})

	t.Run("kept when not temporary", func(t *testing.T) {
		path := writeTempImage(t)
		ocr := &fakeRecognizer{text: "hello"}

		_, err := extract.New(nil, ocr).Extract(ctx, model.NewImageCapture(path, false))
		gt.NoError(t, err).Required()
		gt.Bool(t, fileExists(path)).True()
	})
}
