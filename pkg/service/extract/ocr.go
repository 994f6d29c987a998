package extract

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
)

const (
	// DefaultOCRLanguages recognizes English and Traditional Chinese
	DefaultOCRLanguages = "eng+chi_tra"
	defaultOCRCommand   = "tesseract"
)

// OCR recognizes text with the tesseract command line tool
type OCR struct {
	command   string
	languages string
}

// OCROption configures OCR
type OCROption func(*OCR)

// WithOCRCommand sets the tesseract executable
func WithOCRCommand(command string) OCROption {
	return func(x *OCR) {
		if command != "" {
			x.command = command
		}
	}
}

// WithOCRLanguages sets the tesseract language set, e.g. "eng+jpn"
func WithOCRLanguages(languages string) OCROption {
	return func(x *OCR) {
		if languages != "" {
			x.languages = languages
		}
	}
}

// NewOCR creates a recognizer
func NewOCR(opts ...OCROption) *OCR {
	x := &OCR{command: defaultOCRCommand, languages: DefaultOCRLanguages}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

var _ Recognizer = &OCR{}

// Recognize runs "tesseract <path> stdout -l <languages>"
func (x *OCR) Recognize(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", goerr.Wrap(model.ErrFileNotFound, "image file not found", goerr.V("path", path))
		}
		return "", goerr.Wrap(model.ErrFileNotFound, "cannot access image file", goerr.V("path", path), goerr.V("cause", err.Error()))
	}
	if info.IsDir() {
		return "", goerr.Wrap(model.ErrFileNotFound, "image path is a directory", goerr.V("path", path))
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, x.command, path, "stdout", "-l", x.languages)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", goerr.Wrap(model.ErrOCR, "text recognition failed",
			goerr.V("path", path),
			goerr.V("languages", x.languages),
			goerr.V("stderr", strings.TrimSpace(stderr.String())),
			goerr.V("cause", err.Error()))
	}

	return stdout.String(), nil
}
