package extract

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/m-mizutani/goerr/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/utils/safe"
	"golang.org/x/net/html"
)

const (
	// DefaultUserAgent is a desktop browser identity; many sites reject unknown clients
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultTimeout   = 15 * time.Second
	maxBodyBytes     = 10 * 1024 * 1024
)

// Web fetches a page and extracts its main article as markdown
type Web struct {
	client    *http.Client
	userAgent string
	policy    *bluemonday.Policy
	converter *converter.Converter
}

var _ Fetcher = &Web{}

// WebOption configures Web
type WebOption func(*Web)

// WithWebHTTPClient replaces the HTTP client
func WithWebHTTPClient(c *http.Client) WebOption {
	return func(w *Web) {
		w.client = c
	}
}

// WithUserAgent replaces the User-Agent header
func WithUserAgent(ua string) WebOption {
	return func(w *Web) {
		if ua != "" {
			w.userAgent = ua
		}
	}
}

// NewWeb creates a fetcher with a bounded request duration
func NewWeb(opts ...WebOption) *Web {
	w := &Web{
		client:    &http.Client{Timeout: defaultTimeout},
		userAgent: DefaultUserAgent,
		policy:    bluemonday.UGCPolicy(),
		converter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Fetch returns "Title: <title>\n\n<article markdown>"
func (x *Web) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", goerr.Wrap(model.ErrInvalidInput, "URL must be absolute http or https", goerr.V("url", rawURL))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", goerr.Wrap(model.ErrFetch, "failed to create request", goerr.V("url", rawURL), goerr.V("cause", err.Error()))
	}
	req.Header.Set("User-Agent", x.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := x.client.Do(req)
	if err != nil {
		return "", goerr.Wrap(model.ErrFetch, "failed to fetch page", goerr.V("url", rawURL), goerr.V("cause", err.Error()))
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", goerr.Wrap(model.ErrFetch, "unexpected status", goerr.V("url", rawURL), goerr.V("status", resp.StatusCode))
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", goerr.Wrap(model.ErrFetch, "failed to parse page", goerr.V("url", rawURL), goerr.V("cause", err.Error()))
	}

	title := documentTitle(doc)
	node := mainContent(doc)
	if node == nil {
		return "", goerr.Wrap(model.ErrFetch, "page has no extractable body", goerr.V("url", rawURL))
	}

	text := x.toMarkdown(render(node), u)
	if text == "" {
		text = visibleText(node)
	}
	if strings.TrimSpace(text) == "" {
		return "", goerr.Wrap(model.ErrFetch, "page has no extractable body", goerr.V("url", rawURL))
	}

	return "Title: " + title + "\n\n" + text, nil
}

// toMarkdown sanitizes the article HTML and converts it. It returns "" when the
// conversion fails so the caller can fall back to plain text.
func (x *Web) toMarkdown(fragment string, u *url.URL) string {
	clean := x.policy.Sanitize(fragment)
	md, err := x.converter.ConvertString(clean, converter.WithDomain(u.Scheme+"://"+u.Host))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(md)
}
