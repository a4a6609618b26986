// Package upstream is the HTTP transport for the zona catalog API: endpoint
// templates, browser-like request headers, body decoding and failure
// classification. It performs no retries.
package upstream

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/zonamobi/zonamobi/internal/config"
	"github.com/zonamobi/zonamobi/internal/content"
)

// DefaultUserAgent is the desktop browser identity upstream expects.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:54.0) Gecko/20100101 Firefox/54.0"

// Response is a completed upstream exchange. Absent is set for 404, which
// is not an error at this layer.
type Response struct {
	Endpoint   string
	URL        string
	StatusCode int
	Body       []byte
	Absent     bool
}

// Client is the zona API client.
type Client struct {
	httpClient *http.Client
	config     config.UpstreamConfig
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a new upstream client.
func NewClient(cfg config.UpstreamConfig, logger zerolog.Logger) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "upstream").Logger(),
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// BaseURL returns the configured API root without a trailing slash.
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.config.BaseURL, "/")
}

// Request expands the endpoint template, issues a GET and returns the
// decoded body.
func (c *Client) Request(ctx context.Context, ep Endpoint, params Params, query url.Values) (*Response, error) {
	path, err := ep.Expand(params)
	if err != nil {
		return nil, err
	}

	reqURL := c.BaseURL() + path
	if len(query) > 0 {
		reqURL = reqURL + "?" + query.Encode()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Error().Err(err).Str("endpoint", ep.Name).Str("url", reqURL).Msg("HTTP request failed")
		return nil, &NetworkError{Kind: KindConnection, URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("endpoint", ep.Name).
		Str("url", reqURL).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Upstream request")

	out := &Response{Endpoint: ep.Name, URL: reqURL, StatusCode: resp.StatusCode}

	if resp.StatusCode == http.StatusNotFound {
		out.Absent = true
		return out, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{Kind: KindHTTP, StatusCode: resp.StatusCode, URL: reqURL}
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, &NetworkError{Kind: KindConnection, URL: reqURL, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	out.Body = body
	return out, nil
}

func (c *Client) setHeaders(req *http.Request) {
	ua := c.config.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
}

// readBody decodes the body per Content-Encoding. Setting Accept-Encoding
// ourselves disables net/http's transparent gzip handling.
func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	case "br":
		r = brotli.NewReader(resp.Body)
	case "deflate":
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		// servers disagree on zlib-wrapped vs raw deflate
		if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
			defer zr.Close()
			return io.ReadAll(zr)
		}
		fr := flate.NewReader(bytes.NewReader(raw))
		defer fr.Close()
		return io.ReadAll(fr)
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}

	return io.ReadAll(r)
}

// Decode unmarshals a response body, reporting failures as malformed payloads.
func Decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return &content.MalformedUpstreamError{Err: err}
	}
	return nil
}

// getJSON issues a request and decodes the body. Absent resources map to
// content.ErrNotFound.
func (c *Client) getJSON(ctx context.Context, ep Endpoint, params Params, query url.Values, out any) error {
	resp, err := c.Request(ctx, ep, params, query)
	if err != nil {
		return err
	}
	if resp.Absent {
		return fmt.Errorf("%s: %w", resp.URL, content.ErrNotFound)
	}
	return Decode(resp.Body, out)
}

// getRaw issues a request and returns the undecoded body.
func (c *Client) getRaw(ctx context.Context, ep Endpoint, params Params) ([]byte, error) {
	resp, err := c.Request(ctx, ep, params, nil)
	if err != nil {
		return nil, err
	}
	if resp.Absent {
		return nil, fmt.Errorf("%s: %w", resp.URL, content.ErrNotFound)
	}
	return resp.Body, nil
}

func pageQuery(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": []string{strconv.Itoa(page)}}
}

// MainPage fetches the root page, which reports the current catalog year.
func (c *Client) MainPage(ctx context.Context) (*MainPage, error) {
	var out MainPage
	if err := c.getJSON(ctx, EndpointMain, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FilterWidget fetches the genre and country lists.
func (c *Client) FilterWidget(ctx context.Context) (*Widget, error) {
	var out Widget
	if err := c.getJSON(ctx, EndpointFilters, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VideoLinks fetches the stream URLs for a playback id.
func (c *Client) VideoLinks(ctx context.Context, playbackID string) (*VideoLinks, error) {
	var out VideoLinks
	if err := c.getJSON(ctx, EndpointVideo, Params{"mobi_link_id": playbackID}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Browse fetches one filtered listing page for movies or tvseries.
func (c *Client) Browse(ctx context.Context, t content.ContentType, filter content.FilterValues, page int) (*Listing, error) {
	var (
		out    Listing
		ep     = EndpointBrowse
		params = Params{"content": ContentPath(t)}
	)
	if filter.IsUpdates() {
		ep = EndpointUpdates
	} else {
		params["filter"] = FilterPath(filter)
	}
	if err := c.getJSON(ctx, ep, params, pageQuery(page), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search fetches one page of keyword search results.
func (c *Client) Search(ctx context.Context, keyword string, page int) (*SearchResult, error) {
	var out SearchResult
	if err := c.getJSON(ctx, EndpointSearch, Params{"keyword": keyword}, pageQuery(page), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DetailBody fetches the raw detail payload of a movie or series.
func (c *Client) DetailBody(ctx context.Context, t content.ContentType, titleID string) ([]byte, error) {
	return c.getRaw(ctx, EndpointDetails, Params{"content": ContentPath(t), "name_id": titleID})
}

// SeasonBody fetches the raw payload of one season of a series.
func (c *Client) SeasonBody(ctx context.Context, titleID string, season int) ([]byte, error) {
	return c.getRaw(ctx, EndpointSeason, Params{"name_id": titleID, "season": strconv.Itoa(season)})
}

// ParseDetail decodes a detail or season payload.
func ParseDetail(body []byte) (*Detail, error) {
	var d Detail
	if err := Decode(body, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// IsAbsent reports whether err means upstream answered 404.
func IsAbsent(err error) bool {
	return errors.Is(err, content.ErrNotFound)
}
