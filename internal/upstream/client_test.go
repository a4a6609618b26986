package upstream

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonamobi/zonamobi/internal/config"
	"github.com/zonamobi/zonamobi/internal/content"
)

func newTestClient(server *httptest.Server) *Client {
	return NewClient(config.UpstreamConfig{BaseURL: server.URL, Timeout: 5}, zerolog.Nop())
}

func TestClient_Request_Headers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		assert.Equal(t, "gzip, deflate, br", r.Header.Get("Accept-Encoding"))
		assert.Equal(t, "application/json, text/javascript, */*; q=0.01", r.Header.Get("Accept"))
		assert.Equal(t, "/tvseries/dark/season-2", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("page"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	resp, err := client.Request(context.Background(), EndpointSeason,
		Params{"name_id": "dark", "season": "2"}, url.Values{"page": {"3"}})
	require.NoError(t, err)
	assert.False(t, resp.Absent)
	assert.Equal(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, "season", resp.Endpoint)
}

func TestClient_Request_UserAgentOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "custom/1.0", r.Header.Get("User-Agent"))
	}))
	defer server.Close()

	client := NewClient(config.UpstreamConfig{BaseURL: server.URL, UserAgent: "custom/1.0"}, zerolog.Nop())
	_, err := client.Request(context.Background(), EndpointMain, nil, nil)
	require.NoError(t, err)
}

func TestClient_Request_UnresolvedPlaceholder(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.Request(context.Background(), EndpointDetails, Params{"content": "movies"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolvedPlaceholder))
	assert.False(t, called, "no request should be issued")
}

func TestClient_Request_NotFoundIsAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server)
	resp, err := client.Request(context.Background(), EndpointMain, nil, nil)
	require.NoError(t, err)
	assert.True(t, resp.Absent)

	_, err = client.DetailBody(context.Background(), content.TypeMovie, "missing")
	assert.True(t, errors.Is(err, content.ErrNotFound))
	assert.True(t, IsAbsent(err))
}

func TestClient_Request_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.Request(context.Background(), EndpointMain, nil, nil)
	require.Error(t, err)

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, KindHTTP, netErr.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, netErr.StatusCode)

	status, ok := IsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 503, status)
	assert.False(t, IsConnectionError(err))
}

func TestClient_Request_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(server)
	server.Close()

	_, err := client.Request(context.Background(), EndpointMain, nil, nil)
	require.Error(t, err)
	assert.True(t, IsConnectionError(err))
}

func TestClient_Request_ContentEncodings(t *testing.T) {
	payload := []byte(`{"current_year":2024}`)

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	gw.Write(payload)
	gw.Close()

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	bw.Write(payload)
	bw.Close()

	tests := []struct {
		name     string
		encoding string
		body     []byte
	}{
		{"identity", "", payload},
		{"gzip", "gzip", gz.Bytes()},
		{"brotli", "br", br.Bytes()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				w.Write(tt.body)
			}))
			defer server.Close()

			client := newTestClient(server)
			page, err := client.MainPage(context.Background())
			require.NoError(t, err)
			assert.Equal(t, FlexInt(2024), page.CurrentYear)
		})
	}
}

func TestClient_Browse_Paths(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{"title_h1":"Movies","items":[],"pagination":{"total_pages":1}}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	ctx := context.Background()

	_, err := client.Browse(ctx, content.TypeMovie, content.FilterValues{Genre: "drama", Year: "2020"}, 1)
	require.NoError(t, err)
	_, err = client.Browse(ctx, content.TypeSeries, content.FilterValues{Genre: "drama", Sort: content.SortUpdates}, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"/movies/filter/genre-drama/year-2020", "/updates/tvseries"}, paths)
}

func TestClient_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.FilterWidget(context.Background())

	var malformed *content.MalformedUpstreamError
	assert.True(t, errors.As(err, &malformed))
}

func TestEndpoint_Expand(t *testing.T) {
	path, err := EndpointBrowse.Expand(Params{"content": "movies", "filter": "filter/genre-drama"})
	require.NoError(t, err)
	assert.Equal(t, "/movies/filter/genre-drama", path)

	path, err = EndpointSearch.Expand(Params{"keyword": "во все тяжкие"})
	require.NoError(t, err)
	assert.Equal(t, "/search//"+url.PathEscape("во все тяжкие"), path)

	_, err = EndpointVideo.Expand(nil)
	assert.ErrorIs(t, err, ErrUnresolvedPlaceholder)
}

func TestFilterPath(t *testing.T) {
	tests := []struct {
		name   string
		values content.FilterValues
		want   string
	}{
		{"empty", content.FilterValues{}, ""},
		{"single", content.FilterValues{Rating: "7"}, "filter/rating-7"},
		{"ordered", content.FilterValues{Sort: "date", Country: "usa", Genre: "comedy", Year: "90s", Rating: "5"},
			"filter/genre-comedy/year-90s/country-usa/rating-5/sort-date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterPath(tt.values))
		})
	}
}
