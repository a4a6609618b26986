package upstream

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/zonamobi/zonamobi/internal/content"
)

// Endpoint is a named URL path template. Tokens are written as #name and
// filled from Params.
type Endpoint struct {
	Name string
	Path string
}

var (
	EndpointMain    = Endpoint{Name: "main", Path: "/"}
	EndpointFilters = Endpoint{Name: "filters", Path: "/ajax/widget/filter"}
	EndpointVideo   = Endpoint{Name: "video", Path: "/api/v1/video/#mobi_link_id"}
	EndpointSearch  = Endpoint{Name: "search", Path: "/search//#keyword"}
	EndpointBrowse  = Endpoint{Name: "browse", Path: "/#content/#filter"}
	EndpointUpdates = Endpoint{Name: "updates", Path: "/updates/#content"}
	EndpointDetails = Endpoint{Name: "details", Path: "/#content/#name_id"}
	EndpointSeason  = Endpoint{Name: "season", Path: "/tvseries/#name_id/season-#season"}
)

// Params maps token names (without the leading #) to values.
type Params map[string]string

var placeholderPattern = regexp.MustCompile(`#[A-Za-z_][A-Za-z0-9_]*`)

// Expand substitutes every token in the endpoint path. Values are
// path-escaped per segment, so slashes inside a value are kept as separators.
func (e Endpoint) Expand(params Params) (string, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	// longest first so "#name" never eats part of "#name_id"
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	path := e.Path
	for _, k := range keys {
		path = strings.ReplaceAll(path, "#"+k, escapeSegments(params[k]))
	}

	if token := placeholderPattern.FindString(path); token != "" {
		return "", fmt.Errorf("%w: %s in endpoint %s", ErrUnresolvedPlaceholder, token, e.Name)
	}
	return path, nil
}

func escapeSegments(v string) string {
	parts := strings.Split(v, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// ContentPath returns the upstream path segment for a title type.
func ContentPath(t content.ContentType) string {
	if t == content.TypeMovie {
		return "movies"
	}
	return "tvseries"
}

// FilterPath builds the filter segment of a browse URL, e.g.
// "filter/genre-drama/year-2020". Empty values are skipped; no values yields "".
func FilterPath(f content.FilterValues) string {
	values := map[content.FilterKey]string{
		content.FilterGenre:   f.Genre,
		content.FilterYear:    f.Year,
		content.FilterCountry: f.Country,
		content.FilterRating:  f.Rating,
		content.FilterSort:    f.Sort,
	}

	parts := make([]string, 0, len(content.FilterKeys)+1)
	for _, key := range content.FilterKeys {
		if v := values[key]; v != "" {
			parts = append(parts, string(key)+"-"+v)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "filter/" + strings.Join(parts, "/")
}
