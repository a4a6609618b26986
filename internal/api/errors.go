package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zonamobi/zonamobi/internal/content"
	"github.com/zonamobi/zonamobi/internal/upstream"
)

// httpError maps catalog errors onto HTTP statuses. Caller mistakes are 400,
// missing titles and unplayable items 404, upstream trouble 502.
func httpError(err error) *echo.HTTPError {
	var (
		resErr       *content.ResolutionError
		malformed    *content.MalformedUpstreamError
		networkError *upstream.NetworkError
	)

	switch {
	case errors.Is(err, content.ErrInvalidSelector), errors.Is(err, upstream.ErrUnresolvedPlaceholder):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, content.ErrNotFound), errors.As(err, &resErr):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &networkError), errors.As(err, &malformed):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
}
