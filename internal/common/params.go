package common

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

var errNonPositiveID = errors.New("id must be positive")

// ParseID parses a positive numeric identifier such as an order or product id.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, errNonPositiveID
	}
	return id, nil
}

// URLParamID reads a route parameter with ParseID and maps failures to a
// 400 INVALID_ID error.
func URLParamID(r *http.Request, name string) (int64, error) {
	id, err := ParseID(chi.URLParam(r, name))
	if err != nil {
		return 0, NewAppError("INVALID_ID", "invalid "+name, http.StatusBadRequest, err)
	}
	return id, nil
}
