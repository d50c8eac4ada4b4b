package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/vcgate/vcgate/pkg/access"
	"github.com/vcgate/vcgate/pkg/extension"
	"github.com/vcgate/vcgate/pkg/proto"
	"github.com/vcgate/vcgate/pkg/utils"
	"github.com/vcgate/vcgate/pkg/vcs"
)

// maxBodySize limits the size of API request bodies.
const maxBodySize = 8 << 20

// ErrorResponse is the body of an API error.
type ErrorResponse struct {
	Message string `json:"message"`
}

func renderStatus(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
		io.WriteString(w, fmt.Sprintf("%d %s", code, http.StatusText(code))) //nolint:errcheck,gosec
	}
}

func renderJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("error encoding json", "err", err)
	}
}

// renderError renders err with the status code of its kind. Unexpected
// errors are logged and hidden from the client.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	code := errorStatus(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.FromContext(r.Context()).Error("request failed", "err", err)
		msg = http.StatusText(code)
	}
	renderJSON(w, code, ErrorResponse{Message: msg})
}

func errorStatus(err error) int {
	var denied *access.DeniedError
	switch {
	case errors.As(err, &denied):
		return http.StatusForbidden
	case errors.Is(err, proto.ErrRepoNotFound),
		errors.Is(err, proto.ErrAccountNotFound),
		errors.Is(err, proto.ErrUserNotFound),
		errors.Is(err, proto.ErrOperationNotFound):
		return http.StatusNotFound
	case errors.Is(err, proto.ErrRepoExist),
		errors.Is(err, proto.ErrAccountExist),
		errors.Is(err, proto.ErrUserExist):
		return http.StatusConflict
	case errors.Is(err, proto.ErrMalformedOperation),
		errors.Is(err, proto.ErrInvalidLabelCount),
		errors.Is(err, proto.ErrInvalidSourceItems):
		return http.StatusUnprocessableEntity
	case errors.Is(err, extension.ErrUnknownMethod),
		errors.Is(err, extension.ErrInvalidData),
		errors.Is(err, vcs.ErrUnknownBackend),
		errors.Is(err, utils.ErrEmptyName),
		errors.Is(err, utils.ErrInvalidRepo),
		errors.Is(err, utils.ErrInvalidUsername),
		errors.Is(err, utils.ErrInvalidAccountName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes the request body into v. It renders a bad request
// and returns false when the body can't be decoded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		log.FromContext(r.Context()).Debug("error decoding json", "err", err)
		renderJSON(w, http.StatusBadRequest, ErrorResponse{
			Message: fmt.Sprintf("invalid request body: %v", err),
		})
		return false
	}
	return true
}

// HTTP error response handling functions

func renderBadRequest(w http.ResponseWriter, r *http.Request) {
	renderStatus(http.StatusBadRequest)(w, r)
}

func renderMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if r.Proto == "HTTP/1.1" {
		renderStatus(http.StatusMethodNotAllowed)(w, r)
	} else {
		renderBadRequest(w, r)
	}
}

func renderNotFound(w http.ResponseWriter, r *http.Request) {
	renderStatus(http.StatusNotFound)(w, r)
}

func renderUnauthorized(w http.ResponseWriter, r *http.Request) {
	renderStatus(http.StatusUnauthorized)(w, r)
}

func renderForbidden(w http.ResponseWriter, r *http.Request) {
	renderStatus(http.StatusForbidden)(w, r)
}
