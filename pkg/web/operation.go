package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/vcgate/vcgate/pkg/access"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/proto"
)

// OperationRequest is the body of operation check and ingest requests. The
// repository is taken from the request path.
type OperationRequest struct {
	Operation proto.Operation `json:"operation"`
	Items     []proto.Item    `json:"items"`
}

// OperationResponse is an operation with its items and, for proposals,
// the arbitration decision.
type OperationResponse struct {
	Operation *proto.Operation `json:"operation,omitempty"`
	Items     []proto.Item     `json:"items,omitempty"`
	Decision  *access.Decision `json:"decision,omitempty"`
	Message   string           `json:"message,omitempty"`
}

func decodeProposal(w http.ResponseWriter, r *http.Request) (*proto.Operation, []proto.Item, bool) {
	var req OperationRequest
	if !decodeJSON(w, r, &req) {
		return nil, nil, false
	}

	op := req.Operation
	op.Repository = &proto.Repository{Name: mux.Vars(r)["repo"]}
	return &op, req.Items, true
}

func postOperationCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)

	op, items, ok := decodeProposal(w, r)
	if !ok {
		return
	}

	dec, err := be.AuthorizeOperation(ctx, op, items)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, dec)
}

func postOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)

	op, items, ok := decodeProposal(w, r)
	if !ok {
		return
	}

	dec, err := be.Ingest(ctx, op, items)
	var denied *access.DeniedError
	switch {
	case errors.As(err, &denied):
		renderJSON(w, http.StatusForbidden, OperationResponse{
			Decision: &dec,
			Message:  dec.Message(),
		})
	case err != nil:
		renderError(w, r, err)
	default:
		renderJSON(w, http.StatusCreated, OperationResponse{
			Operation: op,
			Items:     items,
			Decision:  &dec,
		})
	}
}

// operationFilter reads the operation filter from the query parameters:
// repeated "type", "author", "label", RFC 3339 "since" and "until", and
// "limit" and "offset".
func operationFilter(r *http.Request) (backend.OperationFilter, error) {
	q := r.URL.Query()
	filter := backend.OperationFilter{
		Repository: mux.Vars(r)["repo"],
		Author:     q.Get("author"),
		Label:      q.Get("label"),
	}

	for _, s := range q["type"] {
		var t proto.OperationType
		if err := t.UnmarshalText([]byte(s)); err != nil {
			return filter, fmt.Errorf("type %q: %w", s, err)
		}
		filter.Types = append(filter.Types, t)
	}

	for name, dst := range map[string]*time.Time{"since": &filter.Since, "until": &filter.Until} {
		if s := q.Get(name); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return filter, fmt.Errorf("%s: %w", name, err)
			}
			*dst = t
		}
	}

	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if s := q.Get(name); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				return filter, fmt.Errorf("%s: invalid value %q", name, s)
			}
			*dst = n
		}
	}

	return filter, nil
}

func getOperations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)

	filter, err := operationFilter(r)
	if err != nil {
		renderJSON(w, http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	ops, err := be.Operations(ctx, filter)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, ops)
}

func operationID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func getOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)

	id, err := operationID(r)
	if err != nil {
		renderNotFound(w, r)
		return
	}

	op, err := be.Operation(ctx, id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	items, err := be.OperationItems(ctx, id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, OperationResponse{Operation: op, Items: items})
}

func deleteOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)

	id, err := operationID(r)
	if err != nil {
		renderNotFound(w, r)
		return
	}

	if err := be.DeleteOperation(ctx, id); err != nil {
		renderError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
