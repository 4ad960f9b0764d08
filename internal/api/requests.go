package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/erazemk/menjava/internal/exchange"
	"github.com/erazemk/menjava/internal/model"
	"github.com/erazemk/menjava/internal/store"
)

// RequestsHandler handles exchange request endpoints.
type RequestsHandler struct {
	Catalog  store.Catalog
	Exchange *exchange.Controller
}

type createExchangeRequest struct {
	RequestedItemID int64  `json:"requested_item_id"`
	OfferedItemID   int64  `json:"offered_item_id"`
	Message         string `json:"message"`
}

// Create handles POST /api/requests. The caller must own the offered item.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createExchangeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RequestedItemID <= 0 || req.OfferedItemID <= 0 {
		jsonError(w, http.StatusBadRequest, "requested_item_id and offered_item_id required")
		return
	}

	claims := GetClaims(r.Context())
	offered, err := h.Catalog.GetItem(r.Context(), req.OfferedItemID)
	if err != nil {
		writeError(w, err)
		return
	}
	if offered == nil || offered.DeletedAt != nil {
		writeError(w, fmt.Errorf("offered item %d: %w", req.OfferedItemID, model.ErrNotFound))
		return
	}
	if offered.OwnerID != claims.UserID {
		writeError(w, fmt.Errorf("%w: you can only offer your own items", model.ErrForbidden))
		return
	}

	created, err := h.Exchange.Create(r.Context(), claims.UserID, req.RequestedItemID, req.OfferedItemID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, created)
}

// List handles GET /api/requests?box=sent|received. Sent is the default.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var (
		reqs []model.ExchangeRequest
		err  error
	)
	switch box := r.URL.Query().Get("box"); box {
	case "", "sent":
		reqs, err = h.Exchange.ListSent(r.Context(), claims.UserID)
	case "received":
		reqs, err = h.Exchange.ListReceived(r.Context(), claims.UserID)
	default:
		jsonError(w, http.StatusBadRequest, "box must be sent or received")
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, reqs)
}

// Get handles GET /api/requests/{id}. Only the two parties and moderators
// may see a request.
func (h *RequestsHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	req, err := h.Exchange.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if req.RequesterID != claims.UserID && !model.RoleAtLeast(claims.Role, model.RoleModerator) {
		if err := h.Exchange.Authorize(r.Context(), claims.UserID, id); err != nil {
			if errors.Is(err, model.ErrForbidden) {
				// Do not reveal that the request exists.
				err = fmt.Errorf("exchange request %s: %w", id, model.ErrNotFound)
			}
			writeError(w, err)
			return
		}
	}
	jsonResponse(w, http.StatusOK, req)
}

// Transition handles POST /api/requests/{id}/{event} for accept, reject and
// complete. Only the owner of the requested item may apply them.
func (h *RequestsHandler) Transition(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	ev, err := model.ParseEvent(r.PathValue("event"))
	if err != nil {
		jsonError(w, http.StatusNotFound, "unknown action")
		return
	}

	if err := h.Exchange.Authorize(r.Context(), claims.UserID, id); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.Exchange.Transition(r.Context(), id, ev)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}
