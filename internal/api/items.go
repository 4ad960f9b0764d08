package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/menjava/internal/cover"
	"github.com/erazemk/menjava/internal/match"
	"github.com/erazemk/menjava/internal/model"
	"github.com/erazemk/menjava/internal/store"
)

// ItemsHandler handles catalog endpoints.
type ItemsHandler struct {
	DB           *sql.DB
	Engine       *match.Engine
	SuggestLimit int
}

type itemRequest struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Description string   `json:"description"`
	Condition   string   `json:"condition"`
	Tags        []string `json:"tags"`
	GroupCode   string   `json:"group_code"`
	Year        int      `json:"year"`
	Status      string   `json:"status"`
}

func (req itemRequest) validate() error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: title required", model.ErrInvalidRequest)
	}
	if req.Year < 0 {
		return fmt.Errorf("%w: year must not be negative", model.ErrInvalidRequest)
	}
	_, err := model.ParseCondition(req.Condition)
	return err
}

func (req itemRequest) apply(item *model.Item) {
	item.Title = strings.TrimSpace(req.Title)
	item.Author = req.Author
	item.Description = req.Description
	item.Condition = model.Condition(req.Condition)
	item.Tags = model.NormalizeTags(req.Tags)
	item.GroupCode = strings.TrimSpace(req.GroupCode)
	item.Year = req.Year
}

// List handles GET /api/items. Repeated condition and tag parameters match
// any of the given values.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseItemFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	items, err := store.ListItems(r.Context(), h.DB, filter)
	if err != nil {
		writeError(w, model.Unavailable(model.ErrCatalogUnavailable, err))
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

func parseItemFilter(r *http.Request) (model.ItemFilter, error) {
	q := r.URL.Query()
	filter := model.ItemFilter{
		Query:     strings.TrimSpace(q.Get("q")),
		GroupCode: q.Get("group"),
		Tags:      q["tag"],
	}

	if v := q.Get("owner_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("%w: invalid owner_id", model.ErrInvalidRequest)
		}
		filter.OwnerID = id
	}
	if v := q.Get("status"); v != "" {
		filter.Status = model.ItemStatus(v)
		if !filter.Status.Valid() {
			return filter, fmt.Errorf("%w: unknown status %q", model.ErrInvalidRequest, v)
		}
	}
	for _, v := range q["condition"] {
		c, err := model.ParseCondition(v)
		if err != nil {
			return filter, err
		}
		filter.Conditions = append(filter.Conditions, c)
	}
	return filter, nil
}

// Create handles POST /api/items. The caller becomes the owner.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	item := model.Item{OwnerID: claims.UserID, Status: model.ItemAvailable}
	req.apply(&item)

	created, err := store.CreateItem(r.Context(), h.DB, item)
	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("item listed", "user", claims.Username, "item", created.ID, "title", created.Title)
	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.load(w, r, h.DB)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}. Status may be set to Available or
// Reserved; leaving it empty keeps the current one. Exchanged items keep
// their status.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}
	status := model.ItemStatus(req.Status)
	if status != "" && status != model.ItemAvailable && status != model.ItemReserved {
		writeError(w, fmt.Errorf("%w: status can only be set to %s or %s",
			model.ErrInvalidRequest, model.ItemAvailable, model.ItemReserved))
		return
	}

	ctx := r.Context()
	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		writeError(w, model.Unavailable(model.ErrCatalogUnavailable, err))
		return
	}
	defer tx.Rollback()

	item, ok := h.loadEditable(w, r, tx)
	if !ok {
		return
	}
	if status != "" && status != item.Status {
		if item.Status == model.ItemExchanged {
			writeError(w, fmt.Errorf("%w: item %d has been exchanged", model.ErrInvalidTransition, item.ID))
			return
		}
		if _, err := store.SetItemStatus(ctx, tx, item.ID, status); err != nil {
			writeError(w, model.Unavailable(model.ErrCatalogUnavailable, err))
			return
		}
	}

	req.apply(item)
	if err := store.UpdateItem(ctx, tx, *item); err != nil {
		writeError(w, err)
		return
	}

	updated, err := store.GetItem(ctx, tx, item.ID)
	if err != nil {
		writeError(w, model.Unavailable(model.ErrCatalogUnavailable, err))
		return
	}
	if err := tx.Commit(); err != nil {
		writeError(w, model.Unavailable(model.ErrCatalogUnavailable, err))
		return
	}

	slog.Info("item updated", "user", GetClaims(ctx).Username, "item", item.ID)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	item, ok := h.loadEditable(w, r, h.DB)
	if !ok {
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, item.ID); err != nil {
		writeError(w, err)
		return
	}

	slog.Info("item withdrawn", "user", GetClaims(r.Context()).Username, "item", item.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// UploadCover handles PUT /api/items/{id}/cover with a multipart "cover" file.
func (h *ItemsHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	item, ok := h.loadEditable(w, r, h.DB)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, cover.MaxUpload+1<<20)
	if err := r.ParseMultipartForm(cover.MaxUpload); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("cover")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "cover file required")
		return
	}
	defer file.Close()

	img, err := cover.Normalize(file)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := store.SetItemCover(r.Context(), h.DB, item.ID, img.Data, cover.MIME); err != nil {
		writeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"width": img.Width, "height": img.Height})
}

// GetCover handles GET /api/items/{id}/cover.
func (h *ItemsHandler) GetCover(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemCover(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no cover")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}

// Suggestions handles GET /api/items/{id}/suggestions?limit=N.
func (h *ItemsHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	limit := h.SuggestLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	results, err := h.Engine.Suggest(r.Context(), id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, results)
}

func (h *ItemsHandler) load(w http.ResponseWriter, r *http.Request, db store.DBTX) (*model.Item, bool) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return nil, false
	}

	item, err := store.GetItem(r.Context(), db, id)
	if err != nil {
		writeError(w, model.Unavailable(model.ErrCatalogUnavailable, err))
		return nil, false
	}
	if item == nil || item.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return nil, false
	}
	return item, true
}

// loadEditable is load plus the check that the caller owns the item or is
// at least a moderator.
func (h *ItemsHandler) loadEditable(w http.ResponseWriter, r *http.Request, db store.DBTX) (*model.Item, bool) {
	item, ok := h.load(w, r, db)
	if !ok {
		return nil, false
	}
	claims := GetClaims(r.Context())
	if err := canEdit(claims.UserID, claims.Role, item); err != nil {
		writeError(w, err)
		return nil, false
	}
	return item, true
}

func canEdit(userID int64, role string, item *model.Item) error {
	if item.OwnerID == userID || model.RoleAtLeast(role, model.RoleModerator) {
		return nil
	}
	return fmt.Errorf("%w: item %d belongs to another user", model.ErrForbidden, item.ID)
}
