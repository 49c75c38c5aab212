// internal/circulation/handler.go
package circulation

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"libraryledger/internal/httpjson"
)

const defaultTransactionLimit = 50

type Handler struct {
	service Service
	store   SnapshotStore
	logger  *slog.Logger
}

// NewHandler wires the lending endpoints. store may be nil, in which case
// mutations are kept in memory only.
func NewHandler(service Service, store SnapshotStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, store: store, logger: logger}
}

// Routes mounts the read-only lending endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/items/{id}/overdue", h.HandleOverdue)
	r.Get("/overdue", h.HandleListOverdue)
	r.Get("/transactions", h.HandleTransactions)
	r.Get("/stats", h.HandleStats)
}

// MutationRoutes mounts borrow and return on r, kept apart so callers can
// put them behind extra middleware.
func (h *Handler) MutationRoutes(r chi.Router) {
	r.Post("/borrow", h.HandleBorrow)
	r.Post("/return", h.HandleReturn)
}

type borrowRequest struct {
	ItemID   int    `json:"itemId"`
	MemberID int    `json:"memberId"`
	DueDate  string `json:"dueDate"`
}

type returnRequest struct {
	ItemID int `json:"itemId"`
}

func (h *Handler) HandleBorrow(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, httpjson.CodeInvalidRequestBody, "invalid request body")
		return
	}
	if req.ItemID <= 0 || req.MemberID <= 0 || req.DueDate == "" {
		httpjson.WriteError(w, http.StatusBadRequest, httpjson.CodeInvalidRequestBody, "itemId, memberId and dueDate are required")
		return
	}

	tx, err := h.service.Borrow(r.Context(), BorrowInput{
		ItemID:   req.ItemID,
		MemberID: req.MemberID,
		DueDate:  req.DueDate,
	})
	if err != nil {
		h.writeLendingError(w, r, err)
		return
	}

	h.persist(r.Context())
	httpjson.WriteJSON(w, r, http.StatusCreated, tx)
}

func (h *Handler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, httpjson.CodeInvalidRequestBody, "invalid request body")
		return
	}
	if req.ItemID <= 0 {
		httpjson.WriteError(w, http.StatusBadRequest, httpjson.CodeInvalidRequestBody, "itemId is required")
		return
	}

	tx, err := h.service.ReturnItem(r.Context(), req.ItemID)
	if err != nil {
		h.writeLendingError(w, r, err)
		return
	}

	h.persist(r.Context())
	httpjson.WriteJSON(w, r, http.StatusOK, tx)
}

func (h *Handler) HandleOverdue(w http.ResponseWriter, r *http.Request) {
	id, err := httpjson.PathID(r, "id")
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, httpjson.CodeInvalidID, err.Error())
		return
	}
	if _, ok := h.service.GetItem(id); !ok {
		httpjson.WriteError(w, http.StatusNotFound, CodeItemNotFound, ErrItemNotFound.Error())
		return
	}
	httpjson.WriteJSON(w, r, http.StatusOK, map[string]any{
		"itemId":  id,
		"overdue": h.service.IsOverdue(id),
	})
}

func (h *Handler) HandleListOverdue(w http.ResponseWriter, r *http.Request) {
	httpjson.WriteJSON(w, r, http.StatusOK, h.service.ListOverdue())
}

func (h *Handler) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	limit := defaultTransactionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httpjson.WriteError(w, http.StatusBadRequest, httpjson.CodeInvalidQuery, "limit must be a positive integer")
			return
		}
		limit = n
	}
	httpjson.WriteJSON(w, r, http.StatusOK, h.service.RecentTransactions(limit))
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	httpjson.WriteJSON(w, r, http.StatusOK, h.service.Stats())
}

// persist saves the post-mutation snapshot. A failed save is logged and does
// not undo the mutation.
func (h *Handler) persist(ctx context.Context) {
	if h.store == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := h.store.Save(ctx, h.service.Snapshot()); err != nil {
		h.logger.ErrorContext(ctx, "failed to save snapshot", "err", err)
	}
}

func (h *Handler) writeLendingError(w http.ResponseWriter, r *http.Request, err error) {
	code := ErrorCode(err)
	status := http.StatusInternalServerError
	switch code {
	case CodeItemNotFound, CodeMemberNotFound:
		status = http.StatusNotFound
	case CodeItemNotAvailable, CodeItemAlreadyAvailable, CodeBorrowLimitExceeded, CodeDuplicateBorrow:
		status = http.StatusConflict
	case CodeInvalidDueDate:
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "lending request failed", "err", err)
		httpjson.WriteError(w, status, CodeInternal, "internal error")
		return
	}
	httpjson.WriteError(w, status, code, err.Error())
}
