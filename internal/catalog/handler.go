// internal/catalog/handler.go
package catalog

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"libraryledger/internal/httpjson"
)

// Reader is the read side the catalog handler needs. The lending service
// implements it so reads happen under its lock.
type Reader interface {
	ListItems(f Filter) []Item
	GetItem(id int) (Item, bool)
	IsOverdue(itemID int) bool
}

type Handler struct {
	reader Reader
}

func NewHandler(reader Reader) *Handler {
	return &Handler{reader: reader}
}

// Routes mounts the catalog endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/items", h.HandleListItems)
	r.Get("/items/{id}", h.HandleGetItem)
}

// ItemView is an item with its formatted details and overdue flag.
type ItemView struct {
	Item    Item   `json:"item"`
	Details string `json:"details"`
	Overdue bool   `json:"overdue"`
}

func (h *Handler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	f, err := FilterFromQuery(r)
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, httpjson.CodeInvalidQuery, err.Error())
		return
	}
	httpjson.WriteJSON(w, r, http.StatusOK, h.reader.ListItems(f))
}

func (h *Handler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpjson.PathID(r, "id")
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, httpjson.CodeInvalidID, err.Error())
		return
	}

	item, ok := h.reader.GetItem(id)
	if !ok {
		httpjson.WriteError(w, http.StatusNotFound, httpjson.CodeNotFound, ErrNotFound.Error())
		return
	}

	httpjson.WriteJSON(w, r, http.StatusOK, ItemView{
		Item:    item,
		Details: Details(item),
		Overdue: h.reader.IsOverdue(id),
	})
}

// FilterFromQuery reads q, category and availability query parameters.
func FilterFromQuery(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	f := Filter{Query: q.Get("q")}

	if cat := strings.TrimSpace(q.Get("category")); cat != "" && !strings.EqualFold(cat, "all") {
		c, err := ParseCategory(cat)
		if err != nil {
			return Filter{}, err
		}
		f.Category = c
	}

	av, err := ParseAvailability(q.Get("availability"))
	if err != nil {
		return Filter{}, err
	}
	f.Availability = av
	return f, nil
}
