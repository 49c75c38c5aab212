// internal/membership/handler.go
package membership

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"libraryledger/internal/catalog"
	"libraryledger/internal/httpjson"
)

// Reader is the read side the membership handler needs.
type Reader interface {
	ListMembers() []Member
	GetMember(id int) (Member, bool)
	ListBorrowedBy(memberID int) []catalog.Item
}

type Handler struct {
	reader Reader
}

func NewHandler(reader Reader) *Handler {
	return &Handler{reader: reader}
}

// Routes mounts the member endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/members", h.HandleListMembers)
	r.Get("/members/{id}", h.HandleGetMember)
	r.Get("/members/{id}/items", h.HandleBorrowedItems)
}

// MemberView adds the borrow count and limit to a member.
type MemberView struct {
	Member
	BorrowedCount  int  `json:"borrowedCount"`
	MaxBorrowLimit int  `json:"maxBorrowLimit"`
	CanBorrow      bool `json:"canBorrow"`
}

func newMemberView(m Member) MemberView {
	return MemberView{
		Member:         m,
		BorrowedCount:  len(m.BorrowedItemIDs),
		MaxBorrowLimit: MaxBorrowLimit(m),
		CanBorrow:      m.CanBorrow(),
	}
}

func (h *Handler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	members := h.reader.ListMembers()
	views := make([]MemberView, 0, len(members))
	for _, m := range members {
		views = append(views, newMemberView(m))
	}
	httpjson.WriteJSON(w, r, http.StatusOK, views)
}

func (h *Handler) HandleGetMember(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httpjson.WriteJSON(w, r, http.StatusOK, newMemberView(m))
}

func (h *Handler) HandleBorrowedItems(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httpjson.WriteJSON(w, r, http.StatusOK, h.reader.ListBorrowedBy(m.ID))
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (Member, bool) {
	id, err := httpjson.PathID(r, "id")
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, httpjson.CodeInvalidID, err.Error())
		return Member{}, false
	}
	m, ok := h.reader.GetMember(id)
	if !ok {
		httpjson.WriteError(w, http.StatusNotFound, httpjson.CodeNotFound, ErrNotFound.Error())
		return Member{}, false
	}
	return m, true
}
