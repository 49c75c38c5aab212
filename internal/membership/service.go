// internal/membership/service.go
package membership

// Store holds the members keyed by id.
//
// A Store is not safe for concurrent use; the lending service serialises all
// access to it.
type Store interface {
	FindMember(id int) (Member, bool)
	AddBorrowedID(memberID, itemID int) error
	RemoveBorrowedID(memberID, itemID int)
	All() []Member
	Len() int
}
