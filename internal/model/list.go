package model

// DefaultListID is the reserved identifier of the always-present default
// list. The default list cannot be deleted.
const DefaultListID = "default"

// Pseudo-list selectors. These are filtering projections recognized by the
// task store, never persisted as List records.
const (
	SelectorStarred = "starred"
	SelectorToday   = "today"
)

// List is a named grouping of todos, owned by a user.
type List struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	UserID string `json:"userId"`
}

// DefaultList returns the seed list present in every fresh store.
func DefaultList() List {
	return List{ID: DefaultListID, Name: "My Tasks", UserID: DefaultListID}
}
