package domain

// Item is a resource owned by a user.
type Item struct {
	ItemID string
	Owner  string
}
