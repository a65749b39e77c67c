package models

// History is the set of products a user bought and the stores they bought from.
// Both lists are distinct and keep first-seen order.
type History struct {
	Products []int64 `json:"products"`
	Stores   []int64 `json:"stores"`
}

// IsEmpty reports whether the history holds neither products nor stores.
func (h *History) IsEmpty() bool {
	return h == nil || (len(h.Products) == 0 && len(h.Stores) == 0)
}

// EntitySet groups resolved product and store records for display.
type EntitySet struct {
	Products []*Product `json:"products"`
	Stores   []*Store   `json:"stores"`
}

// UserProfile is a read-only aggregation of what the system knows about a user.
// It is not used for ranking.
type UserProfile struct {
	UserID      int64     `json:"user_id"`
	Preferences EntitySet `json:"preferences"`
	History     EntitySet `json:"history"`
}

// Transaction is a purchase by a customer. Each detail line references a product,
// a store, or both.
type Transaction struct {
	ID         int64                `json:"id"`
	CustomerID int64                `json:"customer_id"`
	Details    []*TransactionDetail `json:"details"`
}

// TransactionDetail is one line of a transaction.
type TransactionDetail struct {
	ProductID *int64 `json:"product_id,omitempty"`
	StoreID   *int64 `json:"store_id,omitempty"`
}
