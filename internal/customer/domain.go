// internal/customer/domain.go
package customer

// Customer holds the only per-customer state the store keeps: a bonus-point
// balance. The id is assigned on creation and immutable; the balance is
// written exclusively by the rental workflow as balance + earned - spent.
type Customer struct {
	ID          int `json:"id"`
	BonusPoints int `json:"bonus_points"`
}
