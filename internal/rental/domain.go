// internal/rental/domain.go
package rental

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"videostore/internal/catalog"
)

// Rental links a customer to a copy for a number of days. Category and Price
// are snapshots taken when the rental was committed; reclassifying the title
// later must not change them. Rentals are never deleted, Active flips to
// false when the copy comes back.
type Rental struct {
	ID          uuid.UUID        `json:"id"`
	CustomerID  int              `json:"customer_id"`
	CopyID      int              `json:"copy_id"`
	Category    catalog.Category `json:"category"`
	RentalDays  int              `json:"rental_days"`
	Price       decimal.Decimal  `json:"price"`
	PointsSpent int              `json:"points_spent"`
	Active      bool             `json:"active"`
}

// Journal event types for the rental aggregate.
const (
	RentalOpenedEventType = "RentalOpened"
	RentalClosedEventType = "RentalClosed"
	aggregateType         = "rental"
)

// RentalOpenedEvent is journaled when a rental is committed.
type RentalOpenedEvent struct {
	RentalID    uuid.UUID        `json:"rental_id"`
	CustomerID  int              `json:"customer_id"`
	CopyID      int              `json:"copy_id"`
	Category    catalog.Category `json:"category"`
	RentalDays  int              `json:"rental_days"`
	Price       decimal.Decimal  `json:"price"`
	PointsSpent int              `json:"points_spent"`
}

// RentalClosedEvent is journaled when the copy returns to the shelf.
type RentalClosedEvent struct {
	RentalID   uuid.UUID `json:"rental_id"`
	CustomerID int       `json:"customer_id"`
	CopyID     int       `json:"copy_id"`
}
