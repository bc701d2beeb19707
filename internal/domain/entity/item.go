package entity

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ExpiringSoonDays is the widest day count still reported as expiring soon.
const ExpiringSoonDays = 3

// Item is one inventory entry. Fields are edited in place so every holder of the
// pointer observes the change.
type Item struct {
	ID         uuid.UUID
	Name       string
	Category   string
	Quantity   float64
	Unit       string
	ExpiryDate time.Time
}

// Status is the expiry classification shown next to each row.
type Status string

const (
	StatusExpired      Status = "expired"
	StatusExpiringSoon Status = "expiring_soon"
	StatusSafe         Status = "safe"
)

var validCategories = []string{"Food", "Medicine", "Electronics", "Other"}

var validUnits = []string{"kg", "g", "liter", "pcs"}

// NewItem builds an item from the given values as-is. Callers validate input.
func NewItem(name, category string, quantity float64, unit string, expiryDate time.Time) *Item {
	return &Item{
		ID:         uuid.New(),
		Name:       name,
		Category:   category,
		Quantity:   quantity,
		Unit:       unit,
		ExpiryDate: DateOf(expiryDate),
	}
}

// IsExpired reports whether today is strictly after the expiry date.
func (i *Item) IsExpired(today time.Time) bool {
	return DateOf(today).After(DateOf(i.ExpiryDate))
}

// DaysToExpiry is the signed number of calendar days from today until expiry.
func (i *Item) DaysToExpiry(today time.Time) int {
	return DaysBetween(today, i.ExpiryDate)
}

// IsExpiringSoon reports 1..3 days left. An item on its expiry day is neither
// expired nor expiring soon.
func (i *Item) IsExpiringSoon(today time.Time) bool {
	days := i.DaysToExpiry(today)
	return days > 0 && days <= ExpiringSoonDays
}

// Status classifies the item for display.
func (i *Item) Status(today time.Time) Status {
	switch {
	case i.IsExpired(today):
		return StatusExpired
	case i.IsExpiringSoon(today):
		return StatusExpiringSoon
	default:
		return StatusSafe
	}
}

// DisplayQuantity renders quantity and unit, e.g. "3.5 kg".
func (i *Item) DisplayQuantity() string {
	return FormatQuantity(i.Quantity) + " " + i.Unit
}

// FormatQuantity prints the shortest decimal that round-trips to q.
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// GetValidCategories returns the categories offered to users. They are not enforced.
func GetValidCategories() []string {
	return append([]string(nil), validCategories...)
}

// GetValidUnits returns the conventional units.
func GetValidUnits() []string {
	return append([]string(nil), validUnits...)
}
