package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"inventory-tracker/internal/domain/entity"
)

// ItemView is an item as seen on a given day.
type ItemView struct {
	ID              uuid.UUID     `json:"id"`
	Name            string        `json:"name"`
	Category        string        `json:"category"`
	Quantity        float64       `json:"quantity"`
	Unit            string        `json:"unit"`
	DisplayQuantity string        `json:"display_quantity"`
	ExpiryDate      string        `json:"expiry_date"`
	DaysToExpiry    int           `json:"days_to_expiry"`
	Status          entity.Status `json:"status"`
}

func newItemView(item *entity.Item, today time.Time) *ItemView {
	return &ItemView{
		ID:              item.ID,
		Name:            item.Name,
		Category:        item.Category,
		Quantity:        item.Quantity,
		Unit:            item.Unit,
		DisplayQuantity: item.DisplayQuantity(),
		ExpiryDate:      entity.FormatDate(item.ExpiryDate),
		DaysToExpiry:    item.DaysToExpiry(today),
		Status:          item.Status(today),
	}
}

func newItemViews(items []*entity.Item, today time.Time) []*ItemView {
	views := make([]*ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, newItemView(item, today))
	}
	return views
}

type CategorySummary struct {
	Categories map[string]int `json:"categories"`
	Total      int            `json:"total"`
}

// Dashboard combines expiry counts with the per-category breakdown.
type Dashboard struct {
	Date       string          `json:"date"`
	Summary    Summary         `json:"summary"`
	Categories CategorySummary `json:"categories"`
}

// ExpiryAlert lists the items that expire within the next few days.
type ExpiryAlert struct {
	Date  string      `json:"date"`
	Items []*ItemView `json:"items"`
}

// Message renders the alert as plain text, one line per item.
func (a *ExpiryAlert) Message() string {
	var sb strings.Builder
	sb.WriteString("Items expiring soon:\n\n")
	for _, it := range a.Items {
		fmt.Fprintf(&sb, "%s (%s) -> %s (in %d days)\n", it.Name, it.DisplayQuantity, it.ExpiryDate, it.DaysToExpiry)
	}
	return sb.String()
}

// Report is the content of the printable inventory report.
type Report struct {
	Date     string
	Summary  Summary
	Items    []*ItemView
	Expiring []*ItemView
	Expired  []*ItemView
}

// ImportResult tells how a CSV import went. Errors are per skipped line.
type ImportResult struct {
	Added  int         `json:"added"`
	Errors []LineIssue `json:"errors"`
}

type LineIssue struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}
