package notifier

import (
	"context"

	"github.com/labstack/gommon/log"

	"inventory-tracker/internal/usecase"
)

// LogNotifier writes expiry alerts to the application log.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyExpiring(ctx context.Context, alert *usecase.ExpiryAlert) error {
	for _, it := range alert.Items {
		n.logger.Warnj(log.JSON{
			"event":          "item.expiring_soon",
			"id":             it.ID.String(),
			"name":           it.Name,
			"quantity":       it.DisplayQuantity,
			"expiry_date":    it.ExpiryDate,
			"days_to_expiry": it.DaysToExpiry,
		})
	}
	return nil
}
