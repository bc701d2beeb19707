package notifier

import (
	"context"
	"errors"

	"inventory-tracker/internal/usecase"
)

// Multi sends every alert to all notifiers and joins their errors.
type Multi []usecase.ExpiryNotifier

func (m Multi) NotifyExpiring(ctx context.Context, alert *usecase.ExpiryAlert) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyExpiring(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
