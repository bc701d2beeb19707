package usecase

import (
	"context"
	"io"

	"inventory-tracker/internal/domain/entity"
	domainErrors "inventory-tracker/internal/domain/errors"
)

// ItemFileRepository defines how items are read from and written to files
type ItemFileRepository interface {
	// Import reads the file at path and hands every parsed row to add, in file order.
	// Skipped lines come back as LineErrors; a non-nil error means the file itself failed.
	Import(ctx context.Context, path string, add func(*entity.Item)) ([]*domainErrors.LineError, error)

	// Export writes items to path, one line per item
	Export(ctx context.Context, path string, items []*entity.Item, header bool) error
}

// ExpiryNotifier delivers expiry alerts to the user or another system
type ExpiryNotifier interface {
	NotifyExpiring(ctx context.Context, alert *ExpiryAlert) error
}

// ReportRenderer writes a printable inventory report
type ReportRenderer interface {
	Render(w io.Writer, report *Report) error
}
