package usecase

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"inventory-tracker/internal/domain/entity"
	domainErrors "inventory-tracker/internal/domain/errors"
)

// AllCategories disables the category filter.
const AllCategories = "All"

type ItemUsecase interface {
	ListItems(ctx context.Context, filter ListFilter) ([]*ItemView, error)
	GetItem(ctx context.Context, id uuid.UUID) (*ItemView, error)
	CreateItem(ctx context.Context, input CreateItemInput) (*ItemView, error)
	UpdateItem(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*ItemView, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	GetExpiringItems(ctx context.Context) ([]*ItemView, error)
	GetExpiredItems(ctx context.Context) ([]*ItemView, error)
	GetCategorySummary(ctx context.Context) (*CategorySummary, error)
	GetDashboard(ctx context.Context) (*Dashboard, error)
	CheckExpiring(ctx context.Context) (*ExpiryAlert, error)
	ImportCSV(ctx context.Context, path string) (*ImportResult, error)
	ExportCSV(ctx context.Context, path string, opts ExportOptions) error
	ExportReport(ctx context.Context, w io.Writer) error
}

// ListFilter narrows the item list. Empty Query and empty or "All" Category match everything.
type ListFilter struct {
	Query    string
	Category string
}

// CreateItemInput carries the fields as typed by the user; quantity and date are parsed here.
type CreateItemInput struct {
	Name       string `json:"name"`
	Category   string `json:"category"`
	Quantity   string `json:"quantity"`
	Unit       string `json:"unit"`
	ExpiryDate string `json:"expiry_date"`
}

// UpdateItemInput is used for partial edits; nil fields are left unchanged
type UpdateItemInput struct {
	Name       *string `json:"name,omitempty"`
	Category   *string `json:"category,omitempty"`
	Quantity   *string `json:"quantity,omitempty"`
	Unit       *string `json:"unit,omitempty"`
	ExpiryDate *string `json:"expiry_date,omitempty"`
}

type ExportOptions struct {
	Header bool `json:"header"`
}

type itemUsecase struct {
	// mu makes concurrent callers look like a single user to the manager.
	mu       sync.Mutex
	manager  *InventoryManager
	files    ItemFileRepository
	notifier ExpiryNotifier
	reports  ReportRenderer
	logger   *log.Logger
}

func NewItemUsecase(manager *InventoryManager, files ItemFileRepository, notifier ExpiryNotifier, reports ReportRenderer, logger *log.Logger) ItemUsecase {
	if logger == nil {
		logger = log.New("usecase")
	}
	return &itemUsecase{
		manager:  manager,
		files:    files,
		notifier: notifier,
		reports:  reports,
		logger:   logger,
	}
}

func (u *itemUsecase) ListItems(ctx context.Context, filter ListFilter) ([]*ItemView, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	items := u.manager.GetAllItems()
	if filter.Query != "" {
		items = u.manager.SearchItems(filter.Query)
	}
	if filter.Category != "" && !strings.EqualFold(filter.Category, AllCategories) {
		inCategory := make(map[*entity.Item]struct{})
		for _, it := range u.manager.FilterByCategory(filter.Category) {
			inCategory[it] = struct{}{}
		}
		kept := items[:0]
		for _, it := range items {
			if _, ok := inCategory[it]; ok {
				kept = append(kept, it)
			}
		}
		items = kept
	}

	return newItemViews(items, u.manager.Today()), nil
}

func (u *itemUsecase) GetItem(ctx context.Context, id uuid.UUID) (*ItemView, error) {
	if id == uuid.Nil {
		return nil, domainErrors.ErrEmptySelection
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	item, err := u.manager.FindByID(id)
	if err != nil {
		return nil, err
	}
	return newItemView(item, u.manager.Today()), nil
}

func (u *itemUsecase) CreateItem(ctx context.Context, input CreateItemInput) (*ItemView, error) {
	quantity, err := parseQuantity(input.Quantity)
	if err != nil {
		return nil, err
	}
	expiry, err := parseExpiryDate(input.ExpiryDate)
	if err != nil {
		return nil, err
	}

	item := entity.NewItem(
		strings.TrimSpace(input.Name),
		strings.TrimSpace(input.Category),
		quantity,
		strings.TrimSpace(input.Unit),
		expiry,
	)

	u.mu.Lock()
	defer u.mu.Unlock()

	u.manager.AddItem(item)
	return newItemView(item, u.manager.Today()), nil
}

// UpdateItem edits the selected item in place.
// Every provided field is parsed before any is applied, so a bad value leaves the item untouched.
func (u *itemUsecase) UpdateItem(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*ItemView, error) {
	if id == uuid.Nil {
		return nil, domainErrors.ErrEmptySelection
	}

	if input.Name == nil && input.Category == nil && input.Quantity == nil && input.Unit == nil && input.ExpiryDate == nil {
		return nil, fmt.Errorf("%w: no fields to update", domainErrors.ErrInvalidInput)
	}

	var (
		quantity float64
		expiry   time.Time
		err      error
	)
	if input.Quantity != nil {
		if quantity, err = parseQuantity(*input.Quantity); err != nil {
			return nil, err
		}
	}
	if input.ExpiryDate != nil {
		if expiry, err = parseExpiryDate(*input.ExpiryDate); err != nil {
			return nil, err
		}
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	item, err := u.manager.FindByID(id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		item.Name = strings.TrimSpace(*input.Name)
	}
	if input.Category != nil {
		item.Category = strings.TrimSpace(*input.Category)
	}
	if input.Quantity != nil {
		item.Quantity = quantity
	}
	if input.Unit != nil {
		item.Unit = strings.TrimSpace(*input.Unit)
	}
	if input.ExpiryDate != nil {
		item.ExpiryDate = expiry
	}

	return newItemView(item, u.manager.Today()), nil
}

func (u *itemUsecase) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return domainErrors.ErrEmptySelection
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	item, err := u.manager.FindByID(id)
	if err != nil {
		return err
	}
	u.manager.RemoveItem(item)
	return nil
}

func (u *itemUsecase) GetExpiringItems(ctx context.Context) ([]*ItemView, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	return newItemViews(u.manager.GetExpiringItems(), u.manager.Today()), nil
}

func (u *itemUsecase) GetExpiredItems(ctx context.Context) ([]*ItemView, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	return newItemViews(u.manager.GetExpiredItems(), u.manager.Today()), nil
}

func (u *itemUsecase) GetCategorySummary(ctx context.Context) (*CategorySummary, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.categorySummary(), nil
}

func (u *itemUsecase) categorySummary() *CategorySummary {
	counts := u.manager.CategoryCounts()

	total := 0
	for _, count := range counts {
		total += count
	}

	return &CategorySummary{
		Categories: counts,
		Total:      total,
	}
}

func (u *itemUsecase) GetDashboard(ctx context.Context) (*Dashboard, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	return &Dashboard{
		Date:       entity.FormatDate(u.manager.Today()),
		Summary:    u.manager.Summary(),
		Categories: *u.categorySummary(),
	}, nil
}

// CheckExpiring builds the expiring-soon alert and passes it to the notifier when it is not empty.
// Delivery failures are logged; the alert is still returned.
func (u *itemUsecase) CheckExpiring(ctx context.Context) (*ExpiryAlert, error) {
	u.mu.Lock()
	today := u.manager.Today()
	alert := &ExpiryAlert{
		Date:  entity.FormatDate(today),
		Items: newItemViews(u.manager.GetExpiringItems(), today),
	}
	u.mu.Unlock()

	if len(alert.Items) == 0 || u.notifier == nil {
		return alert, nil
	}

	if err := u.notifier.NotifyExpiring(ctx, alert); err != nil {
		u.logger.Warnf("failed to deliver expiry alert: %v", err)
	}
	return alert, nil
}

// ImportCSV adds every valid row of the file. When reading fails part way, the rows read
// so far stay in the inventory and the returned result reports them alongside the error.
func (u *itemUsecase) ImportCSV(ctx context.Context, path string) (*ImportResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	added := 0
	lineErrs, err := u.files.Import(ctx, path, func(item *entity.Item) {
		u.manager.AddItem(item)
		added++
	})

	result := &ImportResult{Added: added, Errors: make([]LineIssue, 0, len(lineErrs))}
	for _, le := range lineErrs {
		result.Errors = append(result.Errors, LineIssue{Line: le.Line, Message: le.Error()})
	}

	if err != nil {
		u.logger.Warnf("import of %s stopped after %d items: %v", path, added, err)
		return result, fmt.Errorf("%w: failed to import %s: %v", domainErrors.ErrFileIO, path, err)
	}

	u.logger.Infof("imported %d items from %s (%d lines skipped)", added, path, len(lineErrs))
	return result, nil
}

func (u *itemUsecase) ExportCSV(ctx context.Context, path string, opts ExportOptions) error {
	u.mu.Lock()
	items := u.manager.GetAllItems()
	u.mu.Unlock()

	if err := u.files.Export(ctx, path, items, opts.Header); err != nil {
		return fmt.Errorf("%w: failed to export %s: %v", domainErrors.ErrFileIO, path, err)
	}

	u.logger.Infof("exported %d items to %s", len(items), path)
	return nil
}

func (u *itemUsecase) ExportReport(ctx context.Context, w io.Writer) error {
	u.mu.Lock()
	today := u.manager.Today()
	report := &Report{
		Date:     entity.FormatDate(today),
		Summary:  u.manager.Summary(),
		Items:    newItemViews(u.manager.GetAllItems(), today),
		Expiring: newItemViews(u.manager.GetExpiringItems(), today),
		Expired:  newItemViews(u.manager.GetExpiredItems(), today),
	}
	u.mu.Unlock()

	if err := u.reports.Render(w, report); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func parseQuantity(s string) (float64, error) {
	q, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(q) || math.IsInf(q, 0) {
		return 0, fmt.Errorf("%w: quantity %q is not a number", domainErrors.ErrInvalidInput, s)
	}
	return q, nil
}

func parseExpiryDate(s string) (time.Time, error) {
	d, err := entity.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: expiry date %q must be YYYY-MM-DD", domainErrors.ErrInvalidInput, s)
	}
	return d, nil
}
