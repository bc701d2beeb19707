package usecase

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"inventory-tracker/internal/domain/entity"
	domainErrors "inventory-tracker/internal/domain/errors"
)

// Summary holds the dashboard counts.
type Summary struct {
	Total        int `json:"total"`
	Expired      int `json:"expired"`
	ExpiringSoon int `json:"expiring_soon"`
	Safe         int `json:"safe"`
}

// InventoryManager owns the item list. It is not safe for concurrent use;
// callers serialize access.
type InventoryManager struct {
	items []*entity.Item
	clock entity.Clock
}

// NewInventoryManager returns an empty manager. A nil clock means the system clock.
func NewInventoryManager(clock entity.Clock) *InventoryManager {
	if clock == nil {
		clock = entity.SystemClock{}
	}
	return &InventoryManager{clock: clock}
}

// Today is the manager's current calendar date.
func (m *InventoryManager) Today() time.Time {
	return entity.Today(m.clock)
}

// AddItem appends item. Duplicates are allowed.
func (m *InventoryManager) AddItem(item *entity.Item) {
	m.items = append(m.items, item)
}

// RemoveItem drops the first entry that is the same pointer as item.
func (m *InventoryManager) RemoveItem(item *entity.Item) {
	for idx, it := range m.items {
		if it == item {
			m.items = slices.Delete(m.items, idx, idx+1)
			return
		}
	}
}

// GetAllItems returns a copy of the list in insertion order.
func (m *InventoryManager) GetAllItems() []*entity.Item {
	out := make([]*entity.Item, len(m.items))
	copy(out, m.items)
	return out
}

// FindByID looks up an item by its ID.
func (m *InventoryManager) FindByID(id uuid.UUID) (*entity.Item, error) {
	for _, it := range m.items {
		if it.ID == id {
			return it, nil
		}
	}
	return nil, domainErrors.ErrItemNotFound
}

// SearchItems matches query as a case-insensitive substring of the name.
func (m *InventoryManager) SearchItems(query string) []*entity.Item {
	q := strings.ToLower(query)
	return m.filter(func(it *entity.Item) bool {
		return strings.Contains(strings.ToLower(it.Name), q)
	})
}

// FilterByCategory matches the whole category, ignoring case.
func (m *InventoryManager) FilterByCategory(category string) []*entity.Item {
	return m.filter(func(it *entity.Item) bool {
		return strings.EqualFold(it.Category, category)
	})
}

// GetExpiringItems returns items with 1 to 3 days left.
func (m *InventoryManager) GetExpiringItems() []*entity.Item {
	today := m.Today()
	return m.filter(func(it *entity.Item) bool {
		return it.IsExpiringSoon(today)
	})
}

// GetExpiredItems returns items whose expiry date is before today.
func (m *InventoryManager) GetExpiredItems() []*entity.Item {
	today := m.Today()
	return m.filter(func(it *entity.Item) bool {
		return it.IsExpired(today)
	})
}

// Summary counts items by expiry status. Items expiring today count as safe.
func (m *InventoryManager) Summary() Summary {
	today := m.Today()
	s := Summary{Total: len(m.items)}
	for _, it := range m.items {
		switch {
		case it.IsExpired(today):
			s.Expired++
		case it.IsExpiringSoon(today):
			s.ExpiringSoon++
		}
	}
	s.Safe = s.Total - s.Expired - s.ExpiringSoon
	return s
}

// CategoryCounts counts items per category. Every offered category is present,
// plus any other category in use, keyed as first written.
func (m *InventoryManager) CategoryCounts() map[string]int {
	counts := make(map[string]int)
	canonical := make(map[string]string)
	for _, category := range entity.GetValidCategories() {
		counts[category] = 0
		canonical[strings.ToLower(category)] = category
	}
	for _, it := range m.items {
		key := strings.ToLower(it.Category)
		name, ok := canonical[key]
		if !ok {
			name = it.Category
			canonical[key] = name
		}
		counts[name]++
	}
	return counts
}

func (m *InventoryManager) filter(keep func(*entity.Item) bool) []*entity.Item {
	out := make([]*entity.Item, 0, len(m.items))
	for _, it := range m.items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
