package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dairyroute/realtime-service/internal/domain/model"
)

// Interface guard
var _ Store = (*MemoryStore)(nil)

// MemoryStore backs the standalone server and the test suites. Ownership
// checks live here, mirroring the data-layer contract: a write against an
// entity the caller does not own fails with ErrNotOwned.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]*model.UserAccount
	admins     map[string]*model.AdminAccount
	customers  map[string]*model.Customer
	deliveries map[string]*model.DeliveryEntry
	payments   map[string]*model.PaymentRecord
	activity   []model.ActivityRecord

	// failErr, when set, makes every call fail. Fault injection for the
	// degradation paths (zero snapshots, breaker trips).
	failErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]*model.UserAccount),
		admins:     make(map[string]*model.AdminAccount),
		customers:  make(map[string]*model.Customer),
		deliveries: make(map[string]*model.DeliveryEntry),
		payments:   make(map[string]*model.PaymentRecord),
	}
}

// SetError forces all subsequent calls to fail with err; nil restores
// normal operation.
func (m *MemoryStore) SetError(err error) {
	m.mu.Lock()
	m.failErr = err
	m.mu.Unlock()
}

func (m *MemoryStore) broken() error {
	return m.failErr
}

// --- SEEDING ---

func (m *MemoryStore) SeedUser(u model.UserAccount) {
	m.mu.Lock()
	m.users[u.ID] = &u
	m.mu.Unlock()
}

func (m *MemoryStore) SeedAdmin(a model.AdminAccount) {
	m.mu.Lock()
	m.admins[a.ID] = &a
	m.mu.Unlock()
}

func (m *MemoryStore) SeedCustomer(c model.Customer) {
	m.mu.Lock()
	m.customers[c.ID] = &c
	m.mu.Unlock()
}

func (m *MemoryStore) SeedDelivery(d model.DeliveryEntry) {
	m.mu.Lock()
	m.deliveries[d.ID] = &d
	m.mu.Unlock()
}

func (m *MemoryStore) SeedPayment(p model.PaymentRecord) {
	m.mu.Lock()
	m.payments[p.ID] = &p
	m.mu.Unlock()
}

// --- PRINCIPALS ---

func (m *MemoryStore) FindUser(ctx context.Context, id string) (*model.UserAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.broken(); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) FindAdmin(ctx context.Context, id string) (*model.AdminAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.broken(); err != nil {
		return nil, err
	}
	a, ok := m.admins[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// --- READS ---

func (m *MemoryStore) CustomersByVendor(ctx context.Context, vendorID string) ([]model.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.broken(); err != nil {
		return nil, err
	}
	var out []model.Customer
	for _, c := range m.customers {
		if c.VendorID == vendorID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func inWindow(t, from, to time.Time) bool {
	if from.IsZero() && to.IsZero() {
		return true
	}
	return !t.Before(from) && t.Before(to)
}

func (m *MemoryStore) DeliveriesByVendor(ctx context.Context, vendorID string, from, to time.Time) ([]model.DeliveryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.broken(); err != nil {
		return nil, err
	}
	var out []model.DeliveryEntry
	for _, d := range m.deliveries {
		if d.VendorID == vendorID && inWindow(d.EntryDate, from, to) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *MemoryStore) PaymentsByVendor(ctx context.Context, vendorID string, from, to time.Time) ([]model.PaymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.broken(); err != nil {
		return nil, err
	}
	var out []model.PaymentRecord
	for _, p := range m.payments {
		if p.VendorID == vendorID && inWindow(p.PaymentDate, from, to) {
			out = append(out, *p)
		}
	}
	return out, nil
}

// --- WRITES ---

func (m *MemoryStore) UpdateDelivery(ctx context.Context, vendorID, entryID string, patch model.DeliveryPatch) (*model.DeliveryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.broken(); err != nil {
		return nil, err
	}
	d, ok := m.deliveries[entryID]
	if !ok {
		return nil, ErrNotFound
	}
	if d.VendorID != vendorID {
		return nil, ErrNotOwned
	}

	if patch.Quantity != nil {
		d.Quantity = *patch.Quantity
	}
	if patch.UnitPrice != nil {
		d.UnitPrice = *patch.UnitPrice
	}
	if patch.Amount != nil {
		d.Amount = *patch.Amount
	}
	if patch.ProductType != nil {
		d.ProductType = *patch.ProductType
	}
	if patch.Notes != nil {
		d.Notes = *patch.Notes
	}
	if patch.EntryDate != nil {
		d.EntryDate = *patch.EntryDate
	}
	if patch.Edited {
		d.Edited = true
		editedAt := patch.EditedAt
		d.EditedAt = &editedAt
	}

	cp := *d
	return &cp, nil
}

func (m *MemoryStore) CreatePayment(ctx context.Context, vendorID string, draft model.PaymentDraft) (*model.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.broken(); err != nil {
		return nil, err
	}
	c, ok := m.customers[draft.CustomerID]
	if !ok {
		return nil, ErrNotFound
	}
	if c.VendorID != vendorID {
		return nil, ErrNotOwned
	}

	rec := &model.PaymentRecord{
		ID:          uuid.NewString(),
		VendorID:    vendorID,
		CustomerID:  draft.CustomerID,
		Amount:      draft.Amount,
		Method:      draft.Method,
		Reference:   draft.Reference,
		PaymentDate: draft.PaymentDate,
		Notes:       draft.Notes,
		CreatedAt:   time.Now(),
	}
	m.payments[rec.ID] = rec

	cp := *rec
	return &cp, nil
}

func (m *MemoryStore) UpdateCustomer(ctx context.Context, vendorID, customerID string, patch model.CustomerPatch) (*model.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.broken(); err != nil {
		return nil, err
	}
	c, ok := m.customers[customerID]
	if !ok {
		return nil, ErrNotFound
	}
	if c.VendorID != vendorID {
		return nil, ErrNotOwned
	}

	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	if patch.Address != nil {
		c.Address = *patch.Address
	}
	if patch.Active != nil {
		c.Active = *patch.Active
	}

	cp := *c
	return &cp, nil
}

// --- AGGREGATES ---

func (m *MemoryStore) SystemCounts(ctx context.Context) (model.SystemCounts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.broken(); err != nil {
		return model.SystemCounts{}, err
	}

	counts := model.SystemCounts{}
	vendors := make(map[string]struct{})
	for _, u := range m.users {
		counts.TotalUsers++
		if u.Active {
			counts.ActiveUsers++
		}
	}
	for _, c := range m.customers {
		counts.TotalCustomers++
		if c.Active {
			counts.ActiveCustomers++
		}
		vendors[c.VendorID] = struct{}{}
	}
	counts.VendorsWithCustomers = len(vendors)
	for _, p := range m.payments {
		counts.PaymentCount++
		counts.PaymentTotal += p.Amount
	}
	return counts, nil
}

// --- AUDIT ---

func (m *MemoryStore) AppendActivity(ctx context.Context, rec model.ActivityRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.broken(); err != nil {
		return err
	}
	m.activity = append(m.activity, rec)
	return nil
}

func (m *MemoryStore) RecentActivity(ctx context.Context, vendorID string, limit int) ([]model.ActivityRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.broken(); err != nil {
		return nil, err
	}
	var out []model.ActivityRecord
	for _, rec := range m.activity {
		if rec.VendorID == vendorID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
