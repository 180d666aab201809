package kvfile

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dcampos/fieldsync/internal/model"
)

// Clients returns all stored clients ordered by name.
func (s *Store) Clients(ctx context.Context) ([]model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make(map[string]model.Client)
	if err := s.readTable(model.TableClients, &records); err != nil {
		return nil, err
	}
	out := make([]model.Client, 0, len(records))
	for _, c := range records {
		c.SyncStatus = model.NormalizeStatus(c.SyncStatus)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Products returns all stored products ordered by name.
func (s *Store) Products(ctx context.Context) ([]model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make(map[string]model.Product)
	if err := s.readTable(model.TableProducts, &records); err != nil {
		return nil, err
	}
	out := make([]model.Product, 0, len(records))
	for _, p := range records {
		p.SyncStatus = model.NormalizeStatus(p.SyncStatus)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// PaymentTables returns all stored payment tables ordered by code.
func (s *Store) PaymentTables(ctx context.Context) ([]model.PaymentTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make(map[string]model.PaymentTable)
	if err := s.readTable(model.TablePaymentTables, &records); err != nil {
		return nil, err
	}
	out := make([]model.PaymentTable, 0, len(records))
	for _, pt := range records {
		pt.SyncStatus = model.NormalizeStatus(pt.SyncStatus)
		out = append(out, pt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// SaveClients wholesale-replaces the clients table with the guarded batch.
func (s *Store) SaveClients(ctx context.Context, batch []model.Client) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clean := s.guard.FilterClients(batch)
	records := make(map[string]model.Client, len(clean))
	for _, c := range clean {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		c.SyncStatus = model.StatusSynced
		c.UpdatedAt = time.Now().UTC()
		records[c.ID] = c
	}
	if err := s.writeTable(model.TableClients, records); err != nil {
		return 0, err
	}
	return len(clean), nil
}

// SaveProducts wholesale-replaces the products table with the guarded batch.
func (s *Store) SaveProducts(ctx context.Context, batch []model.Product) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clean := s.guard.FilterProducts(batch)
	records := make(map[string]model.Product, len(clean))
	for _, p := range clean {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.SyncStatus = model.StatusSynced
		p.UpdatedAt = time.Now().UTC()
		records[p.ID] = p
	}
	if err := s.writeTable(model.TableProducts, records); err != nil {
		return 0, err
	}
	return len(clean), nil
}

// SavePaymentTables wholesale-replaces the payment_tables table.
func (s *Store) SavePaymentTables(ctx context.Context, batch []model.PaymentTable) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make(map[string]model.PaymentTable, len(batch))
	for _, pt := range batch {
		if pt.ID == "" {
			pt.ID = uuid.NewString()
		}
		pt.SyncStatus = model.StatusSynced
		pt.UpdatedAt = time.Now().UTC()
		records[pt.ID] = pt
	}
	if err := s.writeTable(model.TablePaymentTables, records); err != nil {
		return 0, err
	}
	return len(batch), nil
}

// SaveSalesReps wholesale-replaces the sales_reps table.
func (s *Store) SaveSalesReps(ctx context.Context, batch []model.SalesRep) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make(map[string]model.SalesRep, len(batch))
	for _, r := range batch {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		r.SyncStatus = model.StatusSynced
		r.UpdatedAt = time.Now().UTC()
		records[r.ID] = r
	}
	if err := s.writeTable(model.TableSalesReps, records); err != nil {
		return 0, err
	}
	return len(batch), nil
}
