package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dcampos/fieldsync/internal/model"
	"github.com/dcampos/fieldsync/internal/store"
)

// Reference data is read-only on the device, so each Save* wholesale-replaces
// its table inside one transaction: delete everything, insert the filtered
// batch. Clients and products run through the seed guard first; payment
// tables and sales reps are never seeded upstream and skip it.

// Clients returns all stored clients ordered by name.
func (s *Store) Clients(ctx context.Context) ([]model.Client, error) {
	query := `SELECT id, name, company, document, email, phone, address, city, state,
		sales_rep_id, sync_status, updated_at FROM clients ORDER BY name ASC`
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, store.NewStorageError("clients", model.TableClients, err)
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		var c model.Client
		var company, document, email, phone, address, city, state, repID sql.NullString
		var syncStatus, updatedAt string
		if err := rows.Scan(&c.ID, &c.Name, &company, &document, &email, &phone,
			&address, &city, &state, &repID, &syncStatus, &updatedAt); err != nil {
			return nil, store.NewStorageError("clients", model.TableClients, err)
		}
		c.Company = company.String
		c.Document = document.String
		c.Email = email.String
		c.Phone = phone.String
		c.Address = address.String
		c.City = city.String
		c.State = state.String
		c.SalesRepID = repID.String
		c.SyncStatus = model.NormalizeStatus(model.SyncStatus(syncStatus))
		c.UpdatedAt = parseTime(updatedAt)
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStorageError("clients", model.TableClients, err)
	}
	return clients, nil
}

// Products returns all stored products ordered by name.
func (s *Store) Products(ctx context.Context) ([]model.Product, error) {
	query := `SELECT id, code, name, price, unit, category, active, sync_status, updated_at
		FROM products ORDER BY name ASC`
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, store.NewStorageError("products", model.TableProducts, err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		var unit, category sql.NullString
		var active int
		var syncStatus, updatedAt string
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Price, &unit, &category,
			&active, &syncStatus, &updatedAt); err != nil {
			return nil, store.NewStorageError("products", model.TableProducts, err)
		}
		p.Unit = unit.String
		p.Category = category.String
		p.Active = active != 0
		p.SyncStatus = model.NormalizeStatus(model.SyncStatus(syncStatus))
		p.UpdatedAt = parseTime(updatedAt)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStorageError("products", model.TableProducts, err)
	}
	return products, nil
}

// PaymentTables returns all stored payment tables ordered by code.
func (s *Store) PaymentTables(ctx context.Context) ([]model.PaymentTable, error) {
	query := `SELECT id, code, description, installments, discount, sync_status, updated_at
		FROM payment_tables ORDER BY code ASC`
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, store.NewStorageError("payment_tables", model.TablePaymentTables, err)
	}
	defer rows.Close()

	var tables []model.PaymentTable
	for rows.Next() {
		var pt model.PaymentTable
		var syncStatus, updatedAt string
		if err := rows.Scan(&pt.ID, &pt.Code, &pt.Description, &pt.Installments,
			&pt.Discount, &syncStatus, &updatedAt); err != nil {
			return nil, store.NewStorageError("payment_tables", model.TablePaymentTables, err)
		}
		pt.SyncStatus = model.NormalizeStatus(model.SyncStatus(syncStatus))
		pt.UpdatedAt = parseTime(updatedAt)
		tables = append(tables, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStorageError("payment_tables", model.TablePaymentTables, err)
	}
	return tables, nil
}

// SaveClients replaces the clients table with the batch, minus deny-listed
// records. Returns how many rows were persisted.
func (s *Store) SaveClients(ctx context.Context, batch []model.Client) (int, error) {
	clean := s.guard.FilterClients(batch)

	err := s.replaceTable(ctx, model.TableClients, len(clean), func(tx *sql.Tx, i int) error {
		c := &clean[i]
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO clients (id, name, company, document, email, phone, address,
				city, state, sales_rep_id, sync_status, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Company, c.Document, c.Email, c.Phone, c.Address,
			c.City, c.State, c.SalesRepID, string(model.StatusSynced), now())
		return err
	})
	if err != nil {
		return 0, err
	}
	return len(clean), nil
}

// SaveProducts replaces the products table with the batch, minus deny-listed
// and structurally implausible records.
func (s *Store) SaveProducts(ctx context.Context, batch []model.Product) (int, error) {
	clean := s.guard.FilterProducts(batch)

	err := s.replaceTable(ctx, model.TableProducts, len(clean), func(tx *sql.Tx, i int) error {
		p := &clean[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		active := 0
		if p.Active {
			active = 1
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, code, name, price, unit, category, active,
				sync_status, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Code, p.Name, p.Price, p.Unit, p.Category, active,
			string(model.StatusSynced), now())
		return err
	})
	if err != nil {
		return 0, err
	}
	return len(clean), nil
}

// SavePaymentTables replaces the payment_tables table with the batch.
func (s *Store) SavePaymentTables(ctx context.Context, batch []model.PaymentTable) (int, error) {
	err := s.replaceTable(ctx, model.TablePaymentTables, len(batch), func(tx *sql.Tx, i int) error {
		pt := &batch[i]
		if pt.ID == "" {
			pt.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO payment_tables (id, code, description, installments, discount,
				sync_status, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			pt.ID, pt.Code, pt.Description, pt.Installments, pt.Discount,
			string(model.StatusSynced), now())
		return err
	})
	if err != nil {
		return 0, err
	}
	return len(batch), nil
}

// SaveSalesReps replaces the sales_reps table with the batch.
func (s *Store) SaveSalesReps(ctx context.Context, batch []model.SalesRep) (int, error) {
	err := s.replaceTable(ctx, model.TableSalesReps, len(batch), func(tx *sql.Tx, i int) error {
		r := &batch[i]
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sales_reps (id, name, email, code, sync_status, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, r.Name, r.Email, r.Code, string(model.StatusSynced), now())
		return err
	})
	if err != nil {
		return 0, err
	}
	return len(batch), nil
}

// replaceTable deletes every row of table and inserts n fresh rows inside one
// transaction.
func (s *Store) replaceTable(ctx context.Context, table string, n int, insert func(tx *sql.Tx, i int) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return store.NewStorageError("replace", table, err)
	}
	defer tx.Rollback()

	// Hard delete: reference data has no audit requirement.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
		return store.NewStorageError("replace", table, err)
	}

	for i := 0; i < n; i++ {
		if err := insert(tx, i); err != nil {
			return store.NewStorageError("replace", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return store.NewStorageError("replace", table, err)
	}
	return nil
}
