package postgres

import (
	"context"
	"database/sql"
	"errors"

	clients "energy-process/internal/clients/domain"
)

// ClientRepository reads the clients table.
type ClientRepository struct {
	db *sql.DB
}

// NewClientRepository constructs a repository.
func NewClientRepository(db *sql.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// Exists reports whether a CUPS code is registered.
func (r *ClientRepository) Exists(ctx context.Context, cups string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("client repo: nil db")
	}
	var one int
	err := r.db.QueryRowContext(ctx, `
SELECT 1
FROM clients
WHERE cups = $1
LIMIT 1`, cups).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindByCUPS fetches a client by CUPS code; nil when unknown.
func (r *ClientRepository) FindByCUPS(ctx context.Context, cups string) (*clients.Client, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("client repo: nil db")
	}
	var client clients.Client
	err := r.db.QueryRowContext(ctx, `
SELECT id, cups, name, created_at
FROM clients
WHERE cups = $1
LIMIT 1`, cups).Scan(&client.ID, &client.CUPS, &client.Name, &client.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	client.CreatedAt = client.CreatedAt.UTC()
	return &client, nil
}

var _ clients.Directory = (*ClientRepository)(nil)
