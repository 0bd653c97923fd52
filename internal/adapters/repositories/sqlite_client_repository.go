package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"routemax-service/internal/domain"
)

// SQLite-backed implementation of the ClientRepository port for local runs.
// It deliberately implements only the base port, so corridor lookups fall
// back to the full active-client scan.
type SqliteClientRepository struct{ DB *sql.DB }

func NewSqliteClientRepository(db *sql.DB) *SqliteClientRepository {
	return &SqliteClientRepository{DB: db}
}

func (r *SqliteClientRepository) ListActiveClients(ctx context.Context, userID string) ([]*domain.Client, error) {
	if r.DB == nil {
		return nil, errors.New("sqlite client repository: DB is nil")
	}

	query := `
	SELECT ` + clientColumns + `
	FROM clients
	WHERE user_id = ? AND is_active = 1
	ORDER BY client_id;
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list active clients: query clients table: %w", err)
	}
	defer rows.Close()

	return scanClients(rows)
}

func (r *SqliteClientRepository) GetClientsByID(ctx context.Context, userID string, ids []int64) (map[int64]*domain.Client, error) {
	if r.DB == nil {
		return nil, errors.New("sqlite client repository: DB is nil")
	}

	if len(ids) == 0 {
		return map[int64]*domain.Client{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `
	SELECT ` + clientColumns + `
	FROM clients
	WHERE user_id = ?
		AND client_id IN (` + placeholders + `);
	`

	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get clients by id: query clients table: %w", err)
	}
	defer rows.Close()

	clients, err := scanClients(rows)
	if err != nil {
		return nil, err
	}

	out := make(map[int64]*domain.Client, len(clients))
	for _, c := range clients {
		out[c.ClientID] = c
	}

	return out, nil
}
