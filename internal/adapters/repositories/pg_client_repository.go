package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"routemax-service/internal/domain"
	"routemax-service/internal/ports"
)

// Postgres-backed implementation of the ClientRepository port, including the
// spatial bounding extension used by the corridor filter.
type PgClientRepository struct{ DB *sql.DB }

func NewPgClientRepository(db *sql.DB) *PgClientRepository {
	return &PgClientRepository{DB: db}
}

const clientColumns = `
	client_id,
	user_id,
	name,
	address,
	lat,
	lng,
	opening_time,
	closing_time,
	is_active
`

// Return all active clients owned by the user.
func (r *PgClientRepository) ListActiveClients(ctx context.Context, userID string) ([]*domain.Client, error) {
	if r.DB == nil {
		return nil, errors.New("pg client repository: DB is nil")
	}

	query := `
	SELECT ` + clientColumns + `
	FROM clients
	WHERE user_id = $1 AND is_active
	ORDER BY client_id;
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list active clients: query clients table: %w", err)
	}
	defer rows.Close()

	return scanClients(rows)
}

// Return owned clients by id; ids not owned by the user are absent from the
// result rather than an error.
func (r *PgClientRepository) GetClientsByID(ctx context.Context, userID string, ids []int64) (map[int64]*domain.Client, error) {
	if r.DB == nil {
		return nil, errors.New("pg client repository: DB is nil")
	}

	if len(ids) == 0 {
		return map[int64]*domain.Client{}, nil
	}

	query := `
	SELECT ` + clientColumns + `
	FROM clients
	WHERE user_id = $1
		AND client_id = ANY($2::bigint[]);
	`
	rows, err := r.DB.QueryContext(ctx, query, userID, ids)
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

// Return active owned clients inside the bounding region. Backed by the
// (user_id, lat, lng) index so corridor lookups avoid a full scan.
func (r *PgClientRepository) ListClientsInBounds(ctx context.Context, userID string, b ports.CorridorBounds) ([]*domain.Client, error) {
	if r.DB == nil {
		return nil, errors.New("pg client repository: DB is nil")
	}

	query := `
	SELECT ` + clientColumns + `
	FROM clients
	WHERE user_id = $1 AND is_active
		AND lat BETWEEN $2 AND $3
		AND lng BETWEEN $4 AND $5
	ORDER BY client_id;
	`
	rows, err := r.DB.QueryContext(ctx, query, userID, b.MinLat, b.MaxLat, b.MinLng, b.MaxLng)
	if err != nil {
		return nil, fmt.Errorf("list clients in bounds: query clients table: %w", err)
	}
	defer rows.Close()

	return scanClients(rows)
}

func scanClients(rows *sql.Rows) ([]*domain.Client, error) {
	clients := make([]*domain.Client, 0, 64)
	for rows.Next() {
		var c domain.Client
		err := rows.Scan(
			&c.ClientID,
			&c.UserID,
			&c.Name,
			&c.Address,
			&c.Position.Lat,
			&c.Position.Lng,
			&c.OpeningTime,
			&c.ClosingTime,
			&c.IsActive,
		)
		if err != nil {
			return nil, fmt.Errorf("scan client row: %w", err)
		}
		clients = append(clients, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("client row iteration: %w", err)
	}

	return clients, nil
}
