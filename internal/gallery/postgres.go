package gallery

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// PgxPool is the subset of *pgxpool.Pool the store needs; pgxmock satisfies it.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore keeps samples in a pgvector column and lets the database
// rank them.
type PostgresStore struct {
	pool PgxPool
}

func NewPostgresStore(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func toVector(emb domain.Embedding) pgvector.Vector {
	floats := make([]float32, len(emb))
	for i, v := range emb {
		floats[i] = float32(v)
	}
	return pgvector.NewVector(floats)
}

func (r *PostgresStore) Add(ctx context.Context, s *domain.Sample) error {
	query := `
		INSERT INTO face_samples (id, label, embedding, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING created_at
	`

	if len(s.Embedding) == 0 {
		return domain.ErrFormat
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query, s.ID, s.Label, toVector(s.Embedding)).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("add sample: %w", err)
	}
	return nil
}

func (r *PostgresStore) Nearest(ctx context.Context, emb domain.Embedding, k int) ([]domain.Neighbor, error) {
	query := `
		SELECT label, embedding <-> $1 AS distance
		FROM face_samples
		ORDER BY embedding <-> $1
		LIMIT $2
	`

	if k <= 0 {
		return []domain.Neighbor{}, nil
	}

	rows, err := r.pool.Query(ctx, query, toVector(emb), k)
	if err != nil {
		return nil, fmt.Errorf("nearest samples: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Neighbor, 0, k)
	for rows.Next() {
		var n domain.Neighbor
		if err := rows.Scan(&n.Label, &n.Distance); err != nil {
			return nil, fmt.Errorf("scan neighbor: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate neighbors: %w", err)
	}
	return out, nil
}

func (r *PostgresStore) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM face_samples`

	var n int
	if err := r.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count samples: %w", err)
	}
	return n, nil
}

func (r *PostgresStore) Labels(ctx context.Context) ([]domain.IdentitySummary, error) {
	query := `
		SELECT label, COUNT(*)
		FROM face_samples
		GROUP BY label
		ORDER BY label
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	out := make([]domain.IdentitySummary, 0)
	for rows.Next() {
		var s domain.IdentitySummary
		if err := rows.Scan(&s.Label, &s.Samples); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate labels: %w", err)
	}
	return out, nil
}

func (r *PostgresStore) DeleteLabel(ctx context.Context, label string) (int, error) {
	query := `DELETE FROM face_samples WHERE label = $1`

	result, err := r.pool.Exec(ctx, query, label)
	if err != nil {
		return 0, fmt.Errorf("delete label: %w", err)
	}
	if result.RowsAffected() == 0 {
		return 0, domain.ErrIdentityNotFound
	}
	return int(result.RowsAffected()), nil
}

func (r *PostgresStore) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("gallery unhealthy: %w", err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
