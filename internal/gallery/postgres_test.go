package gallery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

func TestPostgresStore_Add(t *testing.T) {
	sampleID := uuid.New()
	now := time.Now()

	tests := []struct {
		name      string
		sample    *domain.Sample
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name:   "successful insert",
			sample: &domain.Sample{ID: sampleID, Label: "alice", Embedding: domain.Embedding{0.1, 0.2, 0.3}},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO face_samples`).
					WithArgs(sampleID, "alice", pgxmock.AnyArg()).
					WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
			},
		},
		{
			name:      "empty embedding",
			sample:    &domain.Sample{Label: "alice"},
			mockSetup: func(mock pgxmock.PgxPoolIface) {},
			wantErr:   domain.ErrFormat,
		},
		{
			name:   "database error",
			sample: &domain.Sample{ID: sampleID, Label: "alice", Embedding: domain.Embedding{0.1}},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO face_samples`).
					WithArgs(sampleID, "alice", pgxmock.AnyArg()).
					WillReturnError(errors.New("expected 128 dimensions, not 1"))
			},
			wantErr: errors.New("add sample"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			store := NewPostgresStore(mock)
			err = store.Add(context.Background(), tt.sample)

			switch {
			case tt.wantErr == nil:
				require.NoError(t, err)
				assert.Equal(t, now, tt.sample.CreatedAt)
			case errors.Is(tt.wantErr, domain.ErrFormat):
				assert.ErrorIs(t, err, domain.ErrFormat)
			default:
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_AddGeneratesID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO face_samples`).
		WithArgs(pgxmock.AnyArg(), "bob", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	s := &domain.Sample{Label: "bob", Embedding: domain.Embedding{1}}
	require.NoError(t, NewPostgresStore(mock).Add(context.Background(), s))

	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Nearest(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"label", "distance"}).
		AddRow("alice", 0.21).
		AddRow("bob", 0.47)

	mock.ExpectQuery(`SELECT label, embedding <-> \$1 AS distance FROM face_samples ORDER BY embedding <-> \$1 LIMIT \$2`).
		WithArgs(pgxmock.AnyArg(), 2).
		WillReturnRows(rows)

	got, err := NewPostgresStore(mock).Nearest(context.Background(), domain.Embedding{0.1, 0.2}, 2)
	require.NoError(t, err)

	assert.Equal(t, []domain.Neighbor{
		{Label: "alice", Distance: 0.21},
		{Label: "bob", Distance: 0.47},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_NearestQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT label, embedding`).
		WillReturnError(errors.New("connection refused"))

	_, err = NewPostgresStore(mock).Nearest(context.Background(), domain.Embedding{0.1}, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nearest samples")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Count(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM face_samples`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))

	n, err := NewPostgresStore(mock).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Labels(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT label, COUNT\(\*\) FROM face_samples GROUP BY label ORDER BY label`).
		WillReturnRows(pgxmock.NewRows([]string{"label", "count"}).
			AddRow("alice", 3).
			AddRow("bob", 1))

	got, err := NewPostgresStore(mock).Labels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.IdentitySummary{
		{Label: "alice", Samples: 3},
		{Label: "bob", Samples: 1},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteLabel(t *testing.T) {
	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface)
		want      int
		wantErr   error
	}{
		{
			name: "removes every sample",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM face_samples WHERE label = \$1`).
					WithArgs("alice").
					WillReturnResult(pgxmock.NewResult("DELETE", 3))
			},
			want: 3,
		},
		{
			name: "unknown label",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM face_samples WHERE label = \$1`).
					WithArgs("alice").
					WillReturnResult(pgxmock.NewResult("DELETE", 0))
			},
			wantErr: domain.ErrIdentityNotFound,
		},
		{
			name: "database error",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM face_samples WHERE label = \$1`).
					WithArgs("alice").
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: errors.New("delete label"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			got, err := NewPostgresStore(mock).DeleteLabel(context.Background(), "alice")

			switch {
			case tt.wantErr == nil:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			case errors.Is(tt.wantErr, domain.ErrIdentityNotFound):
				assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
			default:
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_Ping(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errors.New("no route to host"))

	store := NewPostgresStore(mock)
	assert.NoError(t, store.Ping(context.Background()))

	err = store.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gallery unhealthy")
	assert.NoError(t, mock.ExpectationsWereMet())
}
