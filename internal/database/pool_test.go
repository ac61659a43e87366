package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseName(t *testing.T) {
	tests := []struct {
		name    string
		dsn     string
		want    string
		wantErr bool
	}{
		{name: "url form", dsn: "postgres://u:p@localhost:5432/facegate?sslmode=disable", want: "facegate"},
		{name: "keyword form", dsn: "host=localhost user=u dbname=gallery sslmode=disable", want: "gallery"},
		{name: "garbage", dsn: "postgres://[::1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DatabaseName(tt.dsn)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig("postgres://localhost/x")

	assert.Equal(t, "postgres://localhost/x", cfg.DSN)
	assert.Equal(t, 10, cfg.MaxOpenConns)
	assert.Equal(t, 4, cfg.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxLifetime)
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxIdleTime)
}
