package postgres

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-engine/pkg/config"
)

func TestNewPoolConfig_AplicaLimitesDelPool(t *testing.T) {
	cfg := config.DBConfig{
		DatabaseURL:       "postgres://stock:stock@db:5432/stock_engine?sslmode=disable",
		MaxConns:          8,
		MinConns:          2,
		MaxConnLifetime:   20 * time.Minute,
		MaxConnIdleTime:   5 * time.Minute,
		HealthCheckPeriod: 15 * time.Second,
	}

	pc, err := newPoolConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, int32(8), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, 20*time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, 5*time.Minute, pc.MaxConnIdleTime)
	assert.Equal(t, 15*time.Second, pc.HealthCheckPeriod)
	assert.Equal(t, "db", pc.ConnConfig.Host)
	assert.NotNil(t, pc.AfterConnect)
}

func TestNewPoolConfig_CerosConservanDefaults(t *testing.T) {
	base, err := newPoolConfig(config.DBConfig{DatabaseURL: "postgres://u:p@localhost:5432/x"})
	require.NoError(t, err)

	assert.Greater(t, base.MaxConns, int32(0))
	assert.Greater(t, base.MaxConnLifetime, time.Duration(0))
	assert.NotNil(t, base.AfterConnect)
}

func TestNewPoolConfig_IPv4SoloSiSeActiva(t *testing.T) {
	url := "postgres://u:p@localhost:5432/x"

	plain, err := newPoolConfig(config.DBConfig{DatabaseURL: url})
	require.NoError(t, err)
	forced, err := newPoolConfig(config.DBConfig{DatabaseURL: url, ForceIPv4: true})
	require.NoError(t, err)

	ipv4 := reflect.ValueOf(dialIPv4).Pointer()
	assert.Equal(t, ipv4, reflect.ValueOf(forced.ConnConfig.DialFunc).Pointer())
	assert.NotEqual(t, ipv4, reflect.ValueOf(plain.ConnConfig.DialFunc).Pointer())
}

func TestNewPoolConfig_DSNInvalido(t *testing.T) {
	_, err := newPoolConfig(config.DBConfig{DatabaseURL: "postgres://u:p@host:notaport/x"})
	assert.Error(t, err)
}
