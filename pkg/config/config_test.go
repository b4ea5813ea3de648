package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 3, cfg.Inventory.ConflictRetries)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, 10, cfg.DB.MaxConns)
	assert.Equal(t, 1, cfg.DB.MinConns)
	assert.Equal(t, time.Hour, cfg.DB.MaxConnLifetime)
	assert.False(t, cfg.DB.ForceIPv4)
}

func TestFromViper_ValoresExplicitos(t *testing.T) {
	v := viper.New()
	v.Set("STORE_DRIVER", "Postgres")
	v.Set("KAFKA_BROKERS", "k1:9092, k2:9092,")
	v.Set("CONFLICT_RETRIES", "5")
	v.Set("DB_PASSWORD", "p@ss word")
	v.Set("DB_MAX_CONNS", "20")
	v.Set("DB_MIN_CONNS", "4")
	v.Set("DB_MAX_CONN_IDLE_TIME", "90s")
	v.Set("DB_FORCE_IPV4", "true")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, StorePostgres, cfg.Store.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, 5, cfg.Inventory.ConflictRetries)
	assert.Contains(t, cfg.DB.ConnectionString(), "p%40ss%20word")
	assert.Equal(t, 20, cfg.DB.MaxConns)
	assert.Equal(t, 4, cfg.DB.MinConns)
	assert.Equal(t, 90*time.Second, cfg.DB.MaxConnIdleTime)
	assert.True(t, cfg.DB.ForceIPv4)
}

func TestFromViper_Invalidos(t *testing.T) {
	v := viper.New()
	v.Set("STORE_DRIVER", "redis")
	_, err := fromViper(v)
	assert.Error(t, err)

	v = viper.New()
	v.Set("CONFLICT_RETRIES", 0)
	_, err = fromViper(v)
	assert.Error(t, err)

	v = viper.New()
	v.Set("DB_MAX_CONNS", "2")
	v.Set("DB_MIN_CONNS", "5")
	_, err = fromViper(v)
	assert.Error(t, err)
}

func TestConnectionString_PrefiereDatabaseURL(t *testing.T) {
	c := DBConfig{DatabaseURL: "postgres://u:p@db:5432/x", Host: "otro"}
	assert.Equal(t, "postgres://u:p@db:5432/x", c.ConnectionString())
}
