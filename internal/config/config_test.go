package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8090", cfg.HTTPPort)
	assert.Equal(t, 3, cfg.VerifyMaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.VerifyBackoff)
	assert.Equal(t, time.Hour, cfg.CryptoWindow)
	assert.Equal(t, uint32(5), cfg.BreakerThreshold)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("CRYPTO_ADDRESSES", "btc=bc1qxyz, USDT=T9abc")
	t.Setenv("VERIFY_BACKOFF", "500ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, map[string]string{"BTC": "bc1qxyz", "USDT": "T9abc"}, cfg.CryptoAddresses)
	assert.Equal(t, 500*time.Millisecond, cfg.VerifyBackoff)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("VERIFY_MAX_ATTEMPTS", "three")
	_, err := Load()
	assert.ErrorContains(t, err, "VERIFY_MAX_ATTEMPTS")

	t.Setenv("VERIFY_MAX_ATTEMPTS", "3")
	t.Setenv("CRYPTO_ADDRESSES", "BTC")
	_, err = Load()
	assert.ErrorContains(t, err, "invalid pair")
}
