package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "dev")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsDev())
	assert.False(t, cfg.IsProd())
	assert.Equal(t, 30, cfg.TestLinkExpiryDays)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxUploadBytes())
	assert.Equal(t, 2, cfg.OracleMaxRetries)
	assert.Empty(t, cfg.KafkaBrokers)
}

func Test_Load_ProdRequiresJWTSecret(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=config.Load")

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProd())
}

func Test_Load_ParsesBrokerList(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
}

func Test_OracleRetry_ShortInTest(t *testing.T) {
	cfg := Config{AppEnv: "test", OracleMaxRetries: 2, OracleRateLimitDelay: 2 * time.Second, OracleRetryDelay: time.Second}
	n, rl, rd := cfg.OracleRetry()
	assert.Equal(t, 2, n)
	assert.Less(t, rl, time.Second)
	assert.Less(t, rd, time.Second)

	cfg.AppEnv = "prod"
	_, rl, rd = cfg.OracleRetry()
	assert.Equal(t, 2*time.Second, rl)
	assert.Equal(t, time.Second, rd)
}

func Test_Load_RejectsMalformedValues(t *testing.T) {
	cases := map[string]string{
		"HTTP_READ_TIMEOUT":       "bad",
		"PORT":                    "eighty",
		"ORACLE_BREAKER_FAILURES": "many",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func Test_Load_BreakerDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.OracleBreakerFailures)
	assert.Equal(t, 30*time.Second, cfg.OracleBreakerCooldown)
	assert.Equal(t, time.Hour, cfg.OpenRouterCatalogTTL)
}
