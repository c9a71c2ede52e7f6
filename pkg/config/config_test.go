package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsDevSecretInProduction(t *testing.T) {
	cfg := &Config{Env: EnvProduction, Port: 8080, JWT: JWTConfig{Secret: defaultJWTSecret}}
	require.Error(t, cfg.Validate())

	cfg.JWT.Secret = "a-real-secret"
	require.NoError(t, cfg.Validate())
}

func TestValidateAllowsDevSecretInDevelopment(t *testing.T) {
	cfg := &Config{Env: EnvDevelopment, Port: 8080, JWT: JWTConfig{Secret: defaultJWTSecret}}
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := &Config{Env: EnvDevelopment, Port: 0}
	require.Error(t, cfg.Validate())
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("bogus", time.Minute))
	assert.Equal(t, 30*time.Second, parseDuration("30s", time.Minute))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, splitAndTrim(" https://a.example , https://b.example ,"))
}
