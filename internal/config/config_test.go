package config_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squad/internal/config"
	"squad/internal/domain/access"
)

func TestValidate(t *testing.T) {
	key := strings.Repeat("ab", 32)
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr bool
	}{
		{"defaults", func(*config.Config) {}, false},
		{"production with key", func(c *config.Config) { c.Env = config.EnvProduction; c.CSRFKey = key }, false},
		{"production without key", func(c *config.Config) { c.Env = config.EnvProduction }, true},
		{"short key", func(c *config.Config) { c.CSRFKey = "abcd" }, true},
		{"unknown env", func(c *config.Config) { c.Env = "staging" }, true},
		{"bad level", func(c *config.Config) { c.LogLevel = "trace" }, true},
		{"bad format", func(c *config.Config) { c.LogFormat = "xml" }, true},
		{"empty addr", func(c *config.Config) { c.Addr = "" }, true},
		{"negative rate limit", func(c *config.Config) { c.RateLimit = -1 }, true},
		{"admin email without password", func(c *config.Config) { c.AdminEmail = "a@b.c" }, true},
		{"unknown policy resource", func(c *config.Config) {
			c.Policy = map[string]map[string][]string{"admin": {"stadium": {"read"}}}
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.New()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, config.ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAccessPolicy(t *testing.T) {
	c := config.New()
	p, err := c.AccessPolicy()
	require.NoError(t, err)
	assert.Equal(t, access.DefaultPolicy(), p)

	c.Policy = map[string]map[string][]string{"coach": {"team": {"read"}}}
	p, err = c.AccessPolicy()
	require.NoError(t, err)
	assert.True(t, p.For("coach").HasAccess(access.ResourceTeam, access.OpRead, access.ScopeProject))
	assert.False(t, p.For("coach").HasAccess(access.ResourceEvent, access.OpRead, access.ScopeProject))
}

func TestCSRFKeyBytes(t *testing.T) {
	c := config.New()
	random, err := c.CSRFKeyBytes()
	require.NoError(t, err)
	assert.Len(t, random, 32)

	c.CSRFKey = strings.Repeat("0f", 32)
	key, err := c.CSRFKeyBytes()
	require.NoError(t, err)
	assert.Equal(t, byte(0x0f), key[0])

	c.CSRFKey = ""
	c.Env = config.EnvProduction
	_, err = c.CSRFKeyBytes()
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestDurations(t *testing.T) {
	c := config.New()
	c.SlowQueryMS = 250
	c.SlowRequestMS = 1500
	assert.Equal(t, "250ms", c.SlowQuery().String())
	assert.Equal(t, "1.5s", c.SlowRequest().String())
	assert.Nil(t, c.TrustedOriginList())
}
