package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaughan-dsouza/salonbook/internal/config"
	"github.com/vaughan-dsouza/salonbook/internal/logging"
	"github.com/vaughan-dsouza/salonbook/internal/ratelimit"
)

func TestVersionCommand(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "salonbook dev\n", out.String())
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ACCESS_SECRET", "")
	t.Setenv("REFRESH_SECRET", "")
	t.Setenv("DB_IN_MEMORY", "")

	cmd := rootCmd()
	cmd.SetArgs([]string{"--log-level", "error"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
}

func TestNewCounter(t *testing.T) {
	ctx := context.Background()
	log := logging.Discard()

	c, closeFn, err := newCounter(ctx, config.RateLimitConfig{}, log)
	require.NoError(t, err)
	closeFn()
	assert.IsType(t, &ratelimit.MemoryCounter{}, c)

	mr := miniredis.RunT(t)
	c, closeFn, err = newCounter(ctx, config.RateLimitConfig{RedisURL: "redis://" + mr.Addr()}, log)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &ratelimit.RedisCounter{}, c)

	_, _, err = newCounter(ctx, config.RateLimitConfig{RedisURL: "://bad"}, log)
	assert.Error(t, err)
}

func TestOpenStores_InMemory(t *testing.T) {
	ctx := context.Background()

	s, closeFn, err := openStores(ctx, config.DBConfig{InMemory: true}, logging.Discard())
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, s.ping.PingContext(ctx))
	list, err := s.schedules.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
