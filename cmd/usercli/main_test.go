package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

//nolint:paralleltest
func TestRun_ExitCodes(t *testing.T) {
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "db_sqlite", "database.sqlite"))
	t.Setenv("LOG_OUTPUT", "discard")

	ctx := context.Background()

	assert.Equal(t, 0, run(ctx, []string{"get-user", "--id", "1"}))
	assert.Equal(t, 1, run(ctx, []string{"get-user", "--id", "abc"}))
	assert.Equal(t, 1, run(ctx, []string{"get-user"}))
	assert.Equal(t, 0, run(ctx, []string{"create-user", "-u", "alice", "-e", "alice@example.com"}))
	assert.Equal(t, 0, run(ctx, []string{"get-user", "-i", "1"}))
}

func TestIsEnvSet(t *testing.T) {
	t.Setenv("USERCLI_TEST_FLAG", "1")

	assert.True(t, isEnvSet("USERCLI_TEST_MISSING", "USERCLI_TEST_FLAG"))
	assert.False(t, isEnvSet("USERCLI_TEST_MISSING"))
}
