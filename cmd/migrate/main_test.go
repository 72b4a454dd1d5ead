package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/angelmondragon/solarpo-backend/pkg/logger"
)

func sqliteTarget(synced *int, closed *int) connectFunc {
	return func(context.Context) (*target, error) {
		return &target{
			logg: logger.New(logger.Options{ServiceName: "migrate-test", Output: io.Discard}),
			sqlite: func(context.Context) error {
				*synced++
				return nil
			},
			close: func() error {
				*closed++
				return nil
			},
		}, nil
	}
}

func run(t *testing.T, open connectFunc, args ...string) (string, error) {
	t.Helper()
	app := newApp(open)
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.RunContext(context.Background(), append([]string{"migrate"}, args...))
	return out.String(), err
}

func TestSQLiteOnlySupportsUp(t *testing.T) {
	var synced, closed int
	open := sqliteTarget(&synced, &closed)

	_, err := run(t, open, "up")
	require.NoError(t, err)
	assert.Equal(t, 1, synced)

	_, err = run(t, open, "down")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only supports up")
	assert.Equal(t, 1, synced)
	assert.Equal(t, 2, closed)
}

func TestConnectFailureIsReported(t *testing.T) {
	open := func(context.Context) (*target, error) { return nil, errors.New("db down") }
	_, err := run(t, open, "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestToRejectsBadVersionBeforeConnecting(t *testing.T) {
	called := false
	open := func(context.Context) (*target, error) {
		called = true
		return nil, errors.New("unexpected")
	}
	_, err := run(t, open, "to", "yesterday")
	require.Error(t, err)
	assert.False(t, called)
}

func TestCreateAndValidate(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, nil, "create", "--dir", dir, "add supplier notes")
	require.NoError(t, err)
	assert.Contains(t, out, "created")

	files, err := filepath.Glob(filepath.Join(dir, "*_add_supplier_notes.sql"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	out, err = run(t, nil, "validate", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "migrations valid")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.sql"), []byte("select 1;"), 0o644))
	_, err = run(t, nil, "validate", "--dir", dir)
	assert.Error(t, err)
}
