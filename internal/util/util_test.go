package util_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youruser/imageapi/internal/util"
)

func TestGetBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			_, _ = w.Write([]byte("payload"))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	body, err := util.GetBytes(context.Background(), srv.Client(), srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))

	_, err = util.GetBytes(context.Background(), nil, srv.URL+"/fail")
	require.ErrorIs(t, err, util.ErrHTTPStatus)
	assert.Equal(t, http.StatusBadGateway, util.StatusCode(err))
	assert.Contains(t, err.Error(), "502")
}

func TestGetBytes_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := util.GetBytes(ctx, nil, "http://127.0.0.1:1/never")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, util.StatusCode(err))
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "item.png")

	require.NoError(t, util.WriteFileAtomic(path, []byte("first")))
	require.NoError(t, util.WriteFileAtomic(path, []byte("second")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
	assert.True(t, util.FileExists(path))
	assert.False(t, util.FileExists(filepath.Dir(path)))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEnsureDir_FailsOnFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	err := util.EnsureDir(filepath.Join(file, "sub"))
	assert.Error(t, err)
}
