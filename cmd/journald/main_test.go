package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fyrsmithlabs/journald/internal/config"
	"github.com/fyrsmithlabs/journald/internal/reflection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at an empty dir so no real config file is read.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return t.TempDir()
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	want := []string{"serve", "list", "add", "delete", "version"}
	for _, name := range want {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
				if c.Short == "" {
					t.Errorf("%s command should have Short description", name)
				}
			}
		}
		if !found {
			t.Errorf("%s command not found in root", name)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:    dev")
	assert.Contains(t, out, "Commit:")
}

func TestListAddDelete(t *testing.T) {
	dataDir := isolate(t)

	out, err := execute(t, "list", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))

	out, err = execute(t, "add", "--data-dir", dataDir, "--name", "Ada", "--text", "Learned about goroutines.")
	require.NoError(t, err)
	var created reflection.Reflection
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, "Ada", created.Name)
	assert.Regexp(t, `^\d{14}$`, created.ID)

	_, err = os.Stat(filepath.Join(dataDir, "reflections.json"))
	require.NoError(t, err, "backing document should be written to the data dir")

	out, err = execute(t, "list", "--data-dir", dataDir)
	require.NoError(t, err)
	var listed []reflection.Reflection
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created, listed[0])

	out, err = execute(t, "delete", "--data-dir", dataDir, created.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted "+created.ID)

	_, err = execute(t, "delete", "--data-dir", dataDir, created.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, reflection.ErrNotFound))
	assert.Contains(t, err.Error(), "reflection not found")
}

func TestAddCmd_Validation(t *testing.T) {
	dataDir := isolate(t)

	_, err := execute(t, "add", "--data-dir", dataDir, "--name", "Ada")
	require.Error(t, err, "missing --text flag")

	_, err = execute(t, "add", "--data-dir", dataDir, "--name", " ", "--text", "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, reflection.ErrValidation))

	_, err = os.Stat(filepath.Join(dataDir, "reflections.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "rejected input must not create the document")
}

func TestListCmd_CorruptDocument(t *testing.T) {
	dataDir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "reflections.json"), []byte("{"), 0o644))

	_, err := execute(t, "list", "--data-dir", dataDir)
	require.Error(t, err)
	assert.True(t, reflection.IsPersistenceError(err))
}

func TestConfigFile(t *testing.T) {
	isolate(t)
	dataDir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "journald.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf("storage:\n  data_dir: %s\n  id_strategy: uuid\n", dataDir)), 0o600))

	out, err := execute(t, "add", "--config", cfgPath, "--name", "Ada", "--text", "uuid ids")
	require.NoError(t, err)
	var created reflection.Reflection
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Len(t, created.ID, 36)

	_, err = os.Stat(filepath.Join(dataDir, "reflections.json"))
	assert.NoError(t, err)
}

func TestOpenStore(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Storage.DataDir = t.TempDir()

	store, path, err := openStore(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &reflection.FileStore{}, store)
	assert.Equal(t, filepath.Join(cfg.Storage.DataDir, "reflections.json"), path)

	cfg.Storage.Backend = config.BackendMemory
	store, path, err = openStore(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &reflection.MemoryStore{}, store)
	assert.Empty(t, path)

	cfg.Storage.Backend = "sqlite"
	_, _, err = openStore(cfg, nil)
	assert.Error(t, err)

	cfg.Storage.Backend = config.BackendFile
	cfg.Storage.IDStrategy = "counter"
	_, _, err = openStore(cfg, nil)
	assert.Error(t, err)
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestRun_ServesAndStops(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = freePort(t)
	cfg.Server.ShutdownTimeout = config.Duration(2 * time.Second)
	cfg.Storage.DataDir = t.TempDir()
	cfg.Logging.Level = "error"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg) }()

	base := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Post(base+"/api/reflections", "application/json",
		strings.NewReader(`{"name":"Ada","reflection":"served end to end"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancellation")
	}

	data, err := os.ReadFile(filepath.Join(cfg.Storage.DataDir, "reflections.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "Ada"`)
}
