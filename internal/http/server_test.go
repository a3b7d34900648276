package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/fyrsmithlabs/journald/internal/logging"
	"github.com/fyrsmithlabs/journald/internal/reflection"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func setupTestServer(t *testing.T) (*Server, *reflection.MemoryStore) {
	t.Helper()
	store := reflection.NewMemoryStore(nil, func() time.Time { return fixedNow }, zap.NewNop())
	server, err := NewServer(store, logging.NewNop(), nil)
	require.NoError(t, err)
	return server, store
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Error
}

// failingStore fails every operation with a persistence error.
type failingStore struct{}

func (failingStore) List(context.Context) ([]reflection.Reflection, error) {
	return nil, &reflection.PersistenceError{Op: "load", Path: "/secret/path.json", Err: reflection.ErrCorruptDocument}
}

func (failingStore) Create(context.Context, string, string) (*reflection.Reflection, error) {
	return nil, &reflection.PersistenceError{Op: "save", Path: "/secret/path.json", Err: os.ErrPermission}
}

func (failingStore) Delete(context.Context, string) (bool, error) {
	return false, &reflection.PersistenceError{Op: "load", Path: "/secret/path.json", Err: os.ErrPermission}
}

func TestNewServer(t *testing.T) {
	t.Run("uses defaults when config is nil", func(t *testing.T) {
		server, _ := setupTestServer(t)
		assert.NotNil(t, server.echo)
		assert.Equal(t, "localhost", server.config.Host)
		assert.Equal(t, 5000, server.config.Port)
		assert.Equal(t, "journald", server.config.ServiceName)
	})

	t.Run("keeps provided config", func(t *testing.T) {
		cfg := &Config{Host: "0.0.0.0", Port: 8080, ShutdownTimeout: time.Second, ServiceName: "diary"}
		server, err := NewServer(reflection.NewMemoryStore(nil, nil, nil), logging.NewNop(), cfg)
		require.NoError(t, err)
		assert.Equal(t, cfg, server.config)
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		_, err := NewServer(reflection.NewMemoryStore(nil, nil, nil), nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})

	t.Run("returns error when store is nil", func(t *testing.T) {
		_, err := NewServer(nil, logging.NewNop(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store cannot be nil")
	})
}

func TestHandleHealth(t *testing.T) {
	server, _ := setupTestServer(t)

	rec := do(t, server, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "journald", resp.Service)
}

func TestHandleList(t *testing.T) {
	t.Run("empty store returns empty array", func(t *testing.T) {
		server, _ := setupTestServer(t)

		rec := do(t, server, http.MethodGet, "/api/reflections", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("returns records in creation order", func(t *testing.T) {
		server, store := setupTestServer(t)
		ctx := context.Background()
		_, err := store.Create(ctx, "Ada", "first")
		require.NoError(t, err)
		_, err = store.Create(ctx, "Grace", "second")
		require.NoError(t, err)

		rec := do(t, server, http.MethodGet, "/api/reflections", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var got []reflection.Reflection
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "Ada", got[0].Name)
		assert.Equal(t, "Grace", got[1].Name)
	})

	t.Run("persistence failure is 500 without detail", func(t *testing.T) {
		server, err := NewServer(failingStore{}, logging.NewNop(), nil)
		require.NoError(t, err)

		rec := do(t, server, http.MethodGet, "/api/reflections", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, msgInternal, decodeError(t, rec))
		assert.NotContains(t, rec.Body.String(), "/secret/path.json")
	})
}

func TestHandleCreate(t *testing.T) {
	t.Run("creates reflection", func(t *testing.T) {
		server, store := setupTestServer(t)

		rec := do(t, server, http.MethodPost, "/api/reflections", `{"name":"Ada","reflection":"Learned Go interfaces"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got reflection.Reflection
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "20250314092653", got.ID)
		assert.Equal(t, "Ada", got.Name)
		assert.Equal(t, "Learned Go interfaces", got.Reflection)
		assert.Equal(t, "Fri Mar 14 2025", got.Date)
		assert.Equal(t, "2025-03-14T09:26:53Z", got.Timestamp)

		items, err := store.List(context.Background())
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	invalid := []struct {
		name        string
		body        string
		contentType string
	}{
		{"missing name", `{"reflection":"text"}`, echo.MIMEApplicationJSON},
		{"missing reflection", `{"name":"Ada"}`, echo.MIMEApplicationJSON},
		{"blank name", `{"name":"   ","reflection":"text"}`, echo.MIMEApplicationJSON},
		{"blank reflection", `{"name":"Ada","reflection":""}`, echo.MIMEApplicationJSON},
		{"empty object", `{}`, echo.MIMEApplicationJSON},
		{"malformed json", `{"name":`, echo.MIMEApplicationJSON},
		{"wrong types", `{"name":1,"reflection":true}`, echo.MIMEApplicationJSON},
		{"array body", `[]`, echo.MIMEApplicationJSON},
		{"no body", ``, echo.MIMEApplicationJSON},
		{"not json", `name=Ada&reflection=x`, "text/plain"},
	}

	for _, tt := range invalid {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			server, store := setupTestServer(t)

			req := httptest.NewRequest(http.MethodPost, "/api/reflections", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, tt.contentType)
			rec := httptest.NewRecorder()
			server.echo.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, msgRequired, decodeError(t, rec))
			assert.Equal(t, 0, store.Writes(), "collection must be unchanged")
		})
	}

	t.Run("persistence failure is 500", func(t *testing.T) {
		server, err := NewServer(failingStore{}, logging.NewNop(), nil)
		require.NoError(t, err)

		rec := do(t, server, http.MethodPost, "/api/reflections", `{"name":"Ada","reflection":"text"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, msgInternal, decodeError(t, rec))
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		server, store := setupTestServer(t)
		body := `{"name":"Ada","reflection":"` + strings.Repeat("x", 70*1024) + `"}`

		rec := do(t, server, http.MethodPost, "/api/reflections", body)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, 0, store.Writes())
	})
}

func TestHandleDelete(t *testing.T) {
	t.Run("deletes existing reflection", func(t *testing.T) {
		server, store := setupTestServer(t)
		r, err := store.Create(context.Background(), "Ada", "text")
		require.NoError(t, err)

		rec := do(t, server, http.MethodDelete, "/api/reflections/"+r.ID, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Reflection deleted successfully"}`, rec.Body.String())

		items, err := store.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("absent id is 404 and no write", func(t *testing.T) {
		server, store := setupTestServer(t)
		_, err := store.Create(context.Background(), "Ada", "text")
		require.NoError(t, err)
		writes := store.Writes()

		rec := do(t, server, http.MethodDelete, "/api/reflections/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, msgNotFound, decodeError(t, rec))
		assert.Equal(t, writes, store.Writes())
	})

	t.Run("persistence failure is 500", func(t *testing.T) {
		server, err := NewServer(failingStore{}, logging.NewNop(), nil)
		require.NoError(t, err)

		rec := do(t, server, http.MethodDelete, "/api/reflections/x", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestFullScenario_FileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backend", "reflections.json")
	store, err := reflection.NewFileStore(reflection.FileStoreConfig{Path: path}, zap.NewNop())
	require.NoError(t, err)
	server, err := NewServer(store, logging.NewNop(), nil)
	require.NoError(t, err)

	rec := do(t, server, http.MethodGet, "/api/reflections", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, server, http.MethodPost, "/api/reflections", `{"name":"Ada","reflection":"Today I learned about closures."}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created reflection.Reflection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Regexp(t, regexp.MustCompile(`^\d{14}$`), created.ID)

	rec = do(t, server, http.MethodGet, "/api/reflections", "")
	var listed []reflection.Reflection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created, listed[0])

	rec = do(t, server, http.MethodDelete, "/api/reflections/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, server, http.MethodGet, "/api/reflections", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))
}

func TestErrorHandler(t *testing.T) {
	server, _ := setupTestServer(t)

	t.Run("unknown route", func(t *testing.T) {
		rec := do(t, server, http.MethodGet, "/nowhere", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Not Found", decodeError(t, rec))
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := do(t, server, http.MethodPut, "/api/reflections", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.NotEmpty(t, decodeError(t, rec))
	})

	t.Run("head has no body", func(t *testing.T) {
		rec := do(t, server, http.MethodHead, "/nowhere", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestAccessLog(t *testing.T) {
	tl := logging.NewTestLogger()
	store := reflection.NewMemoryStore(nil, nil, nil)
	server, err := NewServer(store, tl.Logger, nil)
	require.NoError(t, err)

	rec := do(t, server, http.MethodPost, "/api/reflections", `{"name":"Ada","reflection":"private thoughts"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, server, http.MethodDelete, "/api/reflections/missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	tl.AssertLogged(t, zapcore.InfoLevel, "http request")
	tl.AssertField(t, "http request", "status", int64(http.StatusNotFound))
	tl.AssertLogged(t, zapcore.InfoLevel, "reflection created")
	tl.AssertNoField(t, "reflection")

	for _, e := range tl.FilterMessage("http request").All() {
		assert.NotEmpty(t, e.ContextMap()["request_id"])
		assert.NotEmpty(t, e.ContextMap()["request.id"], "request id should reach the request context")
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	server, _ := setupTestServer(t)
	server.config.ShutdownTimeout = 2 * time.Second

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	server.echo.Listener = ln

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Start(ctx) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, http.ErrServerClosed), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
