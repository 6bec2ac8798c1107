package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/devicecatalog/internal/audit"
	"github.com/mrlokans/devicecatalog/internal/database"
	auditRepo "github.com/mrlokans/devicecatalog/internal/database/audit"
	"github.com/mrlokans/devicecatalog/internal/database/devices"
	"github.com/mrlokans/devicecatalog/internal/identifiers"
	"github.com/mrlokans/devicecatalog/internal/services"
	"github.com/mrlokans/devicecatalog/internal/validation"
)

type testServer struct {
	router  *gin.Engine
	db      *database.Database
	audit   *audit.Service
	journal *audit.Journal
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	dir := t.TempDir()
	db, err := database.NewDatabaseWithLogLevel(filepath.Join(dir, "catalog.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := devices.NewRepository(db.DB)
	auditService := audit.NewService(auditRepo.NewRepository(db.DB))
	journal := audit.NewJournal(filepath.Join(dir, "journal"))

	svc := services.NewDeviceService(services.DeviceServiceConfig{
		Store:     repo,
		Validator: validation.NewValidator(),
		Allocator: identifiers.NewAllocator(repo, 0),
		Audit:     auditService,
	})

	router := NewRouter(RouterConfig{
		Devices:  svc,
		Database: db,
		Audit:    auditService,
		Journal:  journal,
		Version:  "test",
	})

	return &testServer{router: router, db: db, audit: auditService, journal: journal}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
