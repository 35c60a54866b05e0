//go:build integration

package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/reentry/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/reentry/internal/database"
	"github.com/saturnino-fabrica-de-software/reentry/internal/provider"
	"github.com/saturnino-fabrica-de-software/reentry/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/reentry/internal/service"
	"github.com/saturnino-fabrica-de-software/reentry/internal/store"
)

var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "reentry_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Printf("Failed to start container: %v\n", err)
		os.Exit(1)
	}

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432")
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/reentry_test?sslmode=disable", host, port.Port())

	if err := database.MigrateUp(ctx, dsn, "reentry_test"); err != nil {
		fmt.Printf("Failed to run migrations: %v\n", err)
		_ = container.Terminate(ctx)
		os.Exit(1)
	}

	testDB, err = database.NewPool(ctx, database.DefaultPoolConfig(dsn))
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		_ = container.Terminate(ctx)
		os.Exit(1)
	}

	code := m.Run()

	testDB.Close()
	if err := container.Terminate(ctx); err != nil {
		fmt.Printf("Failed to terminate container: %v\n", err)
	}
	os.Exit(code)
}

func newPostgresServer(t *testing.T) *testServer {
	t.Helper()
	logger := testLogger()

	faceStore := store.Open(context.Background(), store.NewPostgresPersister(testDB), logger)
	detector := mock.New(mock.DefaultDimension)
	pipeline := provider.NewPipeline(detector, detector, logger)

	faceService := service.NewFaceService(
		pipeline,
		faceStore,
		service.NewEnrollmentService(faceStore, mock.DefaultDimension, logger),
		service.NewMatchEngine(service.DefaultThreshold, logger),
		logger,
	)

	router := NewRouter(logger, &Dependencies{
		FaceService: faceService,
		ReadyChecks: map[string]handler.Check{
			"models": pipeline.Check,
			"database": func(ctx context.Context) error {
				return database.HealthCheck(ctx, testDB)
			},
		},
	})
	router.Setup()
	t.Cleanup(func() { _ = router.Shutdown() })

	return &testServer{router: router, store: faceStore}
}

func TestIntegration_ReadyWithDatabase(t *testing.T) {
	srv := newPostgresServer(t)

	resp := srv.do(t, http.MethodGet, "/ready")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ready := decode[handler.HealthResponse](t, resp)
	assert.Equal(t, "ok", ready.Checks["database"])
}

func TestIntegration_EnrollSurvivesRestart(t *testing.T) {
	first := newPostgresServer(t)
	require.Equal(t, http.StatusNoContent, first.do(t, http.MethodDelete, "/v1/faces").StatusCode)

	alice := faceImage(t, 10)
	require.Equal(t, http.StatusCreated, first.upload(t, "/v1/register", "alice", alice).StatusCode)
	require.Equal(t, http.StatusCreated, first.upload(t, "/v1/register", "bob", faceImage(t, 200)).StatusCode)

	second := newPostgresServer(t)
	assert.Equal(t, 2, second.store.Count())

	rec := decode[handler.ReenterResponse](t, second.upload(t, "/v1/reenter", "", alice))
	assert.True(t, rec.Recognized)
	assert.Equal(t, "alice", rec.Name)

	require.Equal(t, http.StatusNoContent, second.do(t, http.MethodDelete, "/v1/faces").StatusCode)

	var rows int
	require.NoError(t, testDB.QueryRow(context.Background(), "SELECT COUNT(*) FROM face_entries").Scan(&rows))
	assert.Zero(t, rows)
}
