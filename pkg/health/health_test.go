package health

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"literary-character-ai/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestCriticalComponentDrivesHealth(t *testing.T) {
	checker := NewChecker(logger.Discard(), time.Minute)
	dbErr := errors.New("connection refused")
	checker.RegisterDatabaseCheck(func(context.Context) error { return dbErr })
	checker.RegisterLLMCheck(func() bool { return false })

	var observed []bool
	checker.OnChange(func(healthy bool) { observed = append(observed, healthy) })

	checker.RunChecks(context.Background())
	assert.False(t, checker.IsSystemHealthy())

	status := checker.GetStatus()
	assert.Equal(t, StatusDown, status["database"].Status)
	assert.Equal(t, "connection refused", status["database"].Error)
	assert.Equal(t, StatusDegraded, status["llm"].Status)

	dbErr = nil
	checker.RunChecks(context.Background())
	assert.True(t, checker.IsSystemHealthy())
	assert.Equal(t, []bool{false, true}, observed)
}

func TestHandlerStatusCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	checker := NewChecker(logger.Discard(), time.Minute)
	checker.RegisterDatabaseCheck(func(context.Context) error { return errors.New("down") })
	checker.RunChecks(context.Background())

	r := gin.New()
	r.GET("/health", checker.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"unhealthy"`)
}

func TestGRPCHealthFollowsChecker(t *testing.T) {
	checker := NewChecker(logger.Discard(), time.Minute)
	var dbErr error
	checker.RegisterDatabaseCheck(func(context.Context) error { return dbErr })
	checker.RunChecks(context.Background())

	srv := NewGRPCServer(checker, "chat", logger.Discard())
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.ServeListener(lis) }()
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	client := healthpb.NewHealthClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: "chat"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	dbErr = errors.New("gone")
	checker.RunChecks(context.Background())

	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: ""})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}
