package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"status-backend/internal/services/health"
	"status-backend/internal/shared/config"
	"status-backend/internal/users"
)

const (
	bodyAdmin       = `{"database":true,"userAdmin":true}`
	bodyNotAdmin    = `{"database":true,"userAdmin":false}`
	bodyUnavailable = `{"database":false,"userAdmin":false,"error":"db_unavailable"}`
	bodyNotFound    = `{"error":"Not Found"}`
)

var firstUserPattern = regexp.QuoteMeta("SELECT * FROM users LIMIT 1")

type testServer struct {
	router *gin.Engine
	logs   *observer.ObservedLogs
	svc    *health.Service
}

func newTestServer(t *testing.T, repo users.Repo, strict bool) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	svc := health.NewService(repo)
	router := NewRouter(RouterDeps{
		Config:        config.Config{Port: 3000, StrictMethods: strict},
		Logger:        logger,
		HealthHandler: health.NewHandler(svc, logger),
	})
	return testServer{router: router, logs: logs, svc: svc}
}

func newMockRepo(t *testing.T) (*users.PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return users.NewPGRepo(db), mock
}

func (s testServer) do(method, path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, httptest.NewRequest(method, path, nil))
	return resp
}

func assertJSON(t *testing.T, resp *httptest.ResponseRecorder, status int, body string) {
	t.Helper()
	if resp.Code != status {
		t.Fatalf("expected status %d, got %d (body %s)", status, resp.Code, resp.Body.String())
	}
	if got := resp.Body.String(); got != body {
		t.Fatalf("expected body %s, got %s", body, got)
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected application/json, got %q", ct)
	}
}

func TestUnknownPathsReturnNotFound(t *testing.T) {
	srv := newTestServer(t, users.NewMemoryRepo(users.User{Role: "admin"}), false)

	for _, path := range []string{"/", "/health", "/api/v1", "/apix", "/api/users", "/API", "/api//"} {
		t.Run(path, func(t *testing.T) {
			assertJSON(t, srv.do(http.MethodGet, path), http.StatusNotFound, bodyNotFound)
		})
	}
}

func TestStatusReportsFirstUserRole(t *testing.T) {
	cases := []struct {
		name string
		role any
		want string
	}{
		{name: "admin", role: "admin", want: bodyAdmin},
		{name: "member", role: "member", want: bodyNotAdmin},
		{name: "empty table", want: bodyNotAdmin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			srv := newTestServer(t, repo, false)

			for _, path := range health.Paths {
				rows := sqlmock.NewRows([]string{"id", "role"})
				if tc.role != nil {
					rows.AddRow(1, tc.role)
				}
				mock.ExpectQuery(firstUserPattern).WillReturnRows(rows)
				assertJSON(t, srv.do(http.MethodGet, path), http.StatusOK, tc.want)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("ExpectationsWereMet: %v", err)
			}
		})
	}
}

func TestStatusQueryFailureIsUnavailable(t *testing.T) {
	repo, mock := newMockRepo(t)
	srv := newTestServer(t, repo, false)
	mock.ExpectQuery(firstUserPattern).WillReturnError(errors.New("password authentication failed for user app"))

	resp := srv.do(http.MethodGet, "/api")
	assertJSON(t, resp, http.StatusServiceUnavailable, bodyUnavailable)
	if strings.Contains(resp.Body.String(), "password") {
		t.Fatalf("failure detail leaked into response")
	}

	entries := srv.logs.FilterMessage("db.unavailable").All()
	if len(entries) != 1 {
		t.Fatalf("expected db.unavailable log, got %d", len(entries))
	}
	if reason := entries[0].ContextMap()["reason"]; reason != "error" {
		t.Fatalf("expected reason error, got %v", reason)
	}
}

func TestStatusTimesOutWithoutWaitingForQuery(t *testing.T) {
	repo, mock := newMockRepo(t)
	srv := newTestServer(t, repo, false)
	srv.svc.Timeout = 100 * time.Millisecond
	mock.ExpectQuery(firstUserPattern).
		WillDelayFor(3 * time.Second).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin"))

	start := time.Now()
	resp := srv.do(http.MethodGet, "/api/")
	elapsed := time.Since(start)

	assertJSON(t, resp, http.StatusServiceUnavailable, bodyUnavailable)
	if elapsed > time.Second {
		t.Fatalf("expected response near the timeout, took %s", elapsed)
	}
	entries := srv.logs.FilterMessage("db.unavailable").All()
	if len(entries) != 1 || entries[0].ContextMap()["reason"] != "timeout" {
		t.Fatalf("expected timeout to be logged, got %+v", entries)
	}
}

func TestStatusIgnoresMethodByDefault(t *testing.T) {
	srv := newTestServer(t, users.NewMemoryRepo(users.User{Role: "admin"}), false)

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
		assertJSON(t, srv.do(method, "/api"), http.StatusOK, bodyAdmin)
	}
}

func TestStrictMethodsRejectsWrites(t *testing.T) {
	srv := newTestServer(t, users.NewMemoryRepo(users.User{Role: "admin"}), true)

	assertJSON(t, srv.do(http.MethodGet, "/api"), http.StatusOK, bodyAdmin)
	if resp := srv.do(http.MethodHead, "/api/"); resp.Code != http.StatusOK {
		t.Fatalf("expected HEAD 200, got %d", resp.Code)
	}

	resp := srv.do(http.MethodPost, "/api")
	assertJSON(t, resp, http.StatusMethodNotAllowed, `{"error":"Method Not Allowed"}`)
	if allow := resp.Header().Get("Allow"); !strings.Contains(allow, http.MethodGet) {
		t.Fatalf("expected Allow header with GET, got %q", allow)
	}

	assertJSON(t, srv.do(http.MethodPost, "/elsewhere"), http.StatusNotFound, bodyNotFound)
}

func TestStatusIsIdempotent(t *testing.T) {
	srv := newTestServer(t, users.NewMemoryRepo(users.User{Role: "member"}), false)

	first := srv.do(http.MethodGet, "/api").Body.String()
	for i := 0; i < 3; i++ {
		if got := srv.do(http.MethodGet, "/api").Body.String(); got != first {
			t.Fatalf("response %d differs: %s vs %s", i, got, first)
		}
	}
}

func TestResponsesCarryRequestID(t *testing.T) {
	srv := newTestServer(t, users.NewMemoryRepo(), false)

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	resp := httptest.NewRecorder()
	srv.router.ServeHTTP(resp, req)

	if got := resp.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Fatalf("expected request id echo, got %q", got)
	}
}

func TestAddrBindsAllInterfaces(t *testing.T) {
	if got := Addr(3000); got != "0.0.0.0:3000" {
		t.Fatalf("unexpected addr %q", got)
	}
}
