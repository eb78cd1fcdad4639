package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/consum-be/internal/handlers"
	"github.com/ammerola/consum-be/internal/handlers/middleware"
	"github.com/ammerola/consum-be/internal/pkg/auth"
	"github.com/ammerola/consum-be/test/helpers"
	"github.com/ammerola/consum-be/test/mocks"
)

const testSecret = "test-secret"

type testServer struct {
	orders     *mocks.MockOrderRepository
	categories *mocks.MockCategoryRepository
	suppliers  *mocks.MockSupplierRepository
	handler    http.Handler
	token      string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ctrl := gomock.NewController(t)
	logger := helpers.TestLogger()

	signer, err := auth.NewSigner(testSecret, time.Hour)
	require.NoError(t, err)
	token, err := signer.Issue("tester", time.Hour)
	require.NoError(t, err)

	s := &testServer{
		orders:     mocks.NewMockOrderRepository(ctrl),
		categories: mocks.NewMockCategoryRepository(ctrl),
		suppliers:  mocks.NewMockSupplierRepository(ctrl),
		token:      token,
	}

	mux := http.NewServeMux()
	handlers.Routes{
		Orders:     handlers.NewOrderHandler(s.orders, logger),
		Categories: handlers.NewCategoryHandler(s.categories, logger),
		Suppliers:  handlers.NewSupplierHandler(s.suppliers, logger),
		Auth:       middleware.Auth(signer, logger),
	}.Register(mux)
	s.handler = mux

	return s
}

func (s *testServer) do(method, target, body string, authed bool) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) handlers.Problem {
	t.Helper()

	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	var p handlers.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, w.Code, p.Status)
	return p
}
