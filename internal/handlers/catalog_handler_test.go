package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/consum-be/internal/core/domain"
	"github.com/ammerola/consum-be/test/helpers"
)

func TestCategoryHandler(t *testing.T) {
	fruit := domain.Category{CatID: 3, CatName: helpers.Ptr("Fruit"), CatUnitCode: 1, Code: 100}

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		authed         bool
		setupMocks     func(*testServer)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:   "list",
			method: http.MethodGet,
			path:   "/categories",
			setupMocks: func(s *testServer) {
				s.categories.EXPECT().GetCategories(gomock.Any()).Return([]domain.Category{fruit}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				assert.JSONEq(t,
					`[{"catId":3,"parentId":null,"catName":"Fruit","catUnitCode":1,"code":100}]`,
					string(body))
			},
		},
		{
			name:   "get",
			method: http.MethodGet,
			path:   "/categories/3",
			setupMocks: func(s *testServer) {
				s.categories.EXPECT().GetCategory(gomock.Any(), int32(3)).Return(&fruit, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "get_missing",
			method: http.MethodGet,
			path:   "/categories/4",
			setupMocks: func(s *testServer) {
				s.categories.EXPECT().GetCategory(gomock.Any(), int32(4)).Return(nil, domain.ErrRecordNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "id_out_of_range",
			method:         http.MethodGet,
			path:           "/categories/99999999999",
			setupMocks:     func(s *testServer) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "create",
			method: http.MethodPost,
			path:   "/categories",
			body:   `{"catName":"Fruit","catUnitCode":1,"code":100}`,
			authed: true,
			setupMocks: func(s *testServer) {
				s.categories.EXPECT().
					CreateCategory(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, in domain.CreateCategory) (*domain.Category, error) {
						assert.Equal(t, "Fruit", *in.CatName)
						assert.Nil(t, in.ParentID)
						return &fruit, nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "create_blank_name",
			method:         http.MethodPost,
			path:           "/categories",
			body:           `{"catName":"  "}`,
			authed:         true,
			setupMocks:     func(s *testServer) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "create_trailing_document",
			method:         http.MethodPost,
			path:           "/categories",
			body:           `{"catName":"A"}{"catName":"B"}`,
			authed:         true,
			setupMocks:     func(s *testServer) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "delete",
			method: http.MethodDelete,
			path:   "/categories/3",
			authed: true,
			setupMocks: func(s *testServer) {
				s.categories.EXPECT().DeleteCategory(gomock.Any(), int32(3)).Return(nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:   "delete_missing",
			method: http.MethodDelete,
			path:   "/categories/8",
			authed: true,
			setupMocks: func(s *testServer) {
				s.categories.EXPECT().DeleteCategory(gomock.Any(), int32(8)).Return(domain.ErrRecordNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "delete_requires_token",
			method:         http.MethodDelete,
			path:           "/categories/3",
			setupMocks:     func(s *testServer) {},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			tt.setupMocks(s)

			w := s.do(tt.method, tt.path, tt.body, tt.authed)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validateBody != nil {
				tt.validateBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestSupplierHandler(t *testing.T) {
	acme := domain.Supplier{SupplierID: 2, SupplierName: "Acme Farms", INN: helpers.Ptr("7701234567")}

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		authed         bool
		setupMocks     func(*testServer)
		expectedStatus int
	}{
		{
			name:   "get_by_id",
			method: http.MethodGet,
			path:   "/suppliers/2",
			setupMocks: func(s *testServer) {
				s.suppliers.EXPECT().GetSupplierByID(gomock.Any(), int32(2)).Return(&acme, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "get_by_id_missing",
			method: http.MethodGet,
			path:   "/suppliers/5",
			setupMocks: func(s *testServer) {
				s.suppliers.EXPECT().GetSupplierByID(gomock.Any(), int32(5)).Return(nil, domain.ErrRecordNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "get_by_encoded_name",
			method: http.MethodGet,
			path:   "/suppliers/name/Acme%20Farms",
			setupMocks: func(s *testServer) {
				s.suppliers.EXPECT().GetSupplierByName(gomock.Any(), "Acme Farms").Return(&acme, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "blank_name",
			method:         http.MethodGet,
			path:           "/suppliers/name/%20",
			setupMocks:     func(s *testServer) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "create",
			method: http.MethodPost,
			path:   "/suppliers",
			body:   `{"supplierName":"Acme Farms","inn":"7701234567"}`,
			authed: true,
			setupMocks: func(s *testServer) {
				s.suppliers.EXPECT().CreateSupplier(gomock.Any(), domain.CreateSupplier{
					SupplierName: "Acme Farms",
					INN:          helpers.Ptr("7701234567"),
				}).Return(&acme, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "create_unknown_field",
			method:         http.MethodPost,
			path:           "/suppliers",
			body:           `{"supplierName":"Acme Farms","taxCode":"12ab"}`,
			authed:         true,
			setupMocks:     func(s *testServer) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "create_requires_token",
			method:         http.MethodPost,
			path:           "/suppliers",
			body:           `{"supplierName":"Acme Farms"}`,
			setupMocks:     func(s *testServer) {},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			tt.setupMocks(s)

			w := s.do(tt.method, tt.path, tt.body, tt.authed)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK || tt.expectedStatus == http.StatusCreated {
				var got domain.Supplier
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, acme.SupplierName, got.SupplierName)
			}
		})
	}
}
