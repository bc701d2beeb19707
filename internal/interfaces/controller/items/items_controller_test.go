package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domainErrors "inventory-tracker/internal/domain/errors"
	"inventory-tracker/internal/usecase"
)

// MockItemUsecase はハンドラーのテスト用にユースケースを差し替えるモック
type MockItemUsecase struct {
	mock.Mock
}

func (m *MockItemUsecase) ListItems(ctx context.Context, filter usecase.ListFilter) ([]*usecase.ItemView, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*usecase.ItemView), args.Error(1)
}

func (m *MockItemUsecase) GetItem(ctx context.Context, id uuid.UUID) (*usecase.ItemView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ItemView), args.Error(1)
}

func (m *MockItemUsecase) CreateItem(ctx context.Context, input usecase.CreateItemInput) (*usecase.ItemView, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ItemView), args.Error(1)
}

func (m *MockItemUsecase) UpdateItem(ctx context.Context, id uuid.UUID, input usecase.UpdateItemInput) (*usecase.ItemView, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ItemView), args.Error(1)
}

func (m *MockItemUsecase) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockItemUsecase) GetExpiringItems(ctx context.Context) ([]*usecase.ItemView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*usecase.ItemView), args.Error(1)
}

func (m *MockItemUsecase) GetExpiredItems(ctx context.Context) ([]*usecase.ItemView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*usecase.ItemView), args.Error(1)
}

func (m *MockItemUsecase) GetCategorySummary(ctx context.Context) (*usecase.CategorySummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.CategorySummary), args.Error(1)
}

func (m *MockItemUsecase) GetDashboard(ctx context.Context) (*usecase.Dashboard, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.Dashboard), args.Error(1)
}

func (m *MockItemUsecase) CheckExpiring(ctx context.Context) (*usecase.ExpiryAlert, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ExpiryAlert), args.Error(1)
}

func (m *MockItemUsecase) ImportCSV(ctx context.Context, path string) (*usecase.ImportResult, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ImportResult), args.Error(1)
}

func (m *MockItemUsecase) ExportCSV(ctx context.Context, path string, opts usecase.ExportOptions) error {
	return m.Called(ctx, path, opts).Error(0)
}

func (m *MockItemUsecase) ExportReport(ctx context.Context, w io.Writer) error {
	args := m.Called(ctx, w)
	if fn, ok := args.Get(1).(func(io.Writer)); ok {
		fn(w)
	}
	return args.Error(0)
}

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func sampleView() *usecase.ItemView {
	return &usecase.ItemView{
		ID:              uuid.MustParse("0f8c2b7e-1d7a-4c1e-9a51-3b5f7b9d0e21"),
		Name:            "Milk",
		Category:        "Food",
		Quantity:        2,
		Unit:            "liter",
		DisplayQuantity: "2 liter",
		ExpiryDate:      "2024-01-05",
		DaysToExpiry:    2,
		Status:          "expiring_soon",
	}
}

func TestItemHandler_GetItems(t *testing.T) {
	mockUsecase := new(MockItemUsecase)
	mockUsecase.On("ListItems", mock.Anything, usecase.ListFilter{Query: "milk", Category: "Food"}).
		Return([]*usecase.ItemView{sampleView()}, nil)
	h := NewItemHandler(mockUsecase, false)

	c, rec := newContext(http.MethodGet, "/items?q=milk&category=Food", "")
	require.NoError(t, h.GetItems(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var items []usecase.ItemView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Milk", items[0].Name)
	assert.Equal(t, "expiring_soon", string(items[0].Status))
	mockUsecase.AssertExpectations(t)
}

func TestItemHandler_GetItem(t *testing.T) {
	id := sampleView().ID

	tests := []struct {
		name       string
		param      string
		setupMock  func(*MockItemUsecase)
		wantStatus int
		wantError  string
	}{
		{
			name:  "正常系: 存在するアイテムを取得",
			param: id.String(),
			setupMock: func(m *MockItemUsecase) {
				m.On("GetItem", mock.Anything, id).Return(sampleView(), nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:  "異常系: 存在しないアイテム",
			param: id.String(),
			setupMock: func(m *MockItemUsecase) {
				m.On("GetItem", mock.Anything, id).Return(nil, domainErrors.ErrItemNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantError:  "item not found",
		},
		{
			name:       "異常系: 無効なID",
			param:      "42",
			setupMock:  func(m *MockItemUsecase) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid item ID",
		},
		{
			name:  "異常系: 選択なし",
			param: uuid.Nil.String(),
			setupMock: func(m *MockItemUsecase) {
				m.On("GetItem", mock.Anything, uuid.Nil).Return(nil, domainErrors.ErrEmptySelection)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUsecase := new(MockItemUsecase)
			tt.setupMock(mockUsecase)
			h := NewItemHandler(mockUsecase, false)

			c, rec := newContext(http.MethodGet, "/", "")
			c.SetPath("/items/:id")
			c.SetParamNames("id")
			c.SetParamValues(tt.param)

			require.NoError(t, h.GetItem(c))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeError(t, rec).Error)
			}
			mockUsecase.AssertExpectations(t)
		})
	}
}

func TestItemHandler_CreateItem(t *testing.T) {
	validBody := `{"name":"Milk","category":"Food","quantity":"2","unit":"liter","expiry_date":"2024-01-05"}`
	validInput := usecase.CreateItemInput{Name: "Milk", Category: "Food", Quantity: "2", Unit: "liter", ExpiryDate: "2024-01-05"}

	tests := []struct {
		name       string
		body       string
		autoNotify bool
		setupMock  func(*MockItemUsecase)
		wantStatus int
		wantError  string
	}{
		{
			name: "正常系: 作成して通知チェック",
			body: validBody,
			setupMock: func(m *MockItemUsecase) {
				m.On("CreateItem", mock.Anything, validInput).Return(sampleView(), nil)
				m.On("CheckExpiring", mock.Anything).Return(&usecase.ExpiryAlert{}, nil)
			},
			autoNotify: true,
			wantStatus: http.StatusCreated,
		},
		{
			name: "正常系: 自動通知オフ",
			body: validBody,
			setupMock: func(m *MockItemUsecase) {
				m.On("CreateItem", mock.Anything, validInput).Return(sampleView(), nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "異常系: 不正なJSON",
			body:       `{"name":`,
			setupMock:  func(m *MockItemUsecase) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request format",
		},
		{
			name:       "異常系: 必須項目なし",
			body:       `{"name":"Milk"}`,
			setupMock:  func(m *MockItemUsecase) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "validation failed",
		},
		{
			name: "異常系: 数量が数値でない",
			body: `{"name":"Milk","quantity":"two","expiry_date":"2024-01-05"}`,
			setupMock: func(m *MockItemUsecase) {
				m.On("CreateItem", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("%w: quantity \"two\" is not a number", domainErrors.ErrInvalidInput))
			},
			autoNotify: true,
			wantStatus: http.StatusBadRequest,
			wantError:  "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUsecase := new(MockItemUsecase)
			tt.setupMock(mockUsecase)
			h := NewItemHandler(mockUsecase, tt.autoNotify)

			c, rec := newContext(http.MethodPost, "/items", tt.body)
			require.NoError(t, h.CreateItem(c))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeError(t, rec).Error)
			}
			mockUsecase.AssertExpectations(t)
		})
	}
}

func TestItemHandler_UpdateItem(t *testing.T) {
	id := sampleView().ID
	name := "Whole milk"

	mockUsecase := new(MockItemUsecase)
	mockUsecase.On("UpdateItem", mock.Anything, id, usecase.UpdateItemInput{Name: &name}).Return(sampleView(), nil)
	mockUsecase.On("CheckExpiring", mock.Anything).Return(nil, fmt.Errorf("unexpected"))
	h := NewItemHandler(mockUsecase, true)

	c, rec := newContext(http.MethodPatch, "/", `{"name":"Whole milk"}`)
	c.SetPath("/items/:id")
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	require.NoError(t, h.UpdateItem(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	mockUsecase.AssertExpectations(t)
}

func TestItemHandler_DeleteItem(t *testing.T) {
	id := sampleView().ID

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "正常系: 削除", wantStatus: http.StatusNoContent},
		{name: "異常系: 存在しない", err: domainErrors.ErrItemNotFound, wantStatus: http.StatusNotFound},
		{name: "異常系: 想定外のエラー", err: fmt.Errorf("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUsecase := new(MockItemUsecase)
			mockUsecase.On("DeleteItem", mock.Anything, id).Return(tt.err)
			h := NewItemHandler(mockUsecase, true)

			c, rec := newContext(http.MethodDelete, "/", "")
			c.SetPath("/items/:id")
			c.SetParamNames("id")
			c.SetParamValues(id.String())

			require.NoError(t, h.DeleteItem(c))

			assert.Equal(t, tt.wantStatus, rec.Code)
			// 削除後は通知チェックを行わない
			mockUsecase.AssertNotCalled(t, "CheckExpiring", mock.Anything)
			mockUsecase.AssertExpectations(t)
		})
	}
}

func TestItemHandler_ExpiringAndExpired(t *testing.T) {
	mockUsecase := new(MockItemUsecase)
	mockUsecase.On("GetExpiringItems", mock.Anything).Return([]*usecase.ItemView{sampleView()}, nil)
	mockUsecase.On("GetExpiredItems", mock.Anything).Return([]*usecase.ItemView{}, nil)
	h := NewItemHandler(mockUsecase, false)

	c, rec := newContext(http.MethodGet, "/items/expiring", "")
	require.NoError(t, h.GetExpiringItems(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Milk"`)

	c, rec = newContext(http.MethodGet, "/items/expired", "")
	require.NoError(t, h.GetExpiredItems(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	mockUsecase.AssertExpectations(t)
}

func TestItemHandler_GetSummary(t *testing.T) {
	mockUsecase := new(MockItemUsecase)
	mockUsecase.On("GetDashboard", mock.Anything).Return(&usecase.Dashboard{
		Date:    "2024-01-03",
		Summary: usecase.Summary{Total: 3, Expired: 1, ExpiringSoon: 1, Safe: 1},
		Categories: usecase.CategorySummary{
			Categories: map[string]int{"Food": 3, "Medicine": 0, "Electronics": 0, "Other": 0},
			Total:      3,
		},
	}, nil)
	h := NewItemHandler(mockUsecase, false)

	c, rec := newContext(http.MethodGet, "/summary", "")
	require.NoError(t, h.GetSummary(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"date": "2024-01-03",
		"summary": {"total": 3, "expired": 1, "expiring_soon": 1, "safe": 1},
		"categories": {"categories": {"Food": 3, "Medicine": 0, "Electronics": 0, "Other": 0}, "total": 3}
	}`, rec.Body.String())
	mockUsecase.AssertExpectations(t)
}

func TestItemHandler_GetReport(t *testing.T) {
	mockUsecase := new(MockItemUsecase)
	mockUsecase.On("ExportReport", mock.Anything, mock.Anything).Return(nil, func(w io.Writer) {
		_, _ = io.WriteString(w, "%PDF-1.3 fake")
	})
	h := NewItemHandler(mockUsecase, false)

	c, rec := newContext(http.MethodGet, "/report.pdf", "")
	require.NoError(t, h.GetReport(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "%PDF-1.3 fake", rec.Body.String())
}

func TestItemHandler_ImportCSV(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(*MockItemUsecase)
		wantStatus int
		wantDetail string
	}{
		{
			name: "正常系: 一部の行がエラー",
			body: `{"path":"/tmp/in.csv"}`,
			setupMock: func(m *MockItemUsecase) {
				m.On("ImportCSV", mock.Anything, "/tmp/in.csv").Return(&usecase.ImportResult{
					Added:  4,
					Errors: []usecase.LineIssue{{Line: 4, Message: "invalid format at line 4"}},
				}, nil)
				m.On("CheckExpiring", mock.Anything).Return(&usecase.ExpiryAlert{}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "異常系: ファイルが読めない",
			body: `{"path":"/tmp/missing.csv"}`,
			setupMock: func(m *MockItemUsecase) {
				m.On("ImportCSV", mock.Anything, "/tmp/missing.csv").
					Return(nil, fmt.Errorf("%w: no such file", domainErrors.ErrFileIO))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "異常系: 途中で失敗しても追加済みの件数を返す",
			body: `{"path":"/tmp/broken.csv"}`,
			setupMock: func(m *MockItemUsecase) {
				m.On("ImportCSV", mock.Anything, "/tmp/broken.csv").
					Return(&usecase.ImportResult{Added: 2}, fmt.Errorf("%w: read line 4: disk gone", domainErrors.ErrFileIO))
				m.On("CheckExpiring", mock.Anything).Return(&usecase.ExpiryAlert{}, nil)
			},
			wantStatus: http.StatusInternalServerError,
			wantDetail: "2 items were added before the failure",
		},
		{
			name:       "異常系: パスなし",
			body:       `{}`,
			setupMock:  func(m *MockItemUsecase) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUsecase := new(MockItemUsecase)
			tt.setupMock(mockUsecase)
			h := NewItemHandler(mockUsecase, true)

			c, rec := newContext(http.MethodPost, "/import", tt.body)
			require.NoError(t, h.ImportCSV(c))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantDetail != "" {
				assert.Contains(t, decodeError(t, rec).Details, tt.wantDetail)
			}
			mockUsecase.AssertExpectations(t)
		})
	}
}

func TestItemHandler_ExportCSV(t *testing.T) {
	mockUsecase := new(MockItemUsecase)
	mockUsecase.On("ExportCSV", mock.Anything, "/tmp/out.csv", usecase.ExportOptions{Header: true}).Return(nil)
	h := NewItemHandler(mockUsecase, false)

	c, rec := newContext(http.MethodPost, "/export", `{"path":"/tmp/out.csv","header":true}`)
	require.NoError(t, h.ExportCSV(c))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	mockUsecase.AssertExpectations(t)
}

func TestItemHandler_NotificationSettings(t *testing.T) {
	mockUsecase := new(MockItemUsecase)
	mockUsecase.On("CreateItem", mock.Anything, mock.Anything).Return(sampleView(), nil)
	h := NewItemHandler(mockUsecase, true)

	c, rec := newContext(http.MethodPut, "/settings/notifications", `{"enabled":false}`)
	require.NoError(t, h.UpdateNotificationSettings(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newContext(http.MethodGet, "/settings", "")
	require.NoError(t, h.GetSettings(c))
	assert.JSONEq(t, `{"auto_notify":false}`, rec.Body.String())

	c, rec = newContext(http.MethodPost, "/items", `{"quantity":"1","expiry_date":"2024-01-05"}`)
	require.NoError(t, h.CreateItem(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	mockUsecase.AssertNotCalled(t, "CheckExpiring", mock.Anything)

	c, rec = newContext(http.MethodPut, "/settings/notifications", `{}`)
	require.NoError(t, h.UpdateNotificationSettings(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestItemHandler_CheckExpiring(t *testing.T) {
	mockUsecase := new(MockItemUsecase)
	mockUsecase.On("CheckExpiring", mock.Anything).Return(&usecase.ExpiryAlert{
		Date:  "2024-01-03",
		Items: []*usecase.ItemView{sampleView()},
	}, nil)
	h := NewItemHandler(mockUsecase, false)

	c, rec := newContext(http.MethodPost, "/alerts/check", "")
	require.NoError(t, h.CheckExpiring(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"days_to_expiry":2`)
}
