package transaction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dotflow/refill-backend/internal/model"
	txstore "github.com/dotflow/refill-backend/internal/store/transaction"
	"github.com/dotflow/refill-backend/internal/submitter"
	"github.com/dotflow/refill-backend/internal/types/environments"
	"github.com/dotflow/refill-backend/internal/utils/logger"
)

type mockController struct {
	mock.Mock
}

func (m *mockController) Refill(ctx context.Context, multisigWalletID, destWalletID uint, amountIn decimal.Decimal) (*model.Transaction, error) {
	args := m.Called(ctx, multisigWalletID, destWalletID, amountIn)
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *mockController) Confirm(ctx context.Context, transactionUUID string) (*submitter.SubmitResult, error) {
	args := m.Called(ctx, transactionUUID)
	return args.Get(0).(*submitter.SubmitResult), args.Error(1)
}

func (m *mockController) Cancel(ctx context.Context, transactionUUID string) (*submitter.SubmitResult, error) {
	args := m.Called(ctx, transactionUUID)
	return args.Get(0).(*submitter.SubmitResult), args.Error(1)
}

func (m *mockController) ListTransactions(filter txstore.ListFilter) ([]model.Transaction, int64, error) {
	args := m.Called(filter)
	return args.Get(0).([]model.Transaction), args.Get(1).(int64), args.Error(2)
}

func TestListHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ctrl := new(mockController)
	ctrl.On("ListTransactions", txstore.ListFilter{
		Chain:             "astar",
		TransactionStatus: model.TransactionStatusConfirmed,
		Page:              2,
		PageSize:          10,
	}).Return([]model.Transaction{{TransactionUUID: "uuid-1"}}, int64(11), nil)

	r := gin.New()
	r.GET("/api/v1/transactions", New(ctrl, logger.New(environments.Test)).List)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/transactions?chain=astar&transactionStatus=CONFIRMED&page=2&pageSize=10", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data       []model.Transaction `json:"data"`
		Pagination struct {
			Page  int   `json:"page"`
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, 2, resp.Pagination.Page)
	assert.Equal(t, int64(11), resp.Pagination.Total)
}
