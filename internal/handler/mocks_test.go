package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/model"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) SetStock(ctx context.Context, actorID, productID int64, stock int) (*model.Product, error) {
	args := m.Called(ctx, actorID, productID, stock)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) UpdatePricing(ctx context.Context, actorID, productID int64, req *model.PricingUpdateRequest) (*model.Product, error) {
	args := m.Called(ctx, actorID, productID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, actorID int64, req *model.OrderRequest) (*model.Order, error) {
	args := m.Called(ctx, actorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, actorID, orderID int64) (*model.Order, error) {
	args := m.Called(ctx, actorID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) GetOrdersForUser(ctx context.Context, actorID, userID int64) ([]model.Order, error) {
	args := m.Called(ctx, actorID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) ListOrdersByStatus(ctx context.Context, actorID int64, status model.OrderStatus) ([]model.Order, error) {
	args := m.Called(ctx, actorID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

type MockStatusService struct {
	mock.Mock
}

func (m *MockStatusService) SetStatus(ctx context.Context, actorID, orderID int64, status model.OrderStatus) (*model.StatusUpdateResponse, error) {
	args := m.Called(ctx, actorID, orderID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StatusUpdateResponse), args.Error(1)
}

func (m *MockStatusService) Sweep(ctx context.Context, now time.Time) (*model.SweepResult, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SweepResult), args.Error(1)
}

type MockRefundService struct {
	mock.Mock
}

func (m *MockRefundService) CancelOrder(ctx context.Context, actorID, orderID int64) error {
	return m.Called(ctx, actorID, orderID).Error(0)
}

func (m *MockRefundService) ValidateRefund(ctx context.Context, orderID int64, now time.Time) (*model.RefundEligibility, error) {
	args := m.Called(ctx, orderID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RefundEligibility), args.Error(1)
}

func (m *MockRefundService) RefundableItems(ctx context.Context, orderID int64) ([]model.RefundableItem, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RefundableItem), args.Error(1)
}

func (m *MockRefundService) RequestRefund(ctx context.Context, actorID, orderID int64, lines []model.RefundLine) (*model.RefundRequestResponse, error) {
	args := m.Called(ctx, actorID, orderID, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RefundRequestResponse), args.Error(1)
}

func (m *MockRefundService) ListRefundRequests(ctx context.Context, actorID int64) ([]model.RefundRequest, error) {
	args := m.Called(ctx, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RefundRequest), args.Error(1)
}

func (m *MockRefundService) Decide(ctx context.Context, actorID int64, req *model.RefundDecisionRequest) (*model.RefundDecisionResult, error) {
	args := m.Called(ctx, actorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RefundDecisionResult), args.Error(1)
}

type MockDeliveryService struct {
	mock.Mock
}

func (m *MockDeliveryService) List(ctx context.Context, actorID int64, status model.OrderStatus) ([]model.Delivery, error) {
	args := m.Called(ctx, actorID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Delivery), args.Error(1)
}

func (m *MockDeliveryService) Get(ctx context.Context, actorID, deliveryID int64) (*model.Delivery, error) {
	args := m.Called(ctx, actorID, deliveryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Delivery), args.Error(1)
}

func (m *MockDeliveryService) Complete(ctx context.Context, actorID, deliveryID int64) (*model.Delivery, error) {
	args := m.Called(ctx, actorID, deliveryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Delivery), args.Error(1)
}

// newRequest builds a request as the router would hand it over: path values
// set and the actor, when non-zero, already in the context.
func newRequest(t *testing.T, method, target string, body interface{}, actorID int64, pathValues map[string]string) *http.Request {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	if actorID > 0 {
		req = req.WithContext(auth.WithActor(req.Context(), actorID))
	}
	return req
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var body model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
