package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRefundHandler(now time.Time) (*RefundHandler, *MockRefundService) {
	svc := new(MockRefundService)
	h := NewRefundHandler(svc, zerolog.Nop())
	h.now = func() time.Time { return now }
	return h, svc
}

func TestRefundHandler_Eligibility(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	handler, svc := newRefundHandler(now)
	svc.On("ValidateRefund", mock.Anything, int64(5), now).
		Return(&model.RefundEligibility{OrderID: 5, Valid: false, Reason: "Refund period has expired"}, nil)

	w := httptest.NewRecorder()
	handler.Eligibility(w, newRequest(t, http.MethodGet, "/api/orders/5/refund-eligibility", nil, 0, map[string]string{"id": "5"}))

	assert.Equal(t, http.StatusOK, w.Code)
	var got model.RefundEligibility
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.False(t, got.Valid)
	assert.Equal(t, "Refund period has expired", got.Reason)
	svc.AssertExpectations(t)
}

func TestRefundHandler_RefundableItems(t *testing.T) {
	handler, svc := newRefundHandler(time.Now())
	svc.On("RefundableItems", mock.Anything, int64(5)).Return([]model.RefundableItem{
		{ProductID: 1, ProductName: "Lamp", Quantity: 2, Price: decimal.RequireFromString("10")},
	}, nil)

	w := httptest.NewRecorder()
	handler.RefundableItems(w, newRequest(t, http.MethodGet, "/api/orders/5/refundable-items", nil, 0, map[string]string{"id": "5"}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"productname":"Lamp"`)
	svc.AssertExpectations(t)
}

func TestRefundHandler_Request(t *testing.T) {
	lines := []model.RefundLine{{ProductID: 1, Quantity: 2}}

	tests := []struct {
		name           string
		actorID        int64
		body           interface{}
		mockReturn     *model.RefundRequestResponse
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Staged",
			actorID:        1,
			body:           model.RefundRequestInput{Items: lines},
			mockReturn:     &model.RefundRequestResponse{OrderID: 5, Status: "pending", Items: lines},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{name: "Window closed", actorID: 1, body: model.RefundRequestInput{Items: lines}, mockError: model.ErrRefundPeriodExpired, expectedStatus: http.StatusBadRequest, expectService: true},
		{name: "Not the owner", actorID: 2, body: model.RefundRequestInput{Items: lines}, mockError: model.ErrForbidden, expectedStatus: http.StatusForbidden, expectService: true},
		{name: "Missing actor", body: model.RefundRequestInput{Items: lines}, expectedStatus: http.StatusUnauthorized},
		{name: "Invalid JSON", actorID: 1, body: "[", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, svc := newRefundHandler(time.Now())
			if tt.expectService {
				svc.On("RequestRefund", mock.Anything, tt.actorID, int64(5), lines).Return(tt.mockReturn, tt.mockError)
			}

			w := httptest.NewRecorder()
			handler.Request(w, newRequest(t, http.MethodPost, "/api/orders/5/refund-request", tt.body, tt.actorID, map[string]string{"id": "5"}))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.mockReturn != nil {
				assert.Contains(t, w.Body.String(), `"status":"pending"`)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestRefundHandler_ListPending(t *testing.T) {
	handler, svc := newRefundHandler(time.Now())
	svc.On("ListRefundRequests", mock.Anything, int64(20)).Return([]model.RefundRequest{{OrderID: 5, ProductID: 1, Quantity: 2}}, nil)

	w := httptest.NewRecorder()
	handler.ListPending(w, newRequest(t, http.MethodGet, "/api/refund-requests", nil, 20, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestRefundHandler_Decide(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		mockReturn     *model.RefundDecisionResult
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name: "Approved",
			body: model.NewRefundDecision(5, true),
			mockReturn: &model.RefundDecisionResult{
				OrderID:        5,
				Approved:       true,
				RefundedAmount: decimal.RequireFromString("10.00"),
				Status:         string(model.StatusPartiallyRefunded),
			},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Denied",
			body:           model.NewRefundDecision(5, false),
			mockReturn:     &model.RefundDecisionResult{OrderID: 5, RefundedAmount: decimal.Zero, Status: "denied"},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{name: "Nothing pending", body: model.NewRefundDecision(5, true), mockError: model.ErrNoPendingRefund, expectedStatus: http.StatusBadRequest, expectService: true},
		{name: "Missing verdict", body: map[string]int64{"orderid": 5}, expectedStatus: http.StatusBadRequest},
		{name: "Invalid JSON", body: "nope", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, svc := newRefundHandler(time.Now())
			if tt.expectService {
				svc.On("Decide", mock.Anything, int64(20), mock.AnythingOfType("*model.RefundDecisionRequest")).Return(tt.mockReturn, tt.mockError)
			}

			w := httptest.NewRecorder()
			handler.Decide(w, newRequest(t, http.MethodPost, "/api/refund-decisions", tt.body, 20, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.mockReturn != nil {
				var got model.RefundDecisionResult
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, tt.mockReturn.Status, got.Status)
				assert.True(t, tt.mockReturn.RefundedAmount.Equal(got.RefundedAmount))
			}
			svc.AssertExpectations(t)
		})
	}
}
