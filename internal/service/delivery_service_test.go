package service

import (
	"context"
	"testing"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDeliveryService_List(t *testing.T) {
	ctx := context.Background()
	deliveries := []model.Delivery{{ID: 1, OrderID: 7, Status: model.StatusInTransit}}

	tests := []struct {
		name        string
		actorID     int64
		status      model.OrderStatus
		expectedErr error
	}{
		{name: "All deliveries", actorID: productManagerID},
		{name: "Filtered by status", actorID: productManagerID, status: model.StatusInTransit},
		{name: "Unknown status", actorID: productManagerID, status: "misplaced", expectedErr: model.ErrInvalidStatus},
		{name: "Customer", actorID: customerID, expectedErr: model.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockDeliveryRepository)
			service := NewDeliveryService(repo, testRoles(), zerolog.Nop())
			if tt.expectedErr == nil {
				repo.On("List", ctx, tt.status).Return(deliveries, nil)
			}

			got, err := service.List(ctx, tt.actorID, tt.status)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, deliveries, got)
			repo.AssertExpectations(t)
		})
	}
}

func TestDeliveryService_Get(t *testing.T) {
	ctx := context.Background()
	repo := new(MockDeliveryRepository)
	service := NewDeliveryService(repo, testRoles(), zerolog.Nop())

	repo.On("GetByID", ctx, int64(1)).Return(&model.Delivery{ID: 1, OrderID: 7}, nil)
	repo.On("GetByID", ctx, int64(2)).Return(nil, nil)

	d, err := service.Get(ctx, productManagerID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), d.OrderID)

	_, err = service.Get(ctx, productManagerID, 2)
	assert.ErrorIs(t, err, model.ErrDeliveryNotFound)

	_, err = service.Get(ctx, salesManagerID, 1)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestDeliveryService_Complete(t *testing.T) {
	ctx := context.Background()
	repo := new(MockDeliveryRepository)
	service := NewDeliveryService(repo, testRoles(), zerolog.Nop())

	repo.On("MarkCompleted", ctx, int64(1)).Return(&model.Delivery{ID: 1, OrderID: 7, Completed: true}, nil)
	repo.On("MarkCompleted", ctx, int64(2)).Return(nil, model.ErrDeliveryNotFound)

	d, err := service.Complete(ctx, productManagerID, 1)
	require.NoError(t, err)
	assert.True(t, d.Completed)

	_, err = service.Complete(ctx, productManagerID, 2)
	assert.ErrorIs(t, err, model.ErrDeliveryNotFound)

	_, err = service.Complete(ctx, customerID, 1)
	assert.ErrorIs(t, err, model.ErrForbidden)
	repo.AssertNumberOfCalls(t, "MarkCompleted", 2)
}
