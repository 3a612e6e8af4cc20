package auth

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func TestRoleAuthorizer_IsAuthorized(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		actorID   int64
		user      *model.User
		repoErr   error
		role      model.Role
		want      bool
		expectErr bool
		callsRepo bool
	}{
		{
			name:      "Matching role",
			actorID:   1,
			user:      &model.User{ID: 1, Role: model.RoleProductManager},
			role:      model.RoleProductManager,
			want:      true,
			callsRepo: true,
		},
		{
			name:      "Different role",
			actorID:   2,
			user:      &model.User{ID: 2, Role: model.RoleCustomer},
			role:      model.RoleSalesManager,
			want:      false,
			callsRepo: true,
		},
		{
			name:      "Unknown actor",
			actorID:   3,
			role:      model.RoleSalesManager,
			callsRepo: true,
		},
		{
			name:    "Anonymous actor",
			actorID: 0,
			role:    model.RoleSalesManager,
		},
		{
			name:      "Repository failure",
			actorID:   4,
			repoErr:   errors.New("connection refused"),
			role:      model.RoleSalesManager,
			expectErr: true,
			callsRepo: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			if tt.callsRepo {
				repo.On("GetByID", ctx, tt.actorID).Return(tt.user, tt.repoErr)
			}

			a := NewAuthorizer(repo, zerolog.Nop())
			got, err := a.IsAuthorized(ctx, tt.actorID, tt.role)

			if tt.expectErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestRequireOwnerOr(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	repo.On("GetByID", ctx, int64(9)).Return(&model.User{ID: 9, Role: model.RoleProductManager}, nil)
	repo.On("GetByID", ctx, int64(8)).Return(&model.User{ID: 8, Role: model.RoleCustomer}, nil)
	a := NewAuthorizer(repo, zerolog.Nop())

	assert.NoError(t, RequireOwnerOr(ctx, a, 5, 5, model.RoleProductManager))
	assert.NoError(t, RequireOwnerOr(ctx, a, 9, 5, model.RoleProductManager))
	assert.ErrorIs(t, RequireOwnerOr(ctx, a, 8, 5, model.RoleProductManager), model.ErrForbidden)
}

func TestRequireAny(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	repo.On("GetByID", ctx, int64(7)).Return(&model.User{ID: 7, Role: model.RoleSalesManager}, nil)
	a := NewAuthorizer(repo, zerolog.Nop())

	assert.NoError(t, RequireAny(ctx, a, 7, model.RoleProductManager, model.RoleSalesManager))
	assert.ErrorIs(t, RequireAny(ctx, a, 7, model.RoleProductManager), model.ErrForbidden)
	assert.ErrorIs(t, RequireAny(ctx, a, 7), model.ErrForbidden)
	assert.NoError(t, RequireOwnerOr(ctx, a, 7, 3, model.RoleProductManager, model.RoleSalesManager))
}

func TestActorContext(t *testing.T) {
	_, ok := ActorFromContext(context.Background())
	assert.False(t, ok)

	id, ok := ActorFromContext(WithActor(context.Background(), 42))
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
}
