package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"tourbook/config"
	"tourbook/infras/otel/mocks"
	userMocks "tourbook/internal/domains/user/mocks"
	"tourbook/internal/domains/user/model"
	"tourbook/internal/domains/user/model/dto"
	"tourbook/internal/domains/user/service"
	cacheMocks "tourbook/shared/cache/mocks"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/failure"
	"tourbook/shared/password"
)

func newService(t *testing.T) (service.User, *userMocks.MockUser, *cacheMocks.MockRedisCache) {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockRepo := userMocks.NewMockUser(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	cfg := &config.Config{}
	cfg.Cache.TTL = 60

	return service.New(mockRepo, cfg, mockCache, mocks.NewOtel()), mockRepo, mockCache
}

func TestUserService_CreateWorker(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.CreateWorkerRequest
		setupMock func(repo *userMocks.MockUser)
		wantKind  failure.Kind
		wantErr   bool
	}{
		{
			name: "successful creation",
			req:  dto.CreateWorkerRequest{Email: " Guide@Example.com ", Password: "s3cret-pass"},
			setupMock: func(repo *userMocks.MockUser) {
				repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				repo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, user model.User) error {
					assert.Equal(t, "guide@example.com", user.Email)
					assert.Equal(t, constant.RoleStaff, user.Role)
					assert.True(t, user.Active)
					assert.NoError(t, password.Verify("s3cret-pass", user.Password))

					return nil
				})
			},
		},
		{
			name: "duplicate email",
			req:  dto.CreateWorkerRequest{Email: "guide@example.com", Password: "s3cret-pass"},
			setupMock: func(repo *userMocks.MockUser) {
				repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			wantErr:  true,
			wantKind: failure.KindConflict,
		},
		{
			name: "password longer than bcrypt accepts",
			req:  dto.CreateWorkerRequest{Email: "guide@example.com", Password: strings.Repeat("p", password.MaxLength+1)},
			setupMock: func(repo *userMocks.MockUser) {
				repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
			},
			wantErr:  true,
			wantKind: failure.KindInvalidArgument,
		},
		{
			name: "repository error",
			req:  dto.CreateWorkerRequest{Email: "guide@example.com", Password: "s3cret-pass"},
			setupMock: func(repo *userMocks.MockUser) {
				repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newService(t)
			tt.setupMock(repo)

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "admin-1")
			res, err := svc.CreateWorker(ctx, tt.req)

			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, constant.RoleStaff, res.Role)
				assert.NotEmpty(t, res.ID)
				assert.Equal(t, "admin-1", res.CreatedBy)

				return
			}

			require.Error(t, err)

			if tt.wantKind != "" {
				assert.True(t, failure.IsKind(err, tt.wantKind))
			}
		})
	}
}

func TestUserService_ListWorkers(t *testing.T) {
	svc, repo, redisCache := newService(t)

	redisCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("miss"))
	repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(2, nil)
	repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]model.User, error) {
			where, args := filter.GetWhereClause()
			assert.Contains(t, where, model.FieldRole)
			assert.Contains(t, args, model.FieldRole)

			return []model.User{
				{ID: "w-1", Email: "a@example.com", Role: constant.RoleStaff},
				{ID: "w-2", Email: "b@example.com", Role: constant.RoleStaff},
			}, nil
		})

	res, err := svc.ListWorkers(context.Background(), gDto.QueryParams{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, res.Users, 2)
	assert.Equal(t, 2, res.TotalData)
	assert.Equal(t, 2, res.TotalPage)
}

func TestUserService_Get(t *testing.T) {
	svc, repo, _ := newService(t)

	repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.User{}, nil)

	_, err := svc.Get(context.Background(), "missing")
	assert.True(t, failure.IsKind(err, failure.KindNotFound))

	repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.User{ID: "w-1", Role: constant.RoleStaff}, nil)

	res, err := svc.Get(context.Background(), "w-1")
	require.NoError(t, err)
	assert.Equal(t, "w-1", res.ID)
}
