package cache_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
	"tourbook/shared/cache"
	"tourbook/shared/cache/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type entry struct {
	Name string `json:"name"`
}

func TestRemember_Hit(t *testing.T) {
	ctrl := gomock.NewController(t)
	redisCache := mocks.NewMockRedisCache(ctrl)

	redisCache.EXPECT().Get(gomock.Any(), "entry:1", gomock.Any()).DoAndReturn(func(_ context.Context, _ string, value any) error {
		*value.(*entry) = entry{Name: "cached"}

		return nil
	})

	got, err := cache.Remember(context.Background(), redisCache, "entry:1", 60, func(context.Context) (entry, error) {
		t.Fatal("loader must not run on a hit")

		return entry{}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "cached", got.Name)
}

func TestRemember_MissStores(t *testing.T) {
	ctrl := gomock.NewController(t)
	redisCache := mocks.NewMockRedisCache(ctrl)

	saved := make(chan any, 1)

	redisCache.EXPECT().Get(gomock.Any(), "entry:2", gomock.Any()).Return(fmt.Errorf("failed to get cache value: %w", cache.Nil))
	redisCache.EXPECT().Save(gomock.Any(), "entry:2", entry{Name: "fresh"}, 30).DoAndReturn(func(_ context.Context, _ string, value any, _ int) error {
		saved <- value

		return nil
	})

	got, err := cache.Remember(context.Background(), redisCache, "entry:2", 30, func(context.Context) (entry, error) {
		return entry{Name: "fresh"}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Name)

	select {
	case value := <-saved:
		assert.Equal(t, entry{Name: "fresh"}, value)
	case <-time.After(time.Second):
		t.Fatal("value was not stored")
	}
}

func TestRemember_LoadFailureIsNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	redisCache := mocks.NewMockRedisCache(ctrl)

	redisCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

	_, err := cache.Remember(context.Background(), redisCache, "entry:3", 30, func(context.Context) (entry, error) {
		return entry{}, errors.New("boom")
	})

	require.EqualError(t, err, "boom")
}
