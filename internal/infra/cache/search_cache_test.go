//go:build unit

package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"bloodconnect/internal/infra/cache"
	"bloodconnect/internal/usecase/queries"
	"bloodconnect/tests/common/builder"
	queriesmock "bloodconnect/tests/mock/queries"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

// fakeRedis implements the two commands the cache issues, backed by a map.
type fakeRedis struct {
	data   map[string]string
	getErr error
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

type SearchCacheTestSuite struct {
	suite.Suite
	mockCtrl  *gomock.Controller
	mockInner *queriesmock.MockRequestQueries
	redis     *fakeRedis
	cache     queries.RequestQueries
	page      *queries.SearchPage
}

func (s *SearchCacheTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockInner = queriesmock.NewMockRequestQueries(s.mockCtrl)
	s.redis = newFakeRedis()
	s.cache = cache.NewSearchCache(s.mockInner, s.redis, 30*time.Second)
	s.page = &queries.SearchPage{
		Items:      []*queries.RequestListItem{builder.NewRequestBuilder().BuildListItem()},
		NextCursor: "next",
	}
}

// Each subtest gets a fresh fake and mock so expectations never leak.
func (s *SearchCacheTestSuite) SetupSubTest() {
	s.SetupTest()
}

func TestSearchCacheSuite(t *testing.T) {
	suite.Run(t, new(SearchCacheTestSuite))
}

func (s *SearchCacheTestSuite) TestSearch() {
	ctx := context.Background()
	filter := queries.SearchFilter{}

	s.Run("miss stores the page and a repeat is served from cache", func() {
		s.mockInner.EXPECT().Search(gomock.Any(), filter, "", 10).Return(s.page, nil).Times(1)

		first, err := s.cache.Search(ctx, filter, "", 10)
		require.NoError(s.T(), err)
		require.Equal(s.T(), s.page, first)
		require.Len(s.T(), s.redis.data, 1)

		second, err := s.cache.Search(ctx, filter, "", 10)
		require.NoError(s.T(), err)
		require.Equal(s.T(), s.page, second)
	})

	s.Run("distinct filters do not share entries", func() {
		bloodType := "AB-"
		other := queries.SearchFilter{BloodType: &bloodType}

		s.mockInner.EXPECT().Search(gomock.Any(), filter, "", 10).Return(s.page, nil).Times(1)
		s.mockInner.EXPECT().Search(gomock.Any(), other, "", 10).Return(s.page, nil).Times(1)

		_, err := s.cache.Search(ctx, filter, "", 10)
		require.NoError(s.T(), err)
		_, err = s.cache.Search(ctx, other, "", 10)
		require.NoError(s.T(), err)
		require.Len(s.T(), s.redis.data, 2)
	})

	s.Run("corrupt entry is bypassed and overwritten", func() {
		s.mockInner.EXPECT().Search(gomock.Any(), filter, "", 10).Return(s.page, nil).Times(2)

		_, err := s.cache.Search(ctx, filter, "", 10)
		require.NoError(s.T(), err)

		for key := range s.redis.data {
			s.redis.data[key] = "{not json"
		}

		got, err := s.cache.Search(ctx, filter, "", 10)
		require.NoError(s.T(), err)
		require.Equal(s.T(), s.page, got)

		for _, raw := range s.redis.data {
			require.NotEqual(s.T(), "{not json", raw)
		}
	})

	s.Run("redis read failure falls through to the store", func() {
		s.redis.getErr = errors.New("connection refused")
		s.mockInner.EXPECT().Search(gomock.Any(), filter, "", 10).Return(s.page, nil)

		got, err := s.cache.Search(ctx, filter, "", 10)
		require.NoError(s.T(), err)
		require.Equal(s.T(), s.page, got)
	})

	s.Run("redis write failure does not fail the search", func() {
		s.redis.setErr = errors.New("connection refused")
		s.mockInner.EXPECT().Search(gomock.Any(), filter, "", 10).Return(s.page, nil)

		got, err := s.cache.Search(ctx, filter, "", 10)
		require.NoError(s.T(), err)
		require.Equal(s.T(), s.page, got)
	})

	s.Run("store errors pass through uncached", func() {
		storeErr := errors.New("query failed")
		s.mockInner.EXPECT().Search(gomock.Any(), filter, "", 10).Return(nil, storeErr)

		_, err := s.cache.Search(ctx, filter, "", 10)
		require.ErrorIs(s.T(), err, storeErr)
		require.Empty(s.T(), s.redis.data)
	})
}

func (s *SearchCacheTestSuite) TestGetByID() {
	s.Run("detail reads always pass through", func() {
		view := builder.NewRequestBuilder().BuildView()
		s.mockInner.EXPECT().GetByID(gomock.Any(), view.ID).Return(view, nil)

		got, err := s.cache.GetByID(context.Background(), view.ID)
		require.NoError(s.T(), err)
		require.Equal(s.T(), view, got)
	})
}
