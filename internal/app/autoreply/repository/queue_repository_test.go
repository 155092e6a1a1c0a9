package repository

import (
	"context"
	"testing"
	"time"

	"autoreply/internal/app/autoreply/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// QueueRepositoryTestSuite тестовый suite для Redis repository
type QueueRepositoryTestSuite struct {
	suite.Suite
	miniRedis *miniredis.Miniredis
	client    *redis.Client
	repo      QueueRepository
}

func TestQueueRepositorySuite(t *testing.T) {
	suite.Run(t, new(QueueRepositoryTestSuite))
}

func (s *QueueRepositoryTestSuite) SetupSuite() {
	var err error
	s.miniRedis, err = miniredis.Run()
	require.NoError(s.T(), err)

	s.client = redis.NewClient(&redis.Options{
		Addr: s.miniRedis.Addr(),
	})

	s.repo = NewQueueRepository(s.client, time.Hour)
}

func (s *QueueRepositoryTestSuite) SetupTest() {
	s.miniRedis.FlushAll()
}

func (s *QueueRepositoryTestSuite) TearDownSuite() {
	s.client.Close()
	s.miniRedis.Close()
}

// ===================== Queue Tests =====================

func (s *QueueRepositoryTestSuite) TestGetQueue_Empty() {
	items, err := s.repo.GetQueue(context.Background())

	s.NoError(err)
	s.Nil(items)
}

func (s *QueueRepositoryTestSuite) TestSaveAndGetQueue() {
	ctx := context.Background()

	saved := []entity.QueueItem{
		{ReviewID: "review-1", QueuedAt: time.Now().UTC(), Attempts: 0},
		{ReviewID: "review-2", QueuedAt: time.Now().UTC(), Attempts: 2, LastError: "timeout"},
	}
	err := s.repo.SaveQueue(ctx, saved)
	s.NoError(err)

	items, err := s.repo.GetQueue(ctx)

	s.NoError(err)
	s.Len(items, 2)
	s.Equal("review-1", items[0].ReviewID)
	s.Equal("review-2", items[1].ReviewID)
	s.Equal(2, items[1].Attempts)
	s.Equal("timeout", items[1].LastError)
}

func (s *QueueRepositoryTestSuite) TestSaveQueue_SetsTTL() {
	ctx := context.Background()

	err := s.repo.SaveQueue(ctx, []entity.QueueItem{{ReviewID: "review-1"}})
	s.NoError(err)

	ttl := s.miniRedis.TTL("autoreply:review_queue")
	s.Equal(time.Hour, ttl)
}

func (s *QueueRepositoryTestSuite) TestSaveQueue_EmptyDeletesKey() {
	ctx := context.Background()

	err := s.repo.SaveQueue(ctx, []entity.QueueItem{{ReviewID: "review-1"}})
	s.NoError(err)

	err = s.repo.SaveQueue(ctx, nil)
	s.NoError(err)

	s.False(s.miniRedis.Exists("autoreply:review_queue"))
}

func (s *QueueRepositoryTestSuite) TestGetQueue_ExpiredKeyMeansEmpty() {
	ctx := context.Background()

	err := s.repo.SaveQueue(ctx, []entity.QueueItem{{ReviewID: "review-1"}})
	s.NoError(err)

	s.miniRedis.FastForward(2 * time.Hour)

	items, err := s.repo.GetQueue(ctx)

	s.NoError(err)
	s.Nil(items)
}

// ===================== Processing Marker Tests =====================

func (s *QueueRepositoryTestSuite) TestSetProcessingMarker_FirstClaimWins() {
	ctx := context.Background()

	acquired, err := s.repo.SetProcessingMarker(ctx, "review-1")
	s.NoError(err)
	s.True(acquired)

	// Повторная попытка для того же отзыва проигрывает
	acquired, err = s.repo.SetProcessingMarker(ctx, "review-1")
	s.NoError(err)
	s.False(acquired)
}

func (s *QueueRepositoryTestSuite) TestProcessingMarker_ExpiresAutomatically() {
	ctx := context.Background()

	_, err := s.repo.SetProcessingMarker(ctx, "review-1")
	s.NoError(err)

	s.miniRedis.FastForward(6 * time.Minute)

	has, err := s.repo.HasProcessingMarker(ctx, "review-1")
	s.NoError(err)
	s.False(has)

	acquired, err := s.repo.SetProcessingMarker(ctx, "review-1")
	s.NoError(err)
	s.True(acquired)
}

func (s *QueueRepositoryTestSuite) TestClearProcessingMarker() {
	ctx := context.Background()

	_, err := s.repo.SetProcessingMarker(ctx, "review-1")
	s.NoError(err)

	err = s.repo.ClearProcessingMarker(ctx, "review-1")
	s.NoError(err)

	has, err := s.repo.HasProcessingMarker(ctx, "review-1")
	s.NoError(err)
	s.False(has)
}

func (s *QueueRepositoryTestSuite) TestHasProcessingMarker_Independent() {
	ctx := context.Background()

	_, err := s.repo.SetProcessingMarker(ctx, "review-1")
	s.NoError(err)

	has, err := s.repo.HasProcessingMarker(ctx, "review-2")
	s.NoError(err)
	s.False(has)
}
