package kpis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	calls atomic.Int32
	items []Kpi
	err   error
	delay time.Duration
}

func (r *countingRepo) List(ctx context.Context) ([]Kpi, error) {
	r.calls.Add(1)
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	return r.items, r.err
}

func sampleKpis() []Kpi {
	now := time.Date(2025, 10, 27, 12, 0, 0, 0, time.UTC)
	return []Kpi{
		{ID: uuid.New(), Name: "Monthly Revenue", Value: 25000, Date: now},
		{ID: uuid.New(), Name: "Churn Rate", Value: 4.5, Date: now},
	}
}

func setupService(t *testing.T, repo Repository) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, NewCache(client, time.Minute), nil), mr
}

func TestListServesSecondReadFromCache(t *testing.T) {
	repo := &countingRepo{items: sampleKpis()}
	svc, mr := setupService(t, repo)

	first, err := svc.List(context.Background())
	require.NoError(t, err)
	second, err := svc.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), repo.calls.Load())
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("kpis:list:1"))
}

func TestInvalidateForcesReload(t *testing.T) {
	repo := &countingRepo{items: sampleKpis()}
	svc, mr := setupService(t, repo)

	_, err := svc.List(context.Background())
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(context.Background()))
	_, err = svc.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), repo.calls.Load())
	assert.True(t, mr.Exists("kpis:list:2"))
}

func TestConcurrentMissesShareOneLoad(t *testing.T) {
	repo := &countingRepo{items: sampleKpis(), delay: 50 * time.Millisecond}
	svc, _ := setupService(t, repo)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := svc.List(context.Background())
			assert.NoError(t, err)
			assert.Len(t, items, 2)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), repo.calls.Load())
}

func TestListFallsBackWhenRedisDown(t *testing.T) {
	repo := &countingRepo{items: sampleKpis()}
	svc, mr := setupService(t, repo)
	mr.Close()

	items, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestListWithoutCache(t *testing.T) {
	repo := &countingRepo{}
	svc := NewService(repo, nil, nil)
	items, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	repo.err = errors.New("db down")
	_, err = svc.List(context.Background())
	assert.Error(t, err)
}
