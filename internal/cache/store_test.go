package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"chemsafe-go/internal/model"
	"chemsafe-go/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	rows    map[model.CacheKey]json.RawMessage
	findErr error
	saveErr error
	// saveCtxErr 记录 Save 被调用时 ctx 的状态
	saveCtxErr error
	saves      int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[model.CacheKey]json.RawMessage{}}
}

func (f *fakeRepo) Find(_ context.Context, key model.CacheKey) (json.RawMessage, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	v, ok := f.rows[key]
	if !ok {
		return nil, repository.ErrCacheMiss
	}
	return v, nil
}

func (f *fakeRepo) Save(ctx context.Context, key model.CacheKey, payload json.RawMessage) (bool, error) {
	f.saves++
	f.saveCtxErr = ctx.Err()
	if f.saveErr != nil {
		return false, f.saveErr
	}
	if _, ok := f.rows[key]; ok {
		return false, nil
	}
	f.rows[key] = payload
	return true, nil
}

func (f *fakeRepo) DeleteKind(context.Context, model.DocumentKind) (int64, error) {
	n := int64(len(f.rows))
	f.rows = map[model.CacheKey]json.RawMessage{}
	return n, nil
}

func TestStore_GetPut(t *testing.T) {
	repo := newFakeRepo()
	s := NewStore(repo, time.Second)
	key := NewKey(model.KindSafety, "Acetone", "Turkish")

	_, ok := s.Get(context.Background(), key)
	assert.False(t, ok)

	require.True(t, s.Put(context.Background(), key, json.RawMessage(`{"chemicalName":"Acetone"}`)))

	got, ok := s.Get(context.Background(), key)
	require.True(t, ok)
	assert.JSONEq(t, `{"chemicalName":"Acetone"}`, string(got))
}

func TestStore_FirstWriterWins(t *testing.T) {
	repo := newFakeRepo()
	s := NewStore(repo, time.Second)
	key := NewKey(model.KindProduct, "ethanol", "English")

	assert.True(t, s.Put(context.Background(), key, json.RawMessage(`{"v":1}`)))
	assert.True(t, s.Put(context.Background(), key, json.RawMessage(`{"v":2}`)))

	got, ok := s.Get(context.Background(), key)
	require.True(t, ok)
	assert.JSONEq(t, `{"v":1}`, string(got))
}

func TestStore_GetErrorIsMiss(t *testing.T) {
	repo := newFakeRepo()
	repo.findErr = errors.New("connection refused")
	s := NewStore(repo, time.Second)

	got, ok := s.Get(context.Background(), NewKey(model.KindSafety, "acetone", "Turkish"))
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestStore_InvalidPayloadIsMiss(t *testing.T) {
	repo := newFakeRepo()
	key := NewKey(model.KindSafety, "acetone", "Turkish")
	repo.rows[key] = json.RawMessage(`{broken`)
	s := NewStore(repo, time.Second)

	_, ok := s.Get(context.Background(), key)
	assert.False(t, ok)
}

func TestStore_PutFailureReturnsFalse(t *testing.T) {
	repo := newFakeRepo()
	repo.saveErr = errors.New("disk full")
	s := NewStore(repo, time.Second)

	assert.False(t, s.Put(context.Background(), NewKey(model.KindSafety, "acetone", "Turkish"), json.RawMessage(`{}`)))
	assert.Equal(t, 1, repo.saves)
}

func TestStore_PutIgnoresCallerCancellation(t *testing.T) {
	repo := newFakeRepo()
	s := NewStore(repo, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, s.Put(ctx, NewKey(model.KindSafety, "acetone", "Turkish"), json.RawMessage(`{}`)))
	assert.NoError(t, repo.saveCtxErr)
}
