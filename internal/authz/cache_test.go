package authz

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubdesk/clubdesk/internal/content"
)

type countingSettingsRepo struct {
	mu       sync.Mutex
	settings map[content.Module]Setting
	gets     int
}

func newCountingSettingsRepo() *countingSettingsRepo {
	return &countingSettingsRepo{settings: make(map[content.Module]Setting)}
}

func (r *countingSettingsRepo) Get(ctx context.Context, module content.Module) (Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	if s, ok := r.settings[module]; ok {
		return s, nil
	}
	return Setting{Module: module}, nil
}

func (r *countingSettingsRepo) List(ctx context.Context) ([]Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Setting, 0, len(content.Modules()))
	for _, m := range content.Modules() {
		if s, ok := r.settings[m]; ok {
			out = append(out, s)
			continue
		}
		out = append(out, Setting{Module: m})
	}
	return out, nil
}

func (r *countingSettingsRepo) Upsert(ctx context.Context, s Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[s.Module] = s
	return nil
}

func (r *countingSettingsRepo) getCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gets
}

func newTestCache(t *testing.T) (*SettingsCache, *countingSettingsRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := newCountingSettingsRepo()
	return NewSettingsCache(repo, client, time.Minute, nil), repo, mr
}

func TestSettingsCacheMissThenHit(t *testing.T) {
	cache, repo, _ := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, Setting{Module: content.ModuleMembers, ApproveDelete: true}))

	required, err := cache.RequiresApproval(ctx, content.ModuleMembers, content.ActionDelete)
	require.NoError(t, err)
	assert.True(t, required)
	assert.Equal(t, 1, repo.getCount())

	// Second read is served from Redis.
	required, err = cache.RequiresApproval(ctx, content.ModuleMembers, content.ActionDelete)
	require.NoError(t, err)
	assert.True(t, required)
	assert.Equal(t, 1, repo.getCount())
}

func TestSettingsCacheInvalidateForcesReread(t *testing.T) {
	cache, repo, _ := newTestCache(t)
	ctx := context.Background()

	_, err := cache.RequiresApproval(ctx, content.ModuleEvents, content.ActionEdit)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.getCount())

	require.NoError(t, repo.Upsert(ctx, Setting{Module: content.ModuleEvents, ApproveEdit: true}))
	cache.Invalidate(ctx, content.ModuleEvents)

	required, err := cache.RequiresApproval(ctx, content.ModuleEvents, content.ActionEdit)
	require.NoError(t, err)
	assert.True(t, required)
	assert.Equal(t, 2, repo.getCount())
}

func TestSettingsCacheSurvivesRedisOutage(t *testing.T) {
	cache, repo, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, Setting{Module: content.ModuleGallery, ApproveCreate: true}))

	mr.Close()

	required, err := cache.RequiresApproval(ctx, content.ModuleGallery, content.ActionCreate)
	require.NoError(t, err)
	assert.True(t, required)
}

func TestSettingsCacheWithoutRedisClient(t *testing.T) {
	repo := newCountingSettingsRepo()
	cache := NewSettingsCache(repo, nil, time.Minute, nil)
	ctx := context.Background()

	_, err := cache.RequiresApproval(ctx, content.ModuleMembers, content.ActionCreate)
	require.NoError(t, err)
	_, err = cache.RequiresApproval(ctx, content.ModuleMembers, content.ActionCreate)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.getCount(), "no client means every read goes to the repository")
}

func TestSettingsCacheWarmUpPrimesAllModules(t *testing.T) {
	cache, repo, _ := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, Setting{Module: content.ModuleApplications, ApproveDelete: true}))

	require.NoError(t, cache.WarmUp(ctx))
	before := repo.getCount()

	required, err := cache.RequiresApproval(ctx, content.ModuleApplications, content.ActionDelete)
	require.NoError(t, err)
	assert.True(t, required)
	assert.Equal(t, before, repo.getCount(), "warmed entry must not hit the repository")
}
