package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escriba/minuta/internal/common"
	"github.com/escriba/minuta/internal/models"
)

func newTestManager() *Manager {
	return NewManager(common.NewDefaultConfig(), common.GetLogger())
}

func TestManagerCreateGetDelete(t *testing.T) {
	m := newTestManager()

	s := m.Create()
	require.NotNil(t, s)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 1, m.Count())

	assert.Same(t, s, m.Get(s.ID))
	assert.Nil(t, m.Get("sess_missing"))

	m.Delete(s.ID)
	assert.Nil(t, m.Get(s.ID))
	assert.Zero(t, m.Count())
}

func TestManagerSessionIDsAreUnique(t *testing.T) {
	m := newTestManager()

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		s := m.Create()
		assert.False(t, seen[s.ID])
		seen[s.ID] = true
	}
	assert.Equal(t, 50, m.Count())
}

func TestEvictIdleDropsStaleSessions(t *testing.T) {
	m := newTestManager()

	stale := m.Create()
	fresh := m.Create()

	stale.mu.Lock()
	stale.lastActive = time.Now().Add(-3 * time.Hour)
	stale.mu.Unlock()

	m.evictIdle()

	assert.Nil(t, m.Get(stale.ID))
	assert.Same(t, fresh, m.Get(fresh.ID))
	assert.Equal(t, 1, m.Count())
}

func TestEvictIdleSkipsBusySessions(t *testing.T) {
	m := newTestManager()

	s := m.Create()
	s.mu.Lock()
	s.lastActive = time.Now().Add(-3 * time.Hour)
	s.busy = true
	s.mu.Unlock()

	m.evictIdle()

	assert.Same(t, s, m.Get(s.ID), "in-flight sessions are never evicted")
}

func TestSessionMessageIDsMonotonic(t *testing.T) {
	s := newSession("sess_x")

	s.mu.Lock()
	var ids []int64
	for i := 0; i < 10; i++ {
		ids = append(ids, s.append(models.RoleUser, "m").ID)
	}
	s.mu.Unlock()

	for i := 1; i < len(ids); i++ {
		assert.Greater(t, ids[i], ids[i-1])
	}
}

func TestSessionAccessorsReturnCopies(t *testing.T) {
	s := newSession("sess_x")
	s.mu.Lock()
	s.append(models.RoleUser, "original")
	s.documents["a.pdf"] = "content"
	s.mu.Unlock()

	msgs := s.Messages()
	msgs[0].Content = "mutated"
	assert.Equal(t, "original", s.Messages()[0].Content)

	docs := s.Documents()
	docs["b.pdf"] = "injected"
	assert.NotContains(t, s.Documents(), "b.pdf")
}
