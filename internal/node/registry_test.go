package node

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/retroline/retroline/pkg/errors"
)

func TestAcquireAssignsLowestFreeSlot(t *testing.T) {
	r := NewRegistry(4)

	first, err := r.Acquire(uuid.NewString(), "alice")
	require.NoError(t, err)
	require.Equal(t, 1, first)

	second, err := r.Acquire(uuid.NewString(), "bob")
	require.NoError(t, err)
	require.Equal(t, 2, second)

	r.Release(1)

	third, err := r.Acquire(uuid.NewString(), "carol")
	require.NoError(t, err)
	require.Equal(t, 1, third, "freed slot 1 should be reused before slot 3")
}

func TestAcquireAllLinesBusy(t *testing.T) {
	r := NewRegistry(2)

	_, err := r.Acquire(uuid.NewString(), "alice")
	require.NoError(t, err)
	_, err = r.Acquire(uuid.NewString(), "bob")
	require.NoError(t, err)

	_, err = r.Acquire(uuid.NewString(), "carol")
	require.ErrorIs(t, err, errors.ErrAllLinesBusy)
	require.Equal(t, 2, r.Count())
}

func TestReleaseIsIdempotent(t *testing.T) {
	r := NewRegistry(2)

	id, err := r.Acquire(uuid.NewString(), "alice")
	require.NoError(t, err)

	r.Release(id)
	r.Release(id)
	r.Release(99)

	require.Equal(t, 0, r.Count())
}

func TestGetAndSetActivity(t *testing.T) {
	r := NewRegistry(2)
	userID := uuid.NewString()

	id, err := r.Acquire(userID, "alice")
	require.NoError(t, err)

	info, ok := r.Get(id)
	require.True(t, ok)
	require.Equal(t, userID, info.UserID)
	require.Equal(t, "alice", info.Handle)
	require.Equal(t, "Logging in", info.Activity)
	require.False(t, info.ConnectedAt.IsZero())

	r.SetActivity(id, "Chatting")
	info, _ = r.Get(id)
	require.Equal(t, "Chatting", info.Activity)

	_, ok = r.Get(99)
	require.False(t, ok)
}

func TestSetUserAndUserOnline(t *testing.T) {
	r := NewRegistry(4)

	id, err := r.Acquire("", "connecting")
	require.NoError(t, err)

	userID := uuid.NewString()
	require.False(t, r.UserOnline(userID, 0))

	r.SetUser(id, userID, "alice")
	info, _ := r.Get(id)
	require.Equal(t, "alice", info.Handle)
	require.Equal(t, userID, info.UserID)

	require.True(t, r.UserOnline(userID, 0))
	require.False(t, r.UserOnline(userID, id), "own node is excluded")
	require.False(t, r.UserOnline("", 0), "placeholder nodes never match")

	got, ok := r.NodeForUser(userID)
	require.True(t, ok)
	require.Equal(t, id, got)

	_, ok = r.NodeForUser("")
	require.False(t, ok, "placeholder user never resolves to a node")

	r.Release(id)
	_, ok = r.NodeForUser(userID)
	require.False(t, ok)
}

func TestListOrderedByNode(t *testing.T) {
	r := NewRegistry(8)

	for _, handle := range []string{"a", "b", "c", "d"} {
		_, err := r.Acquire(uuid.NewString(), handle)
		require.NoError(t, err)
	}
	r.Release(2)

	list := r.List()
	require.Len(t, list, 3)
	require.Equal(t, []int{1, 3, 4}, []int{list[0].ID, list[1].ID, list[2].ID})
}

func TestConcurrentAcquireUniqueSlots(t *testing.T) {
	const lines = 32
	r := NewRegistry(lines)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int]bool)
	)
	for i := 0; i < lines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := r.Acquire(uuid.NewString(), "caller")
			require.NoError(t, err)
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, lines, "every goroutine must get a distinct slot")
	require.Equal(t, lines, r.Count())
}
