package node

import (
	"sort"
	"sync"
	"time"

	"github.com/retroline/retroline/pkg/errors"
	"github.com/retroline/retroline/pkg/metrics"
)

// Info describes one occupied node line.
type Info struct {
	ID          int
	UserID      string
	Handle      string
	Activity    string
	ConnectedAt time.Time
}

// Registry hands out node lines to connecting callers. Slots are numbered
// from 1 and the lowest free slot is always assigned first, so node 1 is
// the busiest line just like on a real multi-line board.
type Registry struct {
	mu       sync.RWMutex
	maxNodes int
	nodes    map[int]*Info
}

// NewRegistry creates a Registry with the given number of lines.
func NewRegistry(maxNodes int) *Registry {
	if maxNodes < 1 {
		maxNodes = 1
	}
	return &Registry{
		maxNodes: maxNodes,
		nodes:    make(map[int]*Info),
	}
}

// Acquire assigns the lowest free node to the caller. It returns
// errors.ErrAllLinesBusy when every line is occupied.
func (r *Registry) Acquire(userID, handle string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id := 1; id <= r.maxNodes; id++ {
		if _, taken := r.nodes[id]; taken {
			continue
		}
		r.nodes[id] = &Info{
			ID:          id,
			UserID:      userID,
			Handle:      handle,
			Activity:    "Logging in",
			ConnectedAt: time.Now(),
		}
		metrics.ActiveNodes.Set(float64(len(r.nodes)))
		return id, nil
	}
	return 0, errors.ErrAllLinesBusy
}

// Release frees a node. Releasing a free node is a no-op so disconnect
// paths can call it unconditionally.
func (r *Registry) Release(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.nodes[id]; !taken {
		return
	}
	delete(r.nodes, id)
	metrics.ActiveNodes.Set(float64(len(r.nodes)))
}

// Get returns a copy of the node's info.
func (r *Registry) Get(id int) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.nodes[id]
	if !ok {
		return Info{}, false
	}
	return *info, true
}

// SetUser rebinds a node to its real caller once login completes. Nodes are
// acquired before authentication under a placeholder handle.
func (r *Registry) SetUser(id int, userID, handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info, ok := r.nodes[id]; ok {
		info.UserID = userID
		info.Handle = handle
	}
}

// UserOnline reports whether a user already occupies a node other than
// exceptID. Used to refuse duplicate logins.
func (r *Registry) UserOnline(userID string, exceptID int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, info := range r.nodes {
		if id != exceptID && info.UserID == userID && userID != "" {
			return true
		}
	}
	return false
}

// NodeForUser returns the node a user occupies, if any.
func (r *Registry) NodeForUser(userID string) (int, bool) {
	if userID == "" {
		return 0, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, info := range r.nodes {
		if info.UserID == userID {
			return id, true
		}
	}
	return 0, false
}

// SetActivity updates what the caller on a node is doing, shown on the
// who's-online roster.
func (r *Registry) SetActivity(id int, activity string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info, ok := r.nodes[id]; ok {
		info.Activity = activity
	}
}

// List returns the occupied nodes ordered by node number.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.nodes))
	for _, info := range r.nodes {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of occupied nodes.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

// MaxNodes returns the configured line count.
func (r *Registry) MaxNodes() int {
	return r.maxNodes
}
