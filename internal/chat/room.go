package chat

import (
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/retroline/retroline/pkg/errors"
	"github.com/retroline/retroline/pkg/logger"
	"github.com/retroline/retroline/pkg/metrics"
)

const subscriberBuffer = 64

// Participant is one caller on the room roster.
type Participant struct {
	NodeID   int
	Handle   string
	JoinedAt time.Time
}

// Room is the shared teleconference channel. Subscription and roster
// membership are independent: any node can listen to the event stream, but
// only capacity-bounded roster members count as being "in" the room. Every
// subscriber gets its own buffered event channel; a subscriber that cannot
// keep up has events dropped rather than stalling the rest of the room.
type Room struct {
	capacity int
	log      *zap.Logger

	// subMu guards only the subscriber map; the fan-out path never
	// touches the roster lock.
	subMu sync.RWMutex
	subs  map[int]chan Event

	rosterMu sync.RWMutex
	roster   map[int]*Participant
}

// NewRoom creates a Room holding at most capacity participants.
func NewRoom(capacity int) *Room {
	if capacity < 1 {
		capacity = 1
	}
	return &Room{
		capacity: capacity,
		subs:     make(map[int]chan Event),
		roster:   make(map[int]*Participant),
		log:      logger.WithModule("chat"),
	}
}

// Subscribe returns the event stream for a node, creating it if needed.
// Only events broadcast after the call are delivered; there is no replay.
// Subscribing does not place the node on the roster and is never refused.
func (r *Room) Subscribe(nodeID int) <-chan Event {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	if ch, ok := r.subs[nodeID]; ok {
		return ch
	}
	ch := make(chan Event, subscriberBuffer)
	r.subs[nodeID] = ch
	return ch
}

// Unsubscribe closes and removes a node's event stream. A node that never
// subscribed is a no-op.
func (r *Room) Unsubscribe(nodeID int) {
	r.subMu.Lock()
	ch, ok := r.subs[nodeID]
	delete(r.subs, nodeID)
	r.subMu.Unlock()

	if ok {
		close(ch)
	}
}

// Join puts a node on the roster. Joining again from the same node is a
// no-op success. A full room returns errors.ErrRoomFull.
func (r *Room) Join(nodeID int, handle string) error {
	r.rosterMu.Lock()
	if _, ok := r.roster[nodeID]; ok {
		r.rosterMu.Unlock()
		return nil
	}
	if len(r.roster) >= r.capacity {
		r.rosterMu.Unlock()
		return errors.ErrRoomFull
	}
	r.roster[nodeID] = &Participant{NodeID: nodeID, Handle: handle, JoinedAt: time.Now()}
	count := len(r.roster)
	r.rosterMu.Unlock()

	metrics.ChatParticipants.Set(float64(count))
	r.broadcast(Event{Type: EventJoin, From: handle, At: time.Now()})
	return nil
}

// Leave removes a node from the roster. The node's subscription, if any,
// stays open until Unsubscribe. Leaving a room the node is not in is a
// no-op.
func (r *Room) Leave(nodeID int) {
	r.rosterMu.Lock()
	part, ok := r.roster[nodeID]
	if !ok {
		r.rosterMu.Unlock()
		return
	}
	delete(r.roster, nodeID)
	count := len(r.roster)
	r.rosterMu.Unlock()

	metrics.ChatParticipants.Set(float64(count))
	r.broadcast(Event{Type: EventLeave, From: part.Handle, At: time.Now()})
}

// Broadcast delivers an event to every subscriber. An event with no
// subscribers is simply discarded, never buffered.
func (r *Room) Broadcast(ev Event) {
	r.broadcast(ev)
}

// SendTo delivers an event to one participant, with a copy echoed back to
// the sender's node. It reports whether the target handle was found.
func (r *Room) SendTo(ev Event, fromNodeID int) bool {
	target, ok := r.LookupHandle(ev.To)
	if !ok {
		return false
	}

	r.subMu.RLock()
	channels := make([]chan Event, 0, 2)
	if ch, ok := r.subs[target.NodeID]; ok {
		channels = append(channels, ch)
	}
	if target.NodeID != fromNodeID {
		if ch, ok := r.subs[fromNodeID]; ok {
			channels = append(channels, ch)
		}
	}
	r.subMu.RUnlock()

	for _, ch := range channels {
		r.enqueue(ch, ev)
	}
	return true
}

// Participants returns the roster ordered by node number.
func (r *Room) Participants() []Participant {
	r.rosterMu.RLock()
	defer r.rosterMu.RUnlock()

	out := make([]Participant, 0, len(r.roster))
	for _, p := range r.roster {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}

// Count returns the number of participants.
func (r *Room) Count() int {
	r.rosterMu.RLock()
	defer r.rosterMu.RUnlock()
	return len(r.roster)
}

// Capacity returns the configured participant limit.
func (r *Room) Capacity() int {
	return r.capacity
}

// LookupHandle finds a participant by handle, case-insensitively.
func (r *Room) LookupHandle(handle string) (Participant, bool) {
	r.rosterMu.RLock()
	defer r.rosterMu.RUnlock()

	for _, p := range r.roster {
		if strings.EqualFold(p.Handle, handle) {
			return *p, true
		}
	}
	return Participant{}, false
}

func (r *Room) broadcast(ev Event) {
	r.subMu.RLock()
	channels := make([]chan Event, 0, len(r.subs))
	for _, ch := range r.subs {
		channels = append(channels, ch)
	}
	r.subMu.RUnlock()

	for _, ch := range channels {
		r.enqueue(ch, ev)
	}
}

func (r *Room) enqueue(ch chan Event, ev Event) {
	select {
	case ch <- ev:
	default:
		r.log.Warn("dropping chat event for slow subscriber",
			zap.String("type", string(ev.Type)),
			zap.String("from", ev.From))
	}
}
