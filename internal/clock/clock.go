package clock

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/retroline/retroline/pkg/logger"
	"github.com/retroline/retroline/pkg/metrics"
)

// Result is how a clock run ended.
type Result int

const (
	// ResultCancelled means the caller quit before time ran out.
	ResultCancelled Result = iota
	// ResultExpired means the daily allowance hit zero.
	ResultExpired
)

// MailLookup reports the caller's unread mail count for the status line.
type MailLookup func(ctx context.Context, userID string) (int64, error)

// Options configures a spawned Clock.
type Options struct {
	// Output receives the JSON status, warning and timeout messages.
	Output chan<- string
	// RemainingMinutes is the caller's allowance. Zero or negative means
	// unlimited: one status is sent and the clock never expires.
	RemainingMinutes int
	Handle           string
	Online           int
	UserID           string
	// UnreadMail may be nil; lookup failures never disturb the countdown.
	UnreadMail MailLookup

	// Tick intervals, overridable in tests. Zero means real time.
	MinuteTick time.Duration
	SecondTick time.Duration
}

// Clock counts down a caller's session allowance in its own goroutine. It
// ticks per minute until the final minute, then per second. The session
// polls Expired and LowTime between keystrokes.
type Clock struct {
	cancel   context.CancelFunc
	done     chan struct{}
	result   Result
	expired  atomic.Bool
	lowTime  atomic.Bool
	finished atomic.Bool
}

type statusMessage struct {
	Type      string `json:"type"`
	Remaining int    `json:"remaining"`
	Unit      string `json:"unit"`
	Warning   string `json:"warning"`
	Handle    string `json:"handle"`
	Online    int    `json:"online"`
	HasMail   bool   `json:"has_mail"`
}

type warningMessage struct {
	Type    string `json:"type"`
	Minutes int    `json:"minutes"`
}

type timeoutMessage struct {
	Type string `json:"type"`
}

// Spawn starts the countdown goroutine. Cancel stops it; the Clock keeps
// running if the returned value is dropped.
func Spawn(ctx context.Context, opts Options) *Clock {
	if opts.MinuteTick <= 0 {
		opts.MinuteTick = time.Minute
	}
	if opts.SecondTick <= 0 {
		opts.SecondTick = time.Second
	}

	ctx, cancel := context.WithCancel(ctx)
	c := &Clock{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(c.done)
		c.result = c.run(ctx, opts)
		c.finished.Store(true)
	}()
	return c
}

// Cancel stops the countdown. Safe to call more than once.
func (c *Clock) Cancel() {
	c.cancel()
}

// Wait blocks until the countdown goroutine exits and returns its result.
func (c *Clock) Wait() Result {
	<-c.done
	return c.result
}

// Running reports whether the countdown goroutine is still alive.
func (c *Clock) Running() bool {
	return !c.finished.Load()
}

// Expired reports whether time ran out. Once true it stays true.
func (c *Clock) Expired() bool {
	return c.expired.Load()
}

// LowTime reports whether the countdown entered its final minute.
func (c *Clock) LowTime() bool {
	return c.lowTime.Load()
}

func (c *Clock) run(ctx context.Context, opts Options) Result {
	log := logger.WithModule("clock")

	if opts.RemainingMinutes <= 0 {
		c.send(ctx, opts.Output, c.status(ctx, opts, 0, "unlimited", "normal"))
		<-ctx.Done()
		return ResultCancelled
	}

	remaining := opts.RemainingMinutes
	c.send(ctx, opts.Output, c.status(ctx, opts, remaining, "min", warningLevel(remaining)))

	ticker := time.NewTicker(opts.MinuteTick)
	defer ticker.Stop()

	for remaining > 1 {
		select {
		case <-ticker.C:
			remaining--
		case <-ctx.Done():
			return ResultCancelled
		}

		if remaining <= 1 {
			break
		}

		c.send(ctx, opts.Output, c.status(ctx, opts, remaining, "min", warningLevel(remaining)))
		if remaining == 5 {
			c.send(ctx, opts.Output, marshal(warningMessage{Type: "timer_warning", Minutes: 5}))
		}
	}

	// Final minute counts down per second.
	c.lowTime.Store(true)
	secs := 60
	c.send(ctx, opts.Output, marshal(warningMessage{Type: "timer_warning", Minutes: 1}))

	ticker.Reset(opts.SecondTick)
	for {
		select {
		case <-ticker.C:
			secs--
		case <-ctx.Done():
			return ResultCancelled
		}

		c.send(ctx, opts.Output, c.status(ctx, opts, secs, "sec", "red"))

		if secs <= 0 {
			c.expired.Store(true)
			metrics.SessionTimeouts.Inc()
			log.Info("session allowance expired", zap.String("handle", opts.Handle))
			c.send(ctx, opts.Output, marshal(timeoutMessage{Type: "timeout"}))
			return ResultExpired
		}
	}
}

func (c *Clock) status(ctx context.Context, opts Options, remaining int, unit, warning string) string {
	hasMail := false
	if opts.UnreadMail != nil {
		if count, err := opts.UnreadMail(ctx, opts.UserID); err == nil {
			hasMail = count > 0
		}
	}
	return marshal(statusMessage{
		Type:      "timer",
		Remaining: remaining,
		Unit:      unit,
		Warning:   warning,
		Handle:    opts.Handle,
		Online:    opts.Online,
		HasMail:   hasMail,
	})
}

func (c *Clock) send(ctx context.Context, out chan<- string, msg string) {
	select {
	case out <- msg:
	case <-ctx.Done():
	}
}

func warningLevel(remainingMinutes int) string {
	switch {
	case remainingMinutes <= 1:
		return "red"
	case remainingMinutes <= 5:
		return "yellow"
	default:
		return "normal"
	}
}

func marshal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
