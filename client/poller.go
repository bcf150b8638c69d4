package client

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/classroom"
)

const DefaultPollInterval = 3 * time.Second

// Update is a refreshed classroom snapshot. Student is the tracked student
// re-resolved by id within the new snapshot; nil when none is tracked or the
// student was removed.
type Update struct {
	Classroom classroom.Classroom
	Student   *classroom.Student
}

// Poller refreshes a classroom at a fixed interval while a view is active.
// Each successful fetch replaces the local state wholesale; failed fetches
// are logged and the last known state is retained until the next round.
type Poller struct {
	client   *Client
	interval time.Duration
	logger   core.Logger

	mu   sync.RWMutex
	last Update
}

func NewPoller(c *Client, interval time.Duration, logger core.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{client: c, interval: interval, logger: logger}
}

// Last returns the most recent snapshot.
func (p *Poller) Last() Update {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// Run polls the classroom until ctx is cancelled, fetching once immediately
// and then on every tick. studentID may be empty when no student is tracked.
// onUpdate is invoked for every successful fetch.
func (p *Poller) Run(ctx context.Context, classCode, studentID string, onUpdate func(Update)) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx, classCode, studentID, onUpdate)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx, classCode, studentID, onUpdate)
		}
	}
}

func (p *Poller) poll(ctx context.Context, classCode, studentID string, onUpdate func(Update)) {
	cls, err := p.client.GetClassroom(ctx, classCode)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("polling classroom "+classCode+" failed, keeping last known state", err)
		}
		return
	}

	upd := Update{Classroom: cls}
	if studentID != "" {
		upd.Student = cls.FindStudent(studentID)
	}

	p.mu.Lock()
	p.last = upd
	p.mu.Unlock()

	if onUpdate != nil {
		onUpdate(upd)
	}
}
