package mailbox

import (
	"sync"
	"time"
)

// SnapshotLimit is how many recent messages a failure snapshot carries.
const SnapshotLimit = 10

// Snapshot is a bounded view of a queue taken for diagnostics. Recent
// holds at most the limit requested, most recent first.
type Snapshot struct {
	TotalCount int
	Recent     []any
	Truncated  bool
}

// Mailbox is an in-memory message queue owned by a single unit of work.
// Any goroutine may deliver; receive operations scan in arrival order and
// consume only the message they matched, so non-matching messages stay
// queued for later assertions.
//
// Predicates run with the queue locked: they must not panic, block, or
// re-enter the mailbox.
type Mailbox struct {
	mu     sync.Mutex
	items  []any
	wake   chan struct{}
	closed bool
}

// New returns an empty mailbox.
func New() *Mailbox {
	return &Mailbox{}
}

// Deliver appends msg and wakes any blocked receiver. Delivering to a
// closed mailbox is a no-op.
func (m *Mailbox) Deliver(msg any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.items = append(m.items, msg)
	if m.wake != nil {
		close(m.wake)
		m.wake = nil
	}
}

// Len returns the number of queued messages.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close marks the mailbox closed. Queued messages remain readable; new
// deliveries are dropped.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.wake != nil {
		close(m.wake)
		m.wake = nil
	}
}

// TryReceive scans the queue once without blocking and consumes the first
// message satisfying pred.
func (m *Mailbox) TryReceive(pred func(any) bool) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.takeLocked(pred)
}

// TryReceiveSnapshot behaves like TryReceive but, when nothing matches,
// also captures a snapshot in the same critical section. The snapshot is
// therefore consistent with the scan that failed.
func (m *Mailbox) TryReceiveSnapshot(pred func(any) bool, limit int) (any, bool, Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.takeLocked(pred); ok {
		return msg, true, Snapshot{}
	}
	return nil, false, m.snapshotLocked(limit)
}

// Receive blocks until a message satisfying pred arrives or timeout
// elapses. Messages already queued are scanned first; a zero timeout is a
// single non-blocking scan. The deadline is measured from the call, not
// re-armed per message.
func (m *Mailbox) Receive(pred func(any) bool, timeout time.Duration) (any, bool) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	scanned := 0
	for {
		m.mu.Lock()
		for i := scanned; i < len(m.items); i++ {
			if pred(m.items[i]) {
				msg := m.items[i]
				m.items = append(m.items[:i], m.items[i+1:]...)
				m.mu.Unlock()
				return msg, true
			}
		}
		scanned = len(m.items)
		if m.closed {
			m.mu.Unlock()
			return nil, false
		}
		if m.wake == nil {
			m.wake = make(chan struct{})
		}
		wake := m.wake
		m.mu.Unlock()

		select {
		case <-wake:
		case <-deadline.C:
			return nil, false
		}
	}
}

// Snapshot captures up to limit of the most recent messages, most recent
// first, without consuming anything.
func (m *Mailbox) Snapshot(limit int) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(limit)
}

func (m *Mailbox) takeLocked(pred func(any) bool) (any, bool) {
	for i, msg := range m.items {
		if pred(msg) {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return msg, true
		}
	}
	return nil, false
}

func (m *Mailbox) snapshotLocked(limit int) Snapshot {
	snap := Snapshot{TotalCount: len(m.items)}
	if limit <= 0 {
		limit = SnapshotLimit
	}
	n := len(m.items)
	if n > limit {
		snap.Truncated = true
		n = limit
	}
	snap.Recent = make([]any, n)
	for i := 0; i < n; i++ {
		snap.Recent[i] = m.items[len(m.items)-1-i]
	}
	return snap
}
