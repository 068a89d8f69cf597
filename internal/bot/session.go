package bot

import (
	"sync"
	"time"

	"github.com/ivanoskov/billbot/internal/model"
)

// ExportStep is the position inside an export date-range flow.
type ExportStep int

const (
	ExportAwaitingStart ExportStep = iota
	ExportAwaitingEnd
)

// EmailStep is the position inside an email report flow.
type EmailStep int

const (
	EmailAwaitingEmail EmailStep = iota
	EmailAwaitingStart
	EmailAwaitingEnd
)

// RangeType selects between "all bills" and an explicit date range.
type RangeType int

const (
	RangeAll RangeType = iota
	RangeDates
)

// PendingBill is an extracted-but-unsaved bill awaiting a description
// decision. Any free-text message while it is parked is consumed as the
// description, whether or not the manual button was pressed.
type PendingBill struct {
	Bill *model.Bill
}

type ExportFlow struct {
	Step      ExportStep
	StartDate *string
}

type EmailFlow struct {
	Step      EmailStep
	RangeType RangeType
	Email     string
	StartDate *string
}

// Session holds a user's in-progress flows. The three slots are
// independent: a user can have a pending bill and an export flow at once.
type Session struct {
	PendingBill *PendingBill
	Export      *ExportFlow
	Email       *EmailFlow
	UpdatedAt   time.Time
}

// Empty reports whether every flow slot is cleared.
func (s *Session) Empty() bool {
	return s.PendingBill == nil && s.Export == nil && s.Email == nil
}

// SessionStore owns per-user conversation state. Flow handlers read a
// session, mutate it, and write it back; only the orchestrator touches it.
type SessionStore interface {
	Get(userID int64) (*Session, bool)
	Set(userID int64, session *Session)
	Clear(userID int64)
}

// MemoryStore is the in-process SessionStore. State is lost on restart; a
// durable implementation can be swapped in without touching flow logic.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates a store whose sessions expire after ttl of
// inactivity. A zero ttl disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(userID int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[userID]
	if !ok {
		return nil, false
	}
	if m.ttl > 0 && m.now().Sub(session.UpdatedAt) > m.ttl {
		delete(m.sessions, userID)
		return nil, false
	}
	return session, true
}

func (m *MemoryStore) Set(userID int64, session *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session == nil || session.Empty() {
		delete(m.sessions, userID)
		return
	}
	session.UpdatedAt = m.now()
	m.sessions[userID] = session
}

func (m *MemoryStore) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
