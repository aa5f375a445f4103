package escalation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ziadkadry99/auto-assign/internal/db"
)

// EventFilter narrows ListEvents. Zero fields match everything; the
// creation window is inclusive.
type EventFilter struct {
	IncidentID  string
	Statuses    []Status
	CreatedFrom time.Time
	CreatedTo   time.Time
}

func (f EventFilter) matches(e Event) bool {
	if f.IncidentID != "" && e.IncidentID != f.IncidentID {
		return false
	}
	if !f.CreatedFrom.IsZero() && e.CreatedAt.Before(f.CreatedFrom) {
		return false
	}
	if !f.CreatedTo.IsZero() && e.CreatedAt.After(f.CreatedTo) {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if e.Status == s {
			return true
		}
	}
	return false
}

// Store persists escalation events and the agent roster. Implementations
// return copies.
type Store interface {
	CreateEvent(ctx context.Context, e Event) error
	GetEvent(ctx context.Context, id string) (Event, bool, error)
	// UpdateEvent replaces an existing event.
	UpdateEvent(ctx context.Context, e Event) error
	// ListEvents returns matching events in creation order.
	ListEvents(ctx context.Context, f EventFilter) ([]Event, error)

	// SaveAgent inserts or replaces an agent. Replacing keeps the agent's
	// registration position.
	SaveAgent(ctx context.Context, a Agent) error
	GetAgent(ctx context.Context, id string) (Agent, bool, error)
	// ListAgents returns agents in registration order.
	ListAgents(ctx context.Context) ([]Agent, error)
}

var errEventNotFound = errors.New("escalation event not found")

// MemoryStore is a Store backed by maps.
type MemoryStore struct {
	mu         sync.RWMutex
	events     map[string]Event
	eventOrder []string
	agents     map[string]Agent
	agentOrder []string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[string]Event),
		agents: make(map[string]Agent),
	}
}

func (s *MemoryStore) CreateEvent(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[e.ID]; exists {
		return fmt.Errorf("escalation %s already exists", e.ID)
	}
	s.events[e.ID] = e.Clone()
	s.eventOrder = append(s.eventOrder, e.ID)
	return nil
}

func (s *MemoryStore) GetEvent(_ context.Context, id string) (Event, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return Event{}, false, nil
	}
	return e.Clone(), true, nil
}

func (s *MemoryStore) UpdateEvent(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; !ok {
		return errEventNotFound
	}
	s.events[e.ID] = e.Clone()
	return nil
}

func (s *MemoryStore) ListEvents(_ context.Context, f EventFilter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, id := range s.eventOrder {
		if e := s.events[id]; f.matches(e) {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) SaveAgent(_ context.Context, a Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.agents[a.ID]; !exists {
		s.agentOrder = append(s.agentOrder, a.ID)
	}
	s.agents[a.ID] = a.Clone()
	return nil
}

func (s *MemoryStore) GetAgent(_ context.Context, id string) (Agent, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[id]
	if !ok {
		return Agent{}, false, nil
	}
	return a.Clone(), true, nil
}

func (s *MemoryStore) ListAgents(_ context.Context) ([]Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Agent, 0, len(s.agentOrder))
	for _, id := range s.agentOrder {
		out = append(out, s.agents[id].Clone())
	}
	return out, nil
}

// SQLStore is a Store backed by the escalations and agents tables.
type SQLStore struct {
	db *db.DB
}

// NewSQLStore creates a SQLStore on d.
func NewSQLStore(d *db.DB) *SQLStore {
	return &SQLStore{db: d}
}

func (s *SQLStore) CreateEvent(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshalling escalation: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO escalations (id, incident_id, level, status, created_at, seq, data)
		VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM escalations), ?)`,
		e.ID, e.IncidentID, int(e.Level), string(e.Status), e.CreatedAt.UnixNano(), string(data),
	)
	if err != nil {
		return fmt.Errorf("inserting escalation: %w", err)
	}
	return nil
}

func (s *SQLStore) GetEvent(ctx context.Context, id string) (Event, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM escalations WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Event{}, false, nil
	}
	if err != nil {
		return Event{}, false, fmt.Errorf("getting escalation: %w", err)
	}
	var e Event
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return Event{}, false, fmt.Errorf("decoding escalation %s: %w", id, err)
	}
	return e, true, nil
}

func (s *SQLStore) UpdateEvent(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshalling escalation: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE escalations SET level = ?, status = ?, data = ? WHERE id = ?`,
		int(e.Level), string(e.Status), string(data), e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating escalation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errEventNotFound
	}
	return nil
}

func (s *SQLStore) ListEvents(ctx context.Context, f EventFilter) ([]Event, error) {
	var (
		clauses []string
		args    []any
	)
	if f.IncidentID != "" {
		clauses = append(clauses, "incident_id = ?")
		args = append(args, f.IncidentID)
	}
	if !f.CreatedFrom.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, f.CreatedFrom.UnixNano())
	}
	if !f.CreatedTo.IsZero() {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, f.CreatedTo.UnixNano())
	}
	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			marks[i] = "?"
			args = append(args, string(st))
		}
		clauses = append(clauses, "status IN ("+strings.Join(marks, ", ")+")")
	}

	query := "SELECT data FROM escalations"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing escalations: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning escalation: %w", err)
		}
		var e Event
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, fmt.Errorf("decoding escalation: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveAgent(ctx context.Context, a Agent) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshalling agent: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agents (id, seq, data)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM agents), ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		a.ID, string(data),
	)
	if err != nil {
		return fmt.Errorf("saving agent: %w", err)
	}
	return nil
}

func (s *SQLStore) GetAgent(ctx context.Context, id string) (Agent, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM agents WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Agent{}, false, nil
	}
	if err != nil {
		return Agent{}, false, fmt.Errorf("getting agent: %w", err)
	}
	var a Agent
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return Agent{}, false, fmt.Errorf("decoding agent %s: %w", id, err)
	}
	return a, true, nil
}

func (s *SQLStore) ListAgents(ctx context.Context) ([]Agent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM agents ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}
	defer rows.Close()

	var out []Agent
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning agent: %w", err)
		}
		var a Agent
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			return nil, fmt.Errorf("decoding agent: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
