package assignment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ziadkadry99/auto-assign/internal/db"
)

// Store persists assignments. Implementations return copies.
type Store interface {
	Create(ctx context.Context, a Assignment) error
	// Get returns the assignment and whether it exists.
	Get(ctx context.Context, id string) (Assignment, bool, error)
	// Update replaces an existing assignment; ErrAssignmentNotFound otherwise.
	Update(ctx context.Context, a Assignment) error
	// List returns matching assignments in creation order.
	List(ctx context.Context, f ListFilter) ([]Assignment, error)
}

// MemoryStore is a Store backed by a map.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]Assignment
	order []string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]Assignment)}
}

func (s *MemoryStore) Create(_ context.Context, a Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[a.ID]; exists {
		return fmt.Errorf("assignment %s already exists", a.ID)
	}
	s.byID[a.ID] = a.Clone()
	s.order = append(s.order, a.ID)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Assignment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return Assignment{}, false, nil
	}
	return a.Clone(), true, nil
}

func (s *MemoryStore) Update(_ context.Context, a Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[a.ID]; !ok {
		return ErrAssignmentNotFound
	}
	s.byID[a.ID] = a.Clone()
	return nil
}

func (s *MemoryStore) List(_ context.Context, f ListFilter) ([]Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Assignment
	for _, id := range s.order {
		a := s.byID[id]
		if f.matches(a) {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

// SQLStore is a Store backed by the assignments table.
type SQLStore struct {
	db *db.DB
}

// NewSQLStore creates a SQLStore on d.
func NewSQLStore(d *db.DB) *SQLStore {
	return &SQLStore{db: d}
}

func (s *SQLStore) Create(ctx context.Context, a Assignment) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshalling assignment: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assignments (id, incident_id, primary_owner_id, status, priority, assigned_at, seq, data)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM assignments), ?)`,
		a.ID, a.IncidentID, a.PrimaryOwner.ID, string(a.Status), string(a.Priority), a.AssignedAt.UnixNano(), string(data),
	)
	if err != nil {
		return fmt.Errorf("inserting assignment: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Assignment, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM assignments WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Assignment{}, false, nil
	}
	if err != nil {
		return Assignment{}, false, fmt.Errorf("getting assignment: %w", err)
	}
	var a Assignment
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return Assignment{}, false, fmt.Errorf("decoding assignment %s: %w", id, err)
	}
	return a, true, nil
}

func (s *SQLStore) Update(ctx context.Context, a Assignment) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshalling assignment: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE assignments SET primary_owner_id = ?, status = ?, priority = ?, assigned_at = ?, data = ?
		WHERE id = ?`,
		a.PrimaryOwner.ID, string(a.Status), string(a.Priority), a.AssignedAt.UnixNano(), string(data), a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating assignment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context, f ListFilter) ([]Assignment, error) {
	var (
		clauses []string
		args    []any
	)
	if f.OwnerID != "" {
		clauses = append(clauses, "primary_owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if f.IncidentID != "" {
		clauses = append(clauses, "incident_id = ?")
		args = append(args, f.IncidentID)
	}
	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			marks[i] = "?"
			args = append(args, string(st))
		}
		clauses = append(clauses, "status IN ("+strings.Join(marks, ", ")+")")
	}

	query := "SELECT data FROM assignments"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing assignments: %w", err)
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		var a Assignment
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			return nil, fmt.Errorf("decoding assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
