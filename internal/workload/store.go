package workload

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ziadkadry99/auto-assign/internal/db"
)

// Store holds one WorkloadMetrics row per member.
type Store interface {
	// Get returns the metrics for a member and whether any exist.
	Get(ctx context.Context, memberID string) (WorkloadMetrics, bool, error)
	// Update applies fn to the member's metrics, starting from defaults
	// when none exist, and saves the result atomically.
	Update(ctx context.Context, memberID string, fn func(*WorkloadMetrics)) (WorkloadMetrics, error)
	// List returns every stored row ordered by member id.
	List(ctx context.Context) ([]WorkloadMetrics, error)
}

// MemoryStore is a Store backed by a map.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]WorkloadMetrics
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]WorkloadMetrics)}
}

func (s *MemoryStore) Get(_ context.Context, memberID string) (WorkloadMetrics, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.rows[memberID]
	return m, ok, nil
}

func (s *MemoryStore) Update(_ context.Context, memberID string, fn func(*WorkloadMetrics)) (WorkloadMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[memberID]
	if !ok {
		m = newMetrics(memberID)
	}
	fn(&m)
	m.MemberID = memberID
	s.rows[memberID] = m
	return m, nil
}

func (s *MemoryStore) List(_ context.Context) ([]WorkloadMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]WorkloadMetrics, 0, len(s.rows))
	for _, m := range s.rows {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out, nil
}

// SQLStore is a Store backed by the workload_metrics table.
type SQLStore struct {
	db *db.DB
}

// NewSQLStore creates a SQLStore on d.
func NewSQLStore(d *db.DB) *SQLStore {
	return &SQLStore{db: d}
}

const metricsColumns = `member_id, active_assignments, total_assignments, resolved_assignments, average_resolution_time, success_rate`

func (s *SQLStore) Get(ctx context.Context, memberID string) (WorkloadMetrics, bool, error) {
	m, err := s.get(ctx, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return WorkloadMetrics{}, false, nil
	}
	if err != nil {
		return WorkloadMetrics{}, false, fmt.Errorf("getting workload metrics: %w", err)
	}
	return m, true, nil
}

func (s *SQLStore) get(ctx context.Context, memberID string) (WorkloadMetrics, error) {
	var m WorkloadMetrics
	err := s.db.QueryRowContext(ctx,
		`SELECT `+metricsColumns+` FROM workload_metrics WHERE member_id = ?`, memberID,
	).Scan(&m.MemberID, &m.ActiveAssignments, &m.TotalAssignments, &m.ResolvedAssignments, &m.AverageResolutionTime, &m.SuccessRate)
	return m, err
}

func (s *SQLStore) Update(ctx context.Context, memberID string, fn func(*WorkloadMetrics)) (WorkloadMetrics, error) {
	s.db.Lock()
	defer s.db.Unlock()

	m, err := s.get(ctx, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		m = newMetrics(memberID)
	} else if err != nil {
		return WorkloadMetrics{}, fmt.Errorf("loading workload metrics: %w", err)
	}
	fn(&m)
	m.MemberID = memberID

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO workload_metrics (`+metricsColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(member_id) DO UPDATE SET
		   active_assignments = excluded.active_assignments,
		   total_assignments = excluded.total_assignments,
		   resolved_assignments = excluded.resolved_assignments,
		   average_resolution_time = excluded.average_resolution_time,
		   success_rate = excluded.success_rate`,
		m.MemberID, m.ActiveAssignments, m.TotalAssignments, m.ResolvedAssignments, m.AverageResolutionTime, m.SuccessRate,
	)
	if err != nil {
		return WorkloadMetrics{}, fmt.Errorf("saving workload metrics: %w", err)
	}
	return m, nil
}

func (s *SQLStore) List(ctx context.Context) ([]WorkloadMetrics, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+metricsColumns+` FROM workload_metrics ORDER BY member_id`)
	if err != nil {
		return nil, fmt.Errorf("listing workload metrics: %w", err)
	}
	defer rows.Close()

	var out []WorkloadMetrics
	for rows.Next() {
		var m WorkloadMetrics
		if err := rows.Scan(&m.MemberID, &m.ActiveAssignments, &m.TotalAssignments, &m.ResolvedAssignments, &m.AverageResolutionTime, &m.SuccessRate); err != nil {
			return nil, fmt.Errorf("scanning workload metrics: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
