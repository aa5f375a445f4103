package notifications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/auto-assign/internal/db"
	"github.com/ziadkadry99/auto-assign/internal/incident"
)

// ErrNotificationNotFound is returned for unknown notification ids.
var ErrNotificationNotFound = fmt.Errorf("notification %w", incident.ErrNotFound)

// ListFilter controls which notifications are returned by List.
type ListFilter struct {
	Type      NotificationType
	Severity  Severity
	Delivered *bool
	Since     time.Time
	Until     time.Time
	Limit     int
	Offset    int
}

// Store provides CRUD operations for notifications.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a new notification. If n.ID is empty a UUID is generated.
func (s *Store) Create(ctx context.Context, n Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	members, err := json.Marshal(nonNil(n.AffectedMembers))
	if err != nil {
		return fmt.Errorf("marshalling affected members: %w", err)
	}
	teams, err := json.Marshal(nonNil(n.AffectedTeams))
	if err != nil {
		return fmt.Errorf("marshalling affected teams: %w", err)
	}

	delivered := 0
	if n.Delivered {
		delivered = 1
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, type, severity, title, message, entity_id, affected_members, affected_teams, delivered, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, string(n.Type), string(n.Severity), n.Title, n.Message, n.EntityID,
		string(members), string(teams), delivered, n.CreatedAt.UTC().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

// GetByID retrieves a single notification.
func (s *Store) GetByID(ctx context.Context, id string) (*Notification, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, severity, title, message, entity_id, affected_members, affected_teams, delivered, created_at
		FROM notifications WHERE id = ?`, id)

	n, err := scanInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting notification: %w", err)
	}
	return n, nil
}

// List returns notifications matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Notification, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Severity != "" {
		clauses = append(clauses, "severity = ?")
		args = append(args, string(filter.Severity))
	}
	if filter.Delivered != nil {
		v := 0
		if *filter.Delivered {
			v = 1
		}
		clauses = append(clauses, "delivered = ?")
		args = append(args, v)
	}
	if !filter.Since.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}
	if !filter.Until.IsZero() {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, filter.Until.UTC().Format(time.DateTime))
	}

	query := "SELECT id, type, severity, title, message, entity_id, affected_members, affected_teams, delivered, created_at FROM notifications"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		n, err := scanInto(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		result = append(result, *n)
	}
	return result, rows.Err()
}

// MarkDelivered sets delivered=1 for the given notification.
func (s *Store) MarkDelivered(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE notifications SET delivered = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking notification delivered: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// GetPending returns all undelivered notifications.
func (s *Store) GetPending(ctx context.Context) ([]Notification, error) {
	delivered := false
	return s.List(ctx, ListFilter{Delivered: &delivered})
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Notification, error) {
	var (
		n                      Notification
		ntype, severity        string
		membersJSON, teamsJSON string
		delivered              int
		ts                     string
	)

	err := sc.Scan(&n.ID, &ntype, &severity, &n.Title, &n.Message, &n.EntityID,
		&membersJSON, &teamsJSON, &delivered, &ts)
	if err != nil {
		return nil, err
	}

	n.Type = NotificationType(ntype)
	n.Severity = Severity(severity)
	n.Delivered = delivered != 0
	n.CreatedAt = parseTimestamp(ts)

	if err := json.Unmarshal([]byte(membersJSON), &n.AffectedMembers); err != nil {
		n.AffectedMembers = nil
	}
	if err := json.Unmarshal([]byte(teamsJSON), &n.AffectedTeams); err != nil {
		n.AffectedTeams = nil
	}

	return &n, nil
}

// parseTimestamp accepts the DATETIME text we write and the RFC 3339 form
// the driver produces when it converts the column itself.
func parseTimestamp(ts string) time.Time {
	for _, layout := range []string{time.DateTime, time.RFC3339Nano, "2006-01-02 15:04:05 -0700 MST"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
