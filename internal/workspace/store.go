package workspace

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"meetingassist/internal/draft"
	"meetingassist/internal/meeting"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes. Older databases are
// rejected; the workspace is a cache and can be deleted.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was written by another version.
var ErrSchemaMismatch = errors.New("workspace schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const timeLayout = time.RFC3339Nano

// Store persists workspace snapshots in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the workspace database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure workspace dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}
	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'meetingassist workspace reset' or delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Save writes snap, replacing the previous snapshot. Drafts are stored only
// for the selected meeting.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	return retryOnBusy(ctx, func() error { return s.save(ctx, snap) })
}

func (s *Store) save(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	status, err := json.Marshal(snap.Status)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO selection (id, client_id, meeting_id, task_instructions, deliverables_instructions, status_json, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_id = excluded.client_id,
			meeting_id = excluded.meeting_id,
			task_instructions = excluded.task_instructions,
			deliverables_instructions = excluded.deliverables_instructions,
			status_json = excluded.status_json,
			updated_at = excluded.updated_at`,
		snap.ClientID, snap.MeetingID, snap.TaskInstructions, snap.DeliverablesInstructions,
		string(status), time.Now().UTC().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("save selection: %w", err)
	}

	for _, stmt := range []string{"DELETE FROM clients_cache", "DELETE FROM meetings_cache", "DELETE FROM task_drafts", "DELETE FROM content_drafts"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset cache: %w", err)
		}
	}
	for pos, c := range snap.Clients {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO clients_cache (client_id, display_name, position) VALUES (?, ?, ?)",
			c.ClientID, c.DisplayName, pos,
		); err != nil {
			return fmt.Errorf("save client %s: %w", c.ClientID, err)
		}
	}
	for pos, m := range snap.Meetings {
		payload, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode meeting %s: %w", m.MeetingID, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO meetings_cache (client_id, meeting_id, position, payload_json) VALUES (?, ?, ?, ?)",
			snap.ClientID, m.MeetingID, pos, string(payload),
		); err != nil {
			return fmt.Errorf("save meeting %s: %w", m.MeetingID, err)
		}
	}

	if snap.MeetingID != "" && snap.Tasks != nil {
		baseline, value, err := encodePair(snap.Tasks.Baseline, snap.Tasks.Value)
		if err != nil {
			return fmt.Errorf("encode task draft: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO task_drafts (client_id, meeting_id, baseline_json, value_json, dirty, loaded_at) VALUES (?, ?, ?, ?, ?, ?)",
			snap.ClientID, snap.MeetingID, baseline, value, boolToInt(snap.Tasks.Dirty), formatTime(snap.Tasks.LoadedAt),
		); err != nil {
			return fmt.Errorf("save task draft: %w", err)
		}
	}
	if snap.MeetingID != "" {
		for _, rec := range snap.Content {
			baseline, value, err := encodePair(rec.Baseline, rec.Value)
			if err != nil {
				return fmt.Errorf("encode content draft %s: %w", rec.Key, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO content_drafts (client_id, meeting_id, task_index, language, baseline_json, value_json, dirty, loaded_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				snap.ClientID, snap.MeetingID, rec.Key.TaskIndex, string(rec.Key.Language),
				baseline, value, boolToInt(rec.Dirty), formatTime(rec.LoadedAt),
			); err != nil {
				return fmt.Errorf("save content draft %s: %w", rec.Key, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit workspace: %w", err)
	}
	return nil
}

// Load reads the stored snapshot. An empty database yields a zero snapshot.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var statusJSON, updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT client_id, meeting_id, task_instructions, deliverables_instructions, status_json, updated_at
		FROM selection WHERE id = 1`,
	).Scan(&snap.ClientID, &snap.MeetingID, &snap.TaskInstructions, &snap.DeliverablesInstructions, &statusJSON, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load selection: %w", err)
	}
	if err := json.Unmarshal([]byte(statusJSON), &snap.Status); err != nil {
		return Snapshot{}, fmt.Errorf("decode status: %w", err)
	}

	if snap.Clients, err = s.loadClients(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Meetings, err = s.loadMeetings(ctx, snap.ClientID); err != nil {
		return Snapshot{}, err
	}
	if snap.Tasks, err = s.loadTaskDraft(ctx, snap.ClientID, snap.MeetingID); err != nil {
		return Snapshot{}, err
	}
	if snap.Content, err = s.loadContentDrafts(ctx, snap.ClientID, snap.MeetingID); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *Store) loadClients(ctx context.Context) ([]meeting.Client, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT client_id, display_name FROM clients_cache ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	defer rows.Close()
	var clients []meeting.Client
	for rows.Next() {
		var c meeting.Client
		if err := rows.Scan(&c.ClientID, &c.DisplayName); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (s *Store) loadMeetings(ctx context.Context, clientID string) ([]meeting.Meeting, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT payload_json FROM meetings_cache WHERE client_id = ? ORDER BY position", clientID)
	if err != nil {
		return nil, fmt.Errorf("load meetings: %w", err)
	}
	defer rows.Close()
	var meetings []meeting.Meeting
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		var m meeting.Meeting
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			return nil, fmt.Errorf("decode meeting: %w", err)
		}
		m.Normalize()
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

func (s *Store) loadTaskDraft(ctx context.Context, clientID, meetingID string) (*TaskRecord, error) {
	var baseline, value, loadedAt string
	var dirty int
	err := s.db.QueryRowContext(ctx,
		"SELECT baseline_json, value_json, dirty, loaded_at FROM task_drafts WHERE client_id = ? AND meeting_id = ?",
		clientID, meetingID,
	).Scan(&baseline, &value, &dirty, &loadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load task draft: %w", err)
	}
	rec := &TaskRecord{Dirty: dirty != 0, LoadedAt: parseTime(loadedAt)}
	if err := decodePair(baseline, value, &rec.Baseline, &rec.Value); err != nil {
		return nil, fmt.Errorf("decode task draft: %w", err)
	}
	rec.Baseline = draft.CloneTaskDoc(rec.Baseline)
	rec.Value = draft.CloneTaskDoc(rec.Value)
	return rec, nil
}

func (s *Store) loadContentDrafts(ctx context.Context, clientID, meetingID string) ([]ContentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_index, language, baseline_json, value_json, dirty, loaded_at
		FROM content_drafts WHERE client_id = ? AND meeting_id = ?
		ORDER BY task_index, language`,
		clientID, meetingID,
	)
	if err != nil {
		return nil, fmt.Errorf("load content drafts: %w", err)
	}
	defer rows.Close()
	var out []ContentRecord
	for rows.Next() {
		var (
			taskIndex                 int
			lang, baseline, value, at string
			dirty                     int
		)
		if err := rows.Scan(&taskIndex, &lang, &baseline, &value, &dirty, &at); err != nil {
			return nil, fmt.Errorf("scan content draft: %w", err)
		}
		key, err := draft.NewKey(taskIndex, lang)
		if err != nil {
			return nil, fmt.Errorf("content draft key: %w", err)
		}
		rec := ContentRecord{Key: key, Dirty: dirty != 0, LoadedAt: parseTime(at)}
		if err := decodePair(baseline, value, &rec.Baseline, &rec.Value); err != nil {
			return nil, fmt.Errorf("decode content draft %s: %w", key, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Reset deletes every stored row except the schema version.
func (s *Store) Reset(ctx context.Context) error {
	return retryOnBusy(ctx, func() error {
		for _, stmt := range []string{"DELETE FROM selection", "DELETE FROM clients_cache", "DELETE FROM meetings_cache", "DELETE FROM task_drafts", "DELETE FROM content_drafts"} {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("reset workspace: %w", err)
			}
		}
		return nil
	})
}

func encodePair(baseline, value any) (string, string, error) {
	b, err := json.Marshal(baseline)
	if err != nil {
		return "", "", err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return "", "", err
	}
	return string(b), string(v), nil
}

func decodePair(baseline, value string, baselineOut, valueOut any) error {
	if err := json.Unmarshal([]byte(baseline), baselineOut); err != nil {
		return err
	}
	return json.Unmarshal([]byte(value), valueOut)
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
