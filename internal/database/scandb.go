package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/phishguard/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "phishguard.db"

// timeLayout is fixed width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02 15:04:05.000000000"

// ScanDB provides SQLite-based storage for scan history and user counters.
type ScanDB struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Options configures ScanDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so that readers do not block the writer.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ScanDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ScanDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &ScanDB{
		db:     db,
		dbPath: dbPath,
		now:    func() time.Time { return time.Now().UTC() },
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (s *ScanDB) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *ScanDB) Path() string {
	return s.dbPath
}

// Ping reports whether the database can be reached.
func (s *ScanDB) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *ScanDB) createTables(ctx context.Context) error {
	schema := `
	-- Scans store one analysis result per row
	CREATE TABLE IF NOT EXISTS scans (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		url TEXT NOT NULL,
		url_hash TEXT NOT NULL,
		status TEXT NOT NULL,
		risk_score INTEGER NOT NULL,
		threats TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scans_user_created ON scans(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_scans_url_hash ON scans(url_hash);

	-- Users hold counters and settings, created on first use
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		email TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		total_scans INTEGER NOT NULL DEFAULT 0,
		threats_blocked INTEGER NOT NULL DEFAULT 0,
		background_scans INTEGER NOT NULL DEFAULT 0,
		protection_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		last_scan TEXT
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// ensureUser creates the user row if it does not exist yet.
func ensureUser(ctx context.Context, tx *sql.Tx, userID, now string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO users (user_id, created_at) VALUES (?, ?) ON CONFLICT(user_id) DO NOTHING`,
		userID, now)
	return err
}

// InsertScan stores an analysis result and updates the owner's counters:
// total_scans is incremented, threats_blocked is incremented for dangerous
// results and last_scan is set. The user row is created when missing.
func (s *ScanDB) InsertScan(ctx context.Context, userID, url string, result model.AnalysisResult) (*model.ScanRecord, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	threats := result.Threats
	if threats == nil {
		threats = []string{}
	}
	threatsJSON, err := json.Marshal(threats)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize threats: %w", err)
	}

	createdAt := s.now()
	record := &model.ScanRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		URL:       url,
		URLHash:   model.HashURL(url),
		Status:    result.Status,
		RiskScore: result.Score,
		Threats:   threats,
		CreatedAt: createdAt,
	}
	now := createdAt.Format(timeLayout)

	blocked := 0
	if result.Status == model.StatusDangerous {
		blocked = 1
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO scans (id, user_id, url, url_hash, status, risk_score, threats, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			record.ID, record.UserID, record.URL, record.URLHash,
			record.Status.String(), record.RiskScore, string(threatsJSON), now,
		); err != nil {
			return fmt.Errorf("failed to insert scan: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (user_id, total_scans, threats_blocked, created_at, last_scan)
			VALUES (?, 1, ?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				total_scans = total_scans + 1,
				threats_blocked = threats_blocked + excluded.threats_blocked,
				last_scan = excluded.last_scan`,
			userID, blocked, now, now,
		); err != nil {
			return fmt.Errorf("failed to update user counters: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListScans returns a user's scans, newest first.
// A non-positive limit selects DefaultListLimit; a negative offset is treated as 0.
func (s *ScanDB) ListScans(ctx context.Context, userID string, limit, offset int) ([]model.ScanRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	offset = max(offset, 0)

	return s.queryScans(ctx, `
		SELECT id, user_id, url, url_hash, status, risk_score, threats, created_at
		FROM scans
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?`,
		userID, limit, offset)
}

// FindScansByURL returns a user's scans of the given URL, newest first.
// URLs are matched by HashURL, so case and surrounding spaces are ignored.
func (s *ScanDB) FindScansByURL(ctx context.Context, userID, url string, limit int) ([]model.ScanRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.queryScans(ctx, `
		SELECT id, user_id, url, url_hash, status, risk_score, threats, created_at
		FROM scans
		WHERE user_id = ? AND url_hash = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`,
		userID, model.HashURL(url), limit)
}

// DefaultListLimit is the page size used when a caller passes no limit.
const DefaultListLimit = 10

func (s *ScanDB) queryScans(ctx context.Context, query string, args ...any) ([]model.ScanRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	records := make([]model.ScanRecord, 0)
	for rows.Next() {
		var (
			rec         model.ScanRecord
			status      string
			threatsJSON string
			createdAt   string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.URL, &rec.URLHash,
			&status, &rec.RiskScore, &threatsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if rec.Status, err = model.ParseStatus(status); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(threatsJSON), &rec.Threats); err != nil {
			return nil, fmt.Errorf("failed to parse threats of scan %s: %w", rec.ID, err)
		}
		rec.CreatedAt = parseTimestamp(createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UserStats counts a user's stored scans by status and reads the user's
// counters. Users without a row get zero counts and active protection.
func (s *ScanDB) UserStats(ctx context.Context, userID string) (model.UserStats, error) {
	stats := model.UserStats{ProtectionActive: true}

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM scans WHERE user_id = ? GROUP BY status`, userID)
	if err != nil {
		return stats, fmt.Errorf("failed to count scans: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return stats, fmt.Errorf("failed to scan row: %w", err)
		}
		stats.Total += count
		switch status {
		case model.StatusSafe.String():
			stats.Safe = count
		case model.StatusWarning.String():
			stats.Warning = count
		case model.StatusDangerous.String():
			stats.Dangerous = count
		}
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	var protection int
	err = s.db.QueryRowContext(ctx,
		`SELECT total_scans, background_scans, protection_active FROM users WHERE user_id = ?`, userID,
	).Scan(&stats.TotalScans, &stats.BackgroundScans, &protection)
	if errors.Is(err, sql.ErrNoRows) {
		return stats, nil
	}
	if err != nil {
		return stats, fmt.Errorf("failed to read user counters: %w", err)
	}
	stats.ProtectionActive = protection != 0
	return stats, nil
}

// DeleteScan removes a scan owned by userID.
// It returns ErrNotFound when the scan does not exist or belongs to someone else.
func (s *ScanDB) DeleteScan(ctx context.Context, scanID, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE id = ? AND user_id = ?`, scanID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete scan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete scan: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetProfile returns the user's profile, or the default profile when the
// user has no row yet.
func (s *ScanDB) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	profile := model.NewUserProfile(userID)

	var (
		protection int
		createdAt  string
		lastScan   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT email, name, total_scans, threats_blocked, background_scans, protection_active, created_at, last_scan
		FROM users WHERE user_id = ?`, userID,
	).Scan(&profile.Email, &profile.Name, &profile.TotalScans, &profile.ThreatsBlocked,
		&profile.BackgroundScans, &protection, &createdAt, &lastScan)
	if errors.Is(err, sql.ErrNoRows) {
		return &profile, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	profile.ProtectionActive = protection != 0
	if t := parseTimestamp(createdAt); !t.IsZero() {
		profile.CreatedAt = &t
	}
	if lastScan.Valid {
		if t := parseTimestamp(lastScan.String); !t.IsZero() {
			profile.LastScan = &t
		}
	}
	return &profile, nil
}

// UpdateProfile sets the non-empty fields among name and email,
// creating the user row when missing.
func (s *ScanDB) UpdateProfile(ctx context.Context, userID, name, email string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	now := s.now().Format(timeLayout)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureUser(ctx, tx, userID, now); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		sets := make([]string, 0, 2)
		args := make([]any, 0, 3)
		if name != "" {
			sets = append(sets, "name = ?")
			args = append(args, name)
		}
		if email != "" {
			sets = append(sets, "email = ?")
			args = append(args, email)
		}
		if len(sets) == 0 {
			return nil
		}
		args = append(args, userID)

		query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE user_id = ?" //nolint:gosec // column names are constants
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		return nil
	})
}

// ProtectionStatus returns the user's protection flag. Unknown users are protected.
func (s *ScanDB) ProtectionStatus(ctx context.Context, userID string) (bool, error) {
	var protection int
	err := s.db.QueryRowContext(ctx,
		`SELECT protection_active FROM users WHERE user_id = ?`, userID).Scan(&protection)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read protection status: %w", err)
	}
	return protection != 0, nil
}

// SetProtectionStatus stores the user's protection flag.
func (s *ScanDB) SetProtectionStatus(ctx context.Context, userID string, enabled bool) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	value := 0
	if enabled {
		value = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, protection_active, created_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET protection_active = excluded.protection_active`,
		userID, value, s.now().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to update protection status: %w", err)
	}
	return nil
}

// IncrementBackgroundScans adds count to the user's background scan counter.
// A non-positive count is treated as 1. It returns the amount added.
func (s *ScanDB) IncrementBackgroundScans(ctx context.Context, userID string, count int) (int, error) {
	if userID == "" {
		return 0, ErrEmptyUserID
	}
	if count <= 0 {
		count = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, background_scans, created_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET background_scans = background_scans + excluded.background_scans`,
		userID, count, s.now().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to record background scans: %w", err)
	}
	return count, nil
}

func (s *ScanDB) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// timestampFormats lists formats that parseTimestamp accepts.
var timestampFormats = []string{
	timeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// parseTimestamp parses a stored timestamp as UTC.
// If no format matches, it returns the zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
