package sqlitecal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"bizcal/internal/model"
	"bizcal/internal/schedule"
)

// ErrNotFound is returned when a calendar or assignment does not exist.
var ErrNotFound = model.ErrNotFound

// DB wraps a SQLite database holding calendars, assignments and resolution logs.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// :memory: databases are per connection.
	d.SetMaxOpenConns(1)
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		_ = d.Close()
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

// Ping checks the connection.
func (d *DB) Ping(ctx context.Context) error { return d.sql.PingContext(ctx) }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS calendars (
	  id TEXT PRIMARY KEY,
	  name TEXT NOT NULL,
	  definition TEXT NOT NULL,
	  public_holidays TEXT NOT NULL DEFAULT '',
	  created_at INTEGER NOT NULL,
	  updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS calendar_assignments (
	  object_type TEXT NOT NULL,
	  object_id TEXT NOT NULL,
	  calendar_id TEXT NOT NULL,
	  PRIMARY KEY (object_type, object_id)
	);
	CREATE TABLE IF NOT EXISTS resolutions (
	  id TEXT PRIMARY KEY,
	  calendar_id TEXT NOT NULL,
	  requested_at INTEGER NOT NULL,
	  resolved_at INTEGER NOT NULL,
	  trace TEXT,
	  created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_resolutions_cal ON resolutions(calendar_id, created_at);
	CREATE TABLE IF NOT EXISTS cursors (
	  key TEXT PRIMARY KEY,
	  value TEXT NOT NULL
	);
	`)
	return err
}

// PutCalendar inserts or replaces a calendar. An empty ID gets a generated one, which is returned.
func (d *DB) PutCalendar(ctx context.Context, c model.Calendar) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	def, err := json.Marshal(c.Definition)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC().Unix()
	_, err = d.sql.ExecContext(ctx, `
		INSERT INTO calendars(id, name, definition, public_holidays, created_at, updated_at) VALUES(?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
		  name=excluded.name,
		  definition=excluded.definition,
		  public_holidays=excluded.public_holidays,
		  updated_at=excluded.updated_at`,
		c.ID, c.Name, string(def), c.PublicHolidays, now, now)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

// GetCalendar loads one calendar.
func (d *DB) GetCalendar(ctx context.Context, id string) (model.Calendar, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT id, name, definition, public_holidays, created_at, updated_at FROM calendars WHERE id=?`, id)
	c, err := scanCalendar(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Calendar{}, ErrNotFound
	}
	return c, err
}

// ListCalendars returns every calendar ordered by id.
func (d *DB) ListCalendars(ctx context.Context) ([]model.Calendar, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT id, name, definition, public_holidays, created_at, updated_at FROM calendars ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Calendar
	for rows.Next() {
		c, err := scanCalendar(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanCalendar(s scanner) (model.Calendar, error) {
	var c model.Calendar
	var def string
	var created, updated int64
	if err := s.Scan(&c.ID, &c.Name, &def, &c.PublicHolidays, &created, &updated); err != nil {
		return c, err
	}
	var sd schedule.Definition
	if err := json.Unmarshal([]byte(def), &sd); err != nil {
		return c, err
	}
	c.Definition = sd
	c.CreatedAt = time.Unix(created, 0).UTC()
	c.UpdatedAt = time.Unix(updated, 0).UTC()
	return c, nil
}

// Assign binds an object to a calendar, replacing any previous binding.
func (d *DB) Assign(ctx context.Context, a model.Assignment) error {
	_, err := d.sql.ExecContext(ctx, `
		INSERT INTO calendar_assignments(object_type, object_id, calendar_id) VALUES(?,?,?)
		ON CONFLICT(object_type, object_id) DO UPDATE SET calendar_id=excluded.calendar_id`,
		a.ObjectType, a.ObjectID, a.CalendarID)
	return err
}

// LookupAssignment returns the calendar id bound to an object.
func (d *DB) LookupAssignment(ctx context.Context, objectType, objectID string) (string, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT calendar_id FROM calendar_assignments WHERE object_type=? AND object_id=?`, objectType, objectID)
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return id, nil
}

// PutResolution stores a resolution and its trace, returning its id.
func (d *DB) PutResolution(ctx context.Context, r model.Resolution) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	tb, err := json.Marshal(r.Trace)
	if err != nil {
		return "", err
	}
	_, err = d.sql.ExecContext(ctx, `INSERT INTO resolutions(id, calendar_id, requested_at, resolved_at, trace, created_at) VALUES(?,?,?,?,?,?)`,
		r.ID, r.CalendarID, r.RequestedAt.Unix(), r.ResolvedAt.Unix(), string(tb), time.Now().UTC().UnixNano())
	if err != nil {
		return "", err
	}
	return r.ID, nil
}

// LoadResolutions returns the latest resolutions of a calendar, newest first.
func (d *DB) LoadResolutions(ctx context.Context, calendarID string, limit int) ([]model.Resolution, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.QueryContext(ctx, `SELECT id, calendar_id, requested_at, resolved_at, COALESCE(trace, '[]'), created_at FROM resolutions WHERE calendar_id=? ORDER BY created_at DESC LIMIT ?`, calendarID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Resolution
	for rows.Next() {
		var r model.Resolution
		var req, res, created int64
		var trace string
		if err := rows.Scan(&r.ID, &r.CalendarID, &req, &res, &trace, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(trace), &r.Trace); err != nil {
			return nil, err
		}
		r.RequestedAt = time.Unix(req, 0).UTC()
		r.ResolvedAt = time.Unix(res, 0).UTC()
		r.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveCursor stores a named progress marker.
func (d *DB) SaveCursor(ctx context.Context, key, value string) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO cursors(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	return err
}

// LoadCursor returns a stored marker, or "" when unset.
func (d *DB) LoadCursor(ctx context.Context, key string) (string, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT value FROM cursors WHERE key=?`, key)
	var v string
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return v, nil
}
