package preset

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/d1nch8g/viors/config"
)

const schema = `
create table if not exists presets (
	name     text primary key,
	config   text not null,
	builtin  integer not null default 0,
	position integer not null
);
create table if not exists meta (
	key   text primary key,
	value text not null
);`

const seededKey = "defaults_seeded"

type presetRow struct {
	Name     string `db:"name"`
	Config   string `db:"config"`
	Builtin  bool   `db:"builtin"`
	Position int64  `db:"position"`
}

// SQLStore keeps presets in a SQLite database.
type SQLStore struct {
	db *sqlx.DB
}

// Ensure SQLStore implements Store interface
var _ Store = (*SQLStore)(nil)

// OpenSQLite opens (creating if needed) the preset database at path.
func OpenSQLite(path string) (*SQLStore, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open preset db: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	s, err := NewSQLStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database and ensures the schema exists.
func NewSQLStore(db *sqlx.DB) (*SQLStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create preset tables: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// List returns presets in save order. Rows that no longer decode are skipped.
func (s *SQLStore) List(ctx context.Context) ([]Preset, error) {
	var rows []presetRow
	query := `select name, config, builtin, position from presets order by position`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}

	presets := make([]Preset, 0, len(rows))
	for _, row := range rows {
		p, err := row.preset()
		if err != nil {
			log.Printf("Skipping preset %q: %v", row.Name, err)
			continue
		}
		presets = append(presets, p)
	}
	return presets, nil
}

func (s *SQLStore) Get(ctx context.Context, name string) (Preset, error) {
	var row presetRow
	query := `select name, config, builtin, position from presets where name = ?`
	if err := s.db.GetContext(ctx, &row, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Preset{}, fmt.Errorf("%q: %w", name, ErrNotFound)
		}
		return Preset{}, fmt.Errorf("failed to load preset %q: %w", name, err)
	}
	return row.preset()
}

// Save stores t under name, replacing a preset with exactly the same name.
func (s *SQLStore) Save(ctx context.Context, name string, t config.Transmission) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	if IsReserved(name) {
		return fmt.Errorf("%q: %w", name, ErrReservedName)
	}
	if err := t.Validate(); err != nil {
		return err
	}

	var clashes int
	query := `select count(*) from presets where lower(name) = lower(?) and name != ?`
	if err := s.db.GetContext(ctx, &clashes, query, name, name); err != nil {
		return fmt.Errorf("failed to check preset name: %w", err)
	}
	if clashes > 0 {
		return fmt.Errorf("%q: %w", name, ErrNameClash)
	}

	return s.upsert(ctx, s.db, Preset{Name: name, Transmission: t})
}

// Delete removes a user preset.
func (s *SQLStore) Delete(ctx context.Context, name string) error {
	if IsReserved(name) {
		return fmt.Errorf("%q: %w", name, ErrReservedName)
	}
	res, err := s.db.ExecContext(ctx, `delete from presets where name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete preset %q: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return nil
}

// SeedDefaults installs the built-in presets the first time it is called on
// a database. Later calls do nothing, even if the presets were changed.
func (s *SQLStore) SeedDefaults(ctx context.Context, defaults []Preset) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seeding: %w", err)
	}
	defer tx.Rollback()

	var seeded int
	if err := tx.GetContext(ctx, &seeded, `select count(*) from meta where key = ?`, seededKey); err != nil {
		return fmt.Errorf("failed to check seeding: %w", err)
	}
	if seeded > 0 {
		return nil
	}

	for _, p := range defaults {
		p.Builtin = true
		if err := s.upsert(ctx, tx, p); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `insert into meta (key, value) values (?, 'true')`, seededKey); err != nil {
		return fmt.Errorf("failed to mark defaults seeded: %w", err)
	}
	return tx.Commit()
}

func (s *SQLStore) upsert(ctx context.Context, ex sqlx.ExtContext, p Preset) error {
	data, err := json.Marshal(p.Transmission)
	if err != nil {
		return fmt.Errorf("failed to encode preset %q: %w", p.Name, err)
	}

	query := `
	  insert into presets (name, config, builtin, position)
	  values (?, ?, ?, (select coalesce(max(position), 0) + 1 from presets))
	  on conflict(name) do update
	     set config = excluded.config,
	         builtin = excluded.builtin,
	         position = excluded.position;`

	if _, err := ex.ExecContext(ctx, query, p.Name, string(data), p.Builtin); err != nil {
		return fmt.Errorf("failed to save preset %q: %w", p.Name, err)
	}
	return nil
}

func (r presetRow) preset() (Preset, error) {
	var t config.Transmission
	if err := json.Unmarshal([]byte(r.Config), &t); err != nil {
		return Preset{}, fmt.Errorf("failed to decode preset %q: %w", r.Name, err)
	}
	if err := t.Validate(); err != nil {
		return Preset{}, fmt.Errorf("preset %q: %w", r.Name, err)
	}
	return Preset{Name: r.Name, Transmission: t, Builtin: r.Builtin}, nil
}
