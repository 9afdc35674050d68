// Package results persists pipeline results in SQLite. Each run gets a row
// with its metadata and summary; every output raster is stored as a
// MessagePack blob keyed by run and name.
package results

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"

	"github.com/chrissnell/cropyield/internal/pipeline"
	"github.com/chrissnell/cropyield/pkg/migrate"
	"github.com/chrissnell/cropyield/pkg/raster"
)

// createdLayout is fixed-width so that created_at sorts lexically
const createdLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when a run or raster does not exist
var ErrNotFound = errors.New("not found")

//go:embed migrations/*.sql
var migrations embed.FS

// Run is the stored metadata of one pipeline run
type Run struct {
	ID          string           `json:"id"`
	CreatedAt   time.Time        `json:"created-at"`
	Crop        string           `json:"crop"`
	Scenario    string           `json:"scenario"`
	SeasonStart time.Time        `json:"season-start"`
	SeasonStop  time.Time        `json:"season-stop"`
	Grid        raster.Grid      `json:"grid"`
	Summary     pipeline.Summary `json:"summary"`
	Rasters     []string         `json:"rasters,omitempty"`
}

// Store is a SQLite result store
type Store struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Open opens (and if needed creates) the store at dbPath
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// :memory: databases exist per connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	m := migrate.NewMigrator(db, migrate.NewFSProvider(migrations, "migrations", ""), nil)
	if err := m.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Store{
		db:     db,
		dbPath: dbPath,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Path returns the database location
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func encodeRaster(r *raster.Raster) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(r.Encode()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRaster(data []byte) (*raster.Raster, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	var e raster.Encoded
	if err := dec.Decode(&e); err != nil {
		return nil, err
	}
	return raster.Decode(e)
}

// SaveRun stores res and all of its rasters in one transaction
func (s *Store) SaveRun(ctx context.Context, res *pipeline.Result) (Run, error) {
	run := Run{
		ID:          uuid.NewString(),
		CreatedAt:   s.now(),
		Crop:        string(res.Crop),
		Scenario:    string(res.Scenario),
		SeasonStart: res.Window.Ref,
		SeasonStop:  res.Window.Stop,
		Grid:        res.Grid,
		Summary:     res.Summary,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, crop, scenario, season_start, season_stop, domain,
		                  grid_rows, grid_cols, pixels, valid,
		                  yield_mean, yield_stddev, yield_min, yield_max)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.Format(createdLayout), run.Crop, run.Scenario,
		run.SeasonStart.Format(time.DateOnly), run.SeasonStop.Format(time.DateOnly), run.Grid.Domain,
		run.Grid.Rows, run.Grid.Cols, run.Summary.Pixels, run.Summary.Valid,
		run.Summary.Mean, run.Summary.StdDev, run.Summary.Min, run.Summary.Max)
	if err != nil {
		return Run{}, fmt.Errorf("failed to insert run: %w", err)
	}

	for name, r := range res.Rasters() {
		data, err := encodeRaster(r)
		if err != nil {
			return Run{}, fmt.Errorf("failed to encode raster %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO rasters (run_id, name, data) VALUES (?, ?, ?)`, run.ID, name, data); err != nil {
			return Run{}, fmt.Errorf("failed to insert raster %s: %w", name, err)
		}
		run.Rasters = append(run.Rasters, name)
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("failed to commit run: %w", err)
	}
	return s.GetRun(ctx, run.ID)
}

const runColumns = `id, created_at, crop, scenario, season_start, season_stop, domain,
	grid_rows, grid_cols, pixels, valid, yield_mean, yield_stddev, yield_min, yield_max`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var created, start, stop string
	err := row.Scan(&run.ID, &created, &run.Crop, &run.Scenario, &start, &stop, &run.Grid.Domain,
		&run.Grid.Rows, &run.Grid.Cols, &run.Summary.Pixels, &run.Summary.Valid,
		&run.Summary.Mean, &run.Summary.StdDev, &run.Summary.Min, &run.Summary.Max)
	if err != nil {
		return Run{}, err
	}
	if run.CreatedAt, err = time.Parse(createdLayout, created); err != nil {
		return Run{}, fmt.Errorf("bad created_at %q: %w", created, err)
	}
	if run.SeasonStart, err = time.Parse(time.DateOnly, start); err != nil {
		return Run{}, fmt.Errorf("bad season_start %q: %w", start, err)
	}
	if run.SeasonStop, err = time.Parse(time.DateOnly, stop); err != nil {
		return Run{}, fmt.Errorf("bad season_stop %q: %w", stop, err)
	}
	return run, nil
}

// ListRuns returns every stored run, newest first. Raster names are not
// included.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run with the names of its rasters
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM rasters WHERE run_id = ? ORDER BY name`, id)
	if err != nil {
		return Run{}, fmt.Errorf("failed to query rasters: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return Run{}, fmt.Errorf("failed to scan raster name: %w", err)
		}
		run.Rasters = append(run.Rasters, name)
	}
	return run, rows.Err()
}

// LoadRaster returns one stored raster of a run
func (s *Store) LoadRaster(ctx context.Context, id, name string) (*raster.Raster, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM rasters WHERE run_id = ? AND name = ?`, id, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("raster %s of run %s: %w", name, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load raster %s: %w", name, err)
	}
	r, err := decodeRaster(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode raster %s: %w", name, err)
	}
	return r, nil
}

// DeleteRun removes a run and its rasters
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return nil
}
