// Package store keeps a history of evaluation runs in a SQLite database so
// tracker changes can be compared over time.
package store

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/swdee/go-moteval/metrics"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when a run does not exist
var ErrNotFound = errors.New("run not found")

// Run is a persisted evaluation outcome.  Undefined metrics are NaN in
// memory and NULL in the database
type Run struct {
	RunID       string          `json:"run_id"`
	Label       string          `json:"label"`
	GroundTruth string          `json:"ground_truth"`
	Predictions string          `json:"predictions"`
	MOTA        float64         `json:"mota"`
	IDF1        float64         `json:"idf1"`
	IDPrecision float64         `json:"id_precision"`
	IDRecall    float64         `json:"id_recall"`
	TP          int             `json:"tp"`
	FP          int             `json:"fp"`
	FN          int             `json:"fn"`
	IDMatches   int             `json:"id_matches"`
	Options     json.RawMessage `json:"options,omitempty"`
	CreatedAt   int64           `json:"created_at"`
}

// NewRun builds a Run from a scoring result.  The options are stored as JSON
// alongside the metrics
func NewRun(label, gtFile, predFile string, res *metrics.Result, options interface{}) (*Run, error) {

	run := &Run{
		Label:       label,
		GroundTruth: gtFile,
		Predictions: predFile,
		MOTA:        res.MOTA,
		IDF1:        res.IDF1,
		IDPrecision: res.IDPrecision,
		IDRecall:    res.IDRecall,
		TP:          res.Counts.TP,
		FP:          res.Counts.FP,
		FN:          res.Counts.FN,
		IDMatches:   res.Counts.IDMatches,
	}

	if options != nil {
		b, err := json.Marshal(options)

		if err != nil {
			return nil, fmt.Errorf("error encoding options: %w", err)
		}

		run.Options = b
	}

	return run, nil
}

// Store provides persistence for evaluation runs
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and migrates its schema to the
// latest version
func Open(path string) (*Store, error) {

	db, err := sql.Open("sqlite", path)

	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// migrateUp applies all pending embedded migrations
func migrateUp(db *sql.DB) error {

	src, err := iofs.New(migrationsFS, "migrations")

	if err != nil {
		return fmt.Errorf("error reading migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})

	if err != nil {
		return fmt.Errorf("error creating sqlite driver: %w", err)
	}

	// closing the migrate instance would close db as well
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)

	if err != nil {
		return fmt.Errorf("error creating migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert persists a run.  An empty RunID is replaced with a new UUID and a
// zero CreatedAt with the current time
func (s *Store) Insert(run *Run) error {

	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}

	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}

	var options interface{}

	if len(run.Options) > 0 {
		options = string(run.Options)
	}

	_, err := s.db.Exec(`
		INSERT INTO eval_runs (
			run_id, label, ground_truth, predictions,
			mota, idf1, id_precision, id_recall,
			tp, fp, fn, id_matches, options_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Label, run.GroundTruth, run.Predictions,
		nullFloat(run.MOTA), nullFloat(run.IDF1),
		nullFloat(run.IDPrecision), nullFloat(run.IDRecall),
		run.TP, run.FP, run.FN, run.IDMatches, options, run.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("error inserting run: %w", err)
	}

	return nil
}

const selectRun = `
	SELECT run_id, label, ground_truth, predictions,
	       mota, idf1, id_precision, id_recall,
	       tp, fp, fn, id_matches, options_json, created_at
	FROM eval_runs`

// Get returns a single run by id
func (s *Store) Get(runID string) (*Run, error) {

	row := s.db.QueryRow(selectRun+` WHERE run_id = ?`, runID)

	run, err := scanRun(row)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}

	if err != nil {
		return nil, err
	}

	return run, nil
}

// List returns the runs with the given label, newest first.  An empty label
// lists every run
func (s *Store) List(label string) ([]*Run, error) {

	var (
		rows *sql.Rows
		err  error
	)

	if label == "" {
		rows, err = s.db.Query(selectRun + ` ORDER BY created_at DESC, run_id`)
	} else {
		rows, err = s.db.Query(selectRun+` WHERE label = ? ORDER BY created_at DESC, run_id`, label)
	}

	if err != nil {
		return nil, fmt.Errorf("error querying runs: %w", err)
	}

	defer rows.Close()

	var runs []*Run

	for rows.Next() {
		run, err := scanRun(rows)

		if err != nil {
			return nil, err
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Delete removes a run
func (s *Store) Delete(runID string) error {

	res, err := s.db.Exec(`DELETE FROM eval_runs WHERE run_id = ?`, runID)

	if err != nil {
		return fmt.Errorf("error deleting run: %w", err)
	}

	n, err := res.RowsAffected()

	if err != nil {
		return fmt.Errorf("error deleting run: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}

	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (*Run, error) {

	var (
		run                  Run
		mota, idf1, idp, idr sql.NullFloat64
		options              sql.NullString
	)

	err := sc.Scan(
		&run.RunID, &run.Label, &run.GroundTruth, &run.Predictions,
		&mota, &idf1, &idp, &idr,
		&run.TP, &run.FP, &run.FN, &run.IDMatches, &options, &run.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if err != nil {
		return nil, fmt.Errorf("error scanning run: %w", err)
	}

	run.MOTA = floatOrNaN(mota)
	run.IDF1 = floatOrNaN(idf1)
	run.IDPrecision = floatOrNaN(idp)
	run.IDRecall = floatOrNaN(idr)

	if options.Valid {
		run.Options = json.RawMessage(options.String)
	}

	return &run, nil
}

// nullFloat maps NaN onto SQL NULL
func nullFloat(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
