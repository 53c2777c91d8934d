package history

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps records in a SQLite database file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return errors.Wrapf(err, "open %s", s.path)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return errors.Wrapf(err, "ping %s", s.path)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return errors.Wrap(err, "create tables")
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, completed_at, generations, training_size, test_size,
			champion_fitness, test_fitness, test_winners, test_losers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started_at = excluded.started_at,
			completed_at = excluded.completed_at,
			generations = excluded.generations,
			training_size = excluded.training_size,
			test_size = excluded.test_size,
			champion_fitness = excluded.champion_fitness,
			test_fitness = excluded.test_fitness,
			test_winners = excluded.test_winners,
			test_losers = excluded.test_losers
	`, run.ID, run.StartedAt.UnixNano(), run.CompletedAt.UnixNano(), run.Generations,
		run.TrainingSize, run.TestSize, run.ChampionFitness, run.TestFitness,
		run.TestWinners, run.TestLosers)
	return errors.Wrapf(err, "save run %s", run.ID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (Run, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, false, err
	}

	var (
		run                Run
		started, completed int64
	)
	err = db.QueryRowContext(ctx, `
		SELECT id, started_at, completed_at, generations, training_size, test_size,
			champion_fitness, test_fitness, test_winners, test_losers
		FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &started, &completed, &run.Generations, &run.TrainingSize,
		&run.TestSize, &run.ChampionFitness, &run.TestFitness, &run.TestWinners, &run.TestLosers)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, errors.Wrapf(err, "get run %s", id)
	}
	run.StartedAt = time.Unix(0, started)
	run.CompletedAt = time.Unix(0, completed)
	return run, true, nil
}

func (s *SQLiteStore) SaveGeneration(ctx context.Context, gen Generation) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO generations (run_id, idx, genomes, best_fitness, champion_fitness, species, elapsed_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, idx) DO UPDATE SET
			genomes = excluded.genomes,
			best_fitness = excluded.best_fitness,
			champion_fitness = excluded.champion_fitness,
			species = excluded.species,
			elapsed_ns = excluded.elapsed_ns
	`, gen.RunID, gen.Index, gen.Genomes, gen.BestFitness, gen.ChampionFitness,
		gen.Species, int64(gen.Elapsed))
	return errors.Wrapf(err, "save generation %d of run %s", gen.Index, gen.RunID)
}

func (s *SQLiteStore) Generations(ctx context.Context, runID string) ([]Generation, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT idx, genomes, best_fitness, champion_fitness, species, elapsed_ns
		FROM generations WHERE run_id = ? ORDER BY idx
	`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "query generations of run %s", runID)
	}
	defer rows.Close()

	var out []Generation
	for rows.Next() {
		gen := Generation{RunID: runID}
		var elapsed int64
		if err := rows.Scan(&gen.Index, &gen.Genomes, &gen.BestFitness,
			&gen.ChampionFitness, &gen.Species, &elapsed); err != nil {
			return nil, errors.Wrap(err, "scan generation")
		}
		gen.Elapsed = time.Duration(elapsed)
		out = append(out, gen)
	}
	return out, errors.Wrap(rows.Err(), "iterate generations")
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			completed_at INTEGER NOT NULL,
			generations INTEGER NOT NULL,
			training_size INTEGER NOT NULL,
			test_size INTEGER NOT NULL,
			champion_fitness REAL NOT NULL,
			test_fitness REAL NOT NULL,
			test_winners INTEGER NOT NULL,
			test_losers INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL,
			idx INTEGER NOT NULL,
			genomes INTEGER NOT NULL,
			best_fitness REAL NOT NULL,
			champion_fitness REAL NOT NULL,
			species INTEGER NOT NULL,
			elapsed_ns INTEGER NOT NULL,
			PRIMARY KEY (run_id, idx)
		);
	`)
	return err
}
