package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/phenotype-cli/internal/model"
)

// PgxPool is the subset of pgxpool.Pool the store uses; pgxmock satisfies
// it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool PgxPool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	status        TEXT NOT NULL,
	note_count    INTEGER NOT NULL,
	patient_count INTEGER NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS note_records (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	note_id    TEXT NOT NULL,
	patient_id TEXT,
	seq        INTEGER NOT NULL,
	record     JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS evidence (
	id     TEXT PRIMARY KEY,
	run_id TEXT NOT NULL REFERENCES runs(id),
	row    JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS patient_records (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	patient_id TEXT NOT NULL,
	record     JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_note_records_run_id ON note_records(run_id);
CREATE INDEX IF NOT EXISTS idx_evidence_run_id ON evidence(run_id);
CREATE INDEX IF NOT EXISTS idx_patient_records_run_id ON patient_records(run_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, result *model.RunResult) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO runs (id, status, note_count, patient_count, created_at) VALUES ($1, $2, $3, $4, $5)`,
		result.RunID, string(model.RunStatusCompleted), len(result.Notes), len(result.Patients), result.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert run")
	}

	for _, rec := range result.Notes {
		data, err := json.Marshal(rec)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal note record")
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO note_records (id, run_id, note_id, patient_id, seq, record) VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New().String(), result.RunID, rec.NoteID, rec.PatientID, rec.Seq, data,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert note record %s", rec.NoteID)
		}
	}

	for _, e := range result.Evidence {
		data, err := json.Marshal(e)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal evidence")
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO evidence (id, run_id, row) VALUES ($1, $2, $3)`,
			uuid.New().String(), result.RunID, data,
		)
		if err != nil {
			return eris.Wrap(err, "postgres: insert evidence")
		}
	}

	for _, p := range result.Patients {
		data, err := json.Marshal(p)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal patient record")
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO patient_records (id, run_id, patient_id, record) VALUES ($1, $2, $3, $4)`,
			uuid.New().String(), result.RunID, p.PatientID, data,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert patient record %s", p.PatientID)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit run")
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, note_count, patient_count, created_at FROM runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var out []model.RunSummary
	for rows.Next() {
		var r model.RunSummary
		if err := rows.Scan(&r.ID, &r.Status, &r.NoteCount, &r.PatientCount, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

func (s *PostgresStore) GetPatients(ctx context.Context, runID string) ([]model.PatientRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT record FROM patient_records WHERE run_id = $1 ORDER BY patient_id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get patients %s", runID)
	}
	defer rows.Close()

	var out []model.PatientRecord
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan patient record")
		}
		var p model.PatientRecord
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal patient record")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate patients")
}

// GetEvidence reconstructs evidence rows through the versioned decoder;
// legacy "entity"-keyed rows load, rows with no field key are dropped.
func (s *PostgresStore) GetEvidence(ctx context.Context, runID string) ([]model.Evidence, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT row FROM evidence WHERE run_id = $1`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get evidence %s", runID)
	}
	defer rows.Close()

	var out []model.Evidence
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan evidence")
		}
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal evidence")
		}
		if e, ok := model.DecodeEvidence(raw); ok {
			out = append(out, e)
		}
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate evidence")
}
