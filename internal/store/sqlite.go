package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/phenotype-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	status        TEXT NOT NULL,
	note_count    INTEGER NOT NULL,
	patient_count INTEGER NOT NULL,
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS note_records (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	note_id    TEXT NOT NULL,
	patient_id TEXT,
	seq        INTEGER NOT NULL,
	record     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS evidence (
	id     TEXT PRIMARY KEY,
	run_id TEXT NOT NULL REFERENCES runs(id),
	row    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS patient_records (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	patient_id TEXT NOT NULL,
	record     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_note_records_run_id ON note_records(run_id);
CREATE INDEX IF NOT EXISTS idx_evidence_run_id ON evidence(run_id);
CREATE INDEX IF NOT EXISTS idx_patient_records_run_id ON patient_records(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, result *model.RunResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, status, note_count, patient_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		result.RunID, string(model.RunStatusCompleted), len(result.Notes), len(result.Patients), result.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert run")
	}

	for _, rec := range result.Notes {
		data, err := json.Marshal(rec)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal note record")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO note_records (id, run_id, note_id, patient_id, seq, record) VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), result.RunID, rec.NoteID, rec.PatientID, rec.Seq, string(data),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert note record %s", rec.NoteID)
		}
	}

	for _, e := range result.Evidence {
		data, err := json.Marshal(e)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal evidence")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO evidence (id, run_id, row) VALUES (?, ?, ?)`,
			uuid.New().String(), result.RunID, string(data),
		)
		if err != nil {
			return eris.Wrap(err, "sqlite: insert evidence")
		}
	}

	for _, p := range result.Patients {
		data, err := json.Marshal(p)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal patient record")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO patient_records (id, run_id, patient_id, record) VALUES (?, ?, ?, ?)`,
			uuid.New().String(), result.RunID, p.PatientID, string(data),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert patient record %s", p.PatientID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit run")
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, note_count, patient_count, created_at FROM runs ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var out []model.RunSummary
	for rows.Next() {
		var r model.RunSummary
		if err := rows.Scan(&r.ID, &r.Status, &r.NoteCount, &r.PatientCount, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) GetPatients(ctx context.Context, runID string) ([]model.PatientRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM patient_records WHERE run_id = ? ORDER BY patient_id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get patients %s", runID)
	}
	defer rows.Close()

	var out []model.PatientRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan patient record")
		}
		var p model.PatientRecord
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal patient record")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate patients")
}

// GetEvidence reconstructs evidence rows through the versioned decoder, so
// rows persisted under the legacy "entity" key still load and malformed
// rows are dropped with a logged warning.
func (s *SQLiteStore) GetEvidence(ctx context.Context, runID string) ([]model.Evidence, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row FROM evidence WHERE run_id = ?`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get evidence %s", runID)
	}
	defer rows.Close()

	var out []model.Evidence
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan evidence")
		}
		var raw map[string]any
		if err := json.Unmarshal([]byte(data), &raw); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal evidence")
		}
		if e, ok := model.DecodeEvidence(raw); ok {
			out = append(out, e)
		}
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate evidence")
}
