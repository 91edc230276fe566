package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"SmartRental/internal/model"
)

// SQLiteRecorder persists evaluations to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrap(err, "create database directory")
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, eris.Wrap(err, "open sqlite")
	}

	// WAL lets the API read history while the watcher writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "set WAL mode")
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "migrate")
	}

	zap.L().Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS evaluations (
			id              TEXT PRIMARY KEY,
			timestamp       INTEGER NOT NULL,
			name            TEXT,
			nightly_price   REAL,
			price_source    TEXT,
			oracle          TEXT,
			occupancy       REAL,
			cost_ratio      REAL,
			horizon         INTEGER,
			target_rate     REAL,
			terminal_mode   TEXT,
			terminal_value  REAL,
			initial_outlay  REAL,
			admin_cost      REAL,
			cash_flows      TEXT,
			irr             REAL,
			iterations      INTEGER,
			npv_at_target   REAL,
			failure_kind    TEXT,
			failure_message TEXT,
			verdict         TEXT,
			rating          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_ts ON evaluations(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_name ON evaluations(name)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return eris.Wrapf(err, "exec %q", s[:40])
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordEvaluation(ctx context.Context, ev *model.Evaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	flows, err := json.Marshal(ev.CashFlows)
	if err != nil {
		return eris.Wrap(err, "encode cash flows")
	}
	terminal := ev.Assumptions.Terminal.Resolve(ev.Costs)

	_, err = r.db.ExecContext(ctx, `INSERT INTO evaluations
		(id, timestamp, name, nightly_price, price_source, oracle,
		 occupancy, cost_ratio, horizon, target_rate, terminal_mode, terminal_value,
		 initial_outlay, admin_cost, cash_flows, irr, iterations, npv_at_target,
		 failure_kind, failure_message, verdict, rating)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		ev.ID, ev.EvaluatedAt.Unix(), ev.Name, ev.NightlyPrice, string(ev.PriceSource), ev.OracleName,
		ev.Assumptions.OccupancyRatio, ev.Assumptions.OperatingCostRatio, ev.Assumptions.HorizonYears,
		ev.Assumptions.TargetRate, string(terminal.Mode), terminal.Value,
		ev.Costs.InitialOutlay(), ev.Costs.AnnualAdminCost, string(flows),
		nullFloat(ev.IRR), ev.Iterations, nullFloat(ev.NPVAtTarget),
		ev.FailureKind, ev.FailureMessage, string(ev.Verdict), ev.Rating,
	)
	if err != nil {
		return eris.Wrap(err, "insert evaluation")
	}
	return nil
}

// Recent returns up to limit evaluations, newest first.
func (r *SQLiteRecorder) Recent(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, timestamp, name, nightly_price, price_source,
		terminal_mode, cash_flows, irr, failure_kind, verdict
		FROM evaluations ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "query evaluations")
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			s       Summary
			ts      int64
			flows   string
			irr     sql.NullFloat64
			verdict string
		)
		if err := rows.Scan(&s.ID, &ts, &s.Name, &s.NightlyPrice, &s.PriceSource,
			&s.TerminalMode, &flows, &irr, &s.FailureKind, &verdict); err != nil {
			return nil, eris.Wrap(err, "scan evaluation")
		}
		s.EvaluatedAt = time.Unix(ts, 0)
		s.Verdict = model.Verdict(verdict)
		if irr.Valid {
			v := irr.Float64
			s.IRR = &v
		}
		if err := json.Unmarshal([]byte(flows), &s.CashFlows); err != nil {
			return nil, eris.Wrap(err, "decode cash flows")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate evaluations")
	}
	return out, nil
}

func (r *SQLiteRecorder) Close() error {
	zap.L().Info("closing sqlite recorder")
	return r.db.Close()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
