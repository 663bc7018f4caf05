package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"vitalstats/verity/pkg/config"
	"vitalstats/verity/pkg/table"
)

// SQLite implements Writer backed by a SQLite snapshot file. Snapshots are
// written once by the load command and then read concurrently by extraction
// workers, so the database runs in WAL mode.
type SQLite struct {
	db *sql.DB

	getStmt   *sql.Stmt
	putStmt   *sql.Stmt
	pathStmt  *sql.Stmt
	yearsStmt *sql.Stmt
}

// OpenSQLite opens (or creates) a warehouse snapshot at the configured path.
func OpenSQLite(cfg config.WarehouseConfig) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("warehouse path cannot be empty")
	}
	busy := cfg.BusyTimeout
	if busy == 0 {
		busy = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(busy.Milliseconds()))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening warehouse: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 1
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 || maxIdle > maxOpen {
		maxIdle = maxOpen
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(0)

	w := &SQLite{db: db}
	if err := w.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing warehouse schema: %w", err)
	}
	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing warehouse statements: %w", err)
	}
	return w, nil
}

func (w *SQLite) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS datasets (
		entity_kind TEXT NOT NULL,
		entity_id   INTEGER NOT NULL,
		measure     TEXT NOT NULL,
		location_id INTEGER NOT NULL,
		header      TEXT NOT NULL,
		floats      BLOB NOT NULL,
		stored_at   INTEGER NOT NULL,
		PRIMARY KEY (entity_kind, entity_id, measure, location_id)
	);

	CREATE TABLE IF NOT EXISTS estimation_years (
		year_id INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS location_paths (
		location_id INTEGER NOT NULL,
		position    INTEGER NOT NULL,
		ancestor_id INTEGER NOT NULL,
		PRIMARY KEY (location_id, position)
	);
	`
	_, err := w.db.Exec(schema)
	return err
}

func (w *SQLite) prepareStatements() error {
	var err error

	w.getStmt, err = w.db.Prepare(`
		SELECT header, floats FROM datasets
		WHERE entity_kind = ? AND entity_id = ? AND measure = ? AND location_id = ?
	`)
	if err != nil {
		return fmt.Errorf("get statement: %w", err)
	}

	w.putStmt, err = w.db.Prepare(`
		INSERT INTO datasets (entity_kind, entity_id, measure, location_id, header, floats, stored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (entity_kind, entity_id, measure, location_id) DO UPDATE SET
			header = excluded.header,
			floats = excluded.floats,
			stored_at = excluded.stored_at
	`)
	if err != nil {
		return fmt.Errorf("put statement: %w", err)
	}

	w.pathStmt, err = w.db.Prepare(`
		SELECT ancestor_id FROM location_paths
		WHERE location_id = ?
		ORDER BY position
	`)
	if err != nil {
		return fmt.Errorf("path statement: %w", err)
	}

	w.yearsStmt, err = w.db.Prepare(`
		SELECT year_id FROM estimation_years ORDER BY year_id
	`)
	if err != nil {
		return fmt.Errorf("years statement: %w", err)
	}

	return nil
}

// DrawTable implements Client.
func (w *SQLite) DrawTable(ctx context.Context, q Query) (*table.Table, error) {
	var header string
	var blob []byte
	err := w.getStmt.QueryRowContext(ctx, string(q.EntityKind), q.EntityID, string(q.Measure), q.LocationID).
		Scan(&header, &blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, q)
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q, err)
	}
	t, err := decodeTable([]byte(header), blob)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", q, err)
	}
	return t, nil
}

// EstimationYears implements Client.
func (w *SQLite) EstimationYears(ctx context.Context) ([]int, error) {
	rows, err := w.yearsStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying estimation years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// PathToTop implements Client.
func (w *SQLite) PathToTop(ctx context.Context, locationID int) ([]int, error) {
	rows, err := w.pathStmt.QueryContext(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("querying location path: %w", err)
	}
	defer rows.Close()

	var path []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		path = append(path, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: location path for %d", ErrNotFound, locationID)
	}
	return path, nil
}

// StoreDrawTable implements Writer.
func (w *SQLite) StoreDrawTable(ctx context.Context, q Query, t *table.Table) error {
	header, blob, err := encodeTable(t)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", q, err)
	}
	_, err = w.putStmt.ExecContext(ctx,
		string(q.EntityKind), q.EntityID, string(q.Measure), q.LocationID,
		string(header), blob, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("storing %s: %w", q, err)
	}
	return nil
}

// StoreEstimationYears implements Writer.
func (w *SQLite) StoreEstimationYears(ctx context.Context, years []int) error {
	sorted := append([]int(nil), years...)
	sort.Ints(sorted)

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM estimation_years`); err != nil {
		return err
	}
	for _, y := range sorted {
		if _, err := tx.ExecContext(ctx, `INSERT INTO estimation_years (year_id) VALUES (?)`, y); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// StoreLocationPath implements Writer.
func (w *SQLite) StoreLocationPath(ctx context.Context, locationID int, path []int) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM location_paths WHERE location_id = ?`, locationID); err != nil {
		return err
	}
	for i, ancestor := range path {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO location_paths (location_id, position, ancestor_id) VALUES (?, ?, ?)`,
			locationID, i, ancestor); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close implements Client.
func (w *SQLite) Close() error {
	for _, stmt := range []*sql.Stmt{w.getStmt, w.putStmt, w.pathStmt, w.yearsStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return w.db.Close()
}
