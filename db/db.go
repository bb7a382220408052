package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/EQAR/eqar-db/internal/workflow"
	"github.com/EQAR/eqar-db/models"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = models.ErrNotFound

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open connects to the database behind driver and dsn.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	conn, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot connect to %s database", driver)
	}
	if driver == DriverSQLite {
		// one writer at a time
		conn.SetMaxOpenConns(1)
	}
	return conn, nil
}

// Queries holds every statement of the registry. It runs either on the
// connection pool or inside a transaction.
type Queries struct {
	q sqlx.ExtContext
}

type Storage struct {
	db *sqlx.DB
	Queries
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db, Queries: Queries{q: db}}
}

func (s *Storage) DB() *sqlx.DB {
	return s.db
}

// InTx runs fn on a transaction and commits when it returns nil.
func (s *Storage) InTx(ctx context.Context, fn func(workflow.Repository) error) error {
	return s.withTx(ctx, func(q Queries) error {
		return fn(q)
	})
}

func (s *Storage) withTx(ctx context.Context, fn func(Queries) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	if err := fn(Queries{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.WithError(rbErr).Warn("transaction rollback failed")
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "commit transaction")
}

func (q Queries) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	err := sqlx.GetContext(ctx, q.q, dest, q.q.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (q Queries) selectAll(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, q.q, dest, q.q.Rebind(query), args...)
}

func (q Queries) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return q.q.ExecContext(ctx, q.q.Rebind(query), args...)
}

// execOne runs an UPDATE or DELETE that must hit exactly one row.
func (q Queries) execOne(ctx context.Context, query string, args ...interface{}) error {
	res, err := q.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
