package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/clientadmin/internal/common"
	"github.com/dmitrijs2005/clientadmin/internal/dbx"
	"github.com/dmitrijs2005/clientadmin/internal/server/blobstore/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Dialect describes a database/sql driver the SQL backend can run on.
type Dialect struct {
	Driver       string
	GooseDialect string
	Placeholder  dbx.Placeholder
}

var (
	SQLite   = Dialect{Driver: "sqlite", GooseDialect: "sqlite3", Placeholder: dbx.Question}
	Postgres = Dialect{Driver: "pgx", GooseDialect: "postgres", Placeholder: dbx.Dollar}
)

// SQLStore keeps each object as one row of the blobs table. Revisions are a
// per-row counter.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLStore opens dsn with the dialect's driver and migrates the schema.
func OpenSQLStore(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Driver, err)
	}

	if err := RunMigrations(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return NewSQLStore(db, dialect), nil
}

// NewSQLStore wraps an already migrated database.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func RunMigrations(ctx context.Context, db *sql.DB, dialect Dialect) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect(dialect.GooseDialect); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) q(query string) string {
	return dbx.Rebind(s.dialect.Placeholder, query)
}

func (s *SQLStore) Get(ctx context.Context, bucket, key string) (*Object, error) {
	var body string
	var revision int64

	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT body, revision FROM blobs WHERE bucket = ? AND object_key = ?`),
		bucket, key,
	).Scan(&body, &revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blob %s/%s: %w", bucket, key, err)
	}

	return &Object{Body: []byte(body), Revision: strconv.FormatInt(revision, 10)}, nil
}

func (s *SQLStore) Put(ctx context.Context, bucket, key string, body []byte, ifMatch string) (string, error) {
	var revision int64

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if ifMatch == "" {
			_, err := tx.ExecContext(ctx, s.q(`
				INSERT INTO blobs (bucket, object_key, body, revision) VALUES (?, ?, ?, 1)
				ON CONFLICT (bucket, object_key) DO UPDATE SET body = excluded.body, revision = blobs.revision + 1
			`), bucket, key, string(body))
			if err != nil {
				return fmt.Errorf("failed to put blob %s/%s: %w", bucket, key, err)
			}
		} else {
			expected, err := strconv.ParseInt(ifMatch, 10, 64)
			if err != nil {
				return fmt.Errorf("%s/%s: revision %q: %w", bucket, key, ifMatch, common.ErrVersionConflict)
			}

			res, err := tx.ExecContext(ctx, s.q(`
				UPDATE blobs SET body = ?, revision = revision + 1
				WHERE bucket = ? AND object_key = ? AND revision = ?
			`), string(body), bucket, key, expected)
			if err != nil {
				return fmt.Errorf("failed to put blob %s/%s: %w", bucket, key, err)
			}

			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to put blob %s/%s: %w", bucket, key, err)
			}
			if n == 0 {
				return fmt.Errorf("%s/%s: %w", bucket, key, common.ErrVersionConflict)
			}
		}

		return tx.QueryRowContext(ctx,
			s.q(`SELECT revision FROM blobs WHERE bucket = ? AND object_key = ?`),
			bucket, key,
		).Scan(&revision)
	})
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(revision, 10), nil
}
