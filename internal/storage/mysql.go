package storage

import (
	"context"
	"database/sql"
	"embed"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MySQLPersister stores documents in the kv_store table.
type MySQLPersister struct {
	db *sqlx.DB
}

// OpenMySQL validates the DSN and prepares the pool. It does not dial; the
// first query does.
func OpenMySQL(dsn string) (*MySQLPersister, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}
	return &MySQLPersister{db: db}, nil
}

var _ Persister = (*MySQLPersister)(nil)

func (p *MySQLPersister) Close() error {
	return p.db.Close()
}

// Migrate brings the schema up to date.
func (p *MySQLPersister) Migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "load migrations")
	}
	driver, err := migratemysql.WithInstance(p.db.DB, &migratemysql.Config{})
	if err != nil {
		return errors.Wrap(err, "migrate driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, "mysql", driver)
	if err != nil {
		return errors.Wrap(err, "migrate init")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "migrate up")
	}
	return nil
}

func (p *MySQLPersister) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := p.db.GetContext(ctx, &data, "SELECT `value` FROM kv_store WHERE `key` = ?", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "mysql load %s", key)
	}
	return data, nil
}

func (p *MySQLPersister) Save(ctx context.Context, key string, data []byte) error {
	_, err := p.db.ExecContext(ctx,
		"INSERT INTO kv_store (`key`, `value`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `value` = VALUES(`value`)",
		key, data)
	if err != nil {
		return errors.Wrapf(err, "mysql save %s", key)
	}
	return nil
}

func (p *MySQLPersister) Delete(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, "DELETE FROM kv_store WHERE `key` = ?", key); err != nil {
		return errors.Wrapf(err, "mysql delete %s", key)
	}
	return nil
}
