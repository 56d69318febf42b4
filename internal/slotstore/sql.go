package slotstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const slotTable = "curio_slots"

type sqlConfig struct {
	DSN string `json:"dsn"`
}

type dialect struct {
	driver    string
	bind      int
	createSQL string
}

var (
	sqliteDialect = dialect{
		driver: "sqlite",
		bind:   sqlx.QUESTION,
		createSQL: `CREATE TABLE IF NOT EXISTS ` + slotTable + ` (
	slot_key TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	mtime INTEGER NOT NULL
)`,
	}
	postgresDialect = dialect{
		driver: "postgres",
		bind:   sqlx.DOLLAR,
		createSQL: `CREATE TABLE IF NOT EXISTS ` + slotTable + ` (
	slot_key TEXT PRIMARY KEY,
	payload BYTEA NOT NULL,
	mtime BIGINT NOT NULL
)`,
	}
)

// gendry has no portable upsert builder; this form works on sqlite and postgres.
const upsertSQL = `INSERT INTO ` + slotTable + ` (slot_key, payload, mtime) VALUES (?, ?, ?)
ON CONFLICT (slot_key) DO UPDATE SET payload = excluded.payload, mtime = excluded.mtime`

type sqlSlot struct {
	db      *sqlx.DB
	dialect dialect
	now     func() time.Time
}

func init() {
	Register("sqlite", func(args interface{}) (Slot, error) {
		return createSQLSlot(sqliteDialect, args)
	})
	Register("postgres", func(args interface{}) (Slot, error) {
		return createSQLSlot(postgresDialect, args)
	})
}

func createSQLSlot(d dialect, args interface{}) (Slot, error) {
	cfg := &sqlConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%s store dsn is required", d.driver)
	}
	db, err := sqlx.Open(d.driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	slot, err := newSQLSlot(context.Background(), db, d)
	if err != nil {
		db.Close()
		return nil, err
	}
	return slot, nil
}

func newSQLSlot(ctx context.Context, db *sqlx.DB, d dialect) (*sqlSlot, error) {
	if _, err := db.ExecContext(ctx, d.createSQL); err != nil {
		return nil, fmt.Errorf("create slot table: %w", err)
	}
	return &sqlSlot{db: db, dialect: d, now: time.Now}, nil
}

func (s *sqlSlot) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	where := map[string]interface{}{"slot_key": key}
	sqlStr, args, err := builder.BuildSelect(slotTable, where, []string{"payload"})
	if err != nil {
		return nil, err
	}
	var payload []byte
	err = s.db.QueryRowxContext(ctx, sqlx.Rebind(s.dialect.bind, sqlStr), args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Put is a single upsert statement, so the stored value is replaced atomically.
func (s *sqlSlot) Put(ctx context.Context, key string, data []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, sqlx.Rebind(s.dialect.bind, upsertSQL), key, data, s.now().Unix())
	return err
}

func (s *sqlSlot) Close() error {
	return s.db.Close()
}
