package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type DBConfig struct {
	DSN          string `envconfig:"DSN" split_words:"true" required:"true"`
	MaxOpenConns int    `envconfig:"MAX_OPEN_CONNS" split_words:"true" default:"10"`
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, cfg DBConfig) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)

	db := bun.NewDB(sqldb, pgdialect.New())
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// InitSchema creates the tables this service owns. Uniqueness
// constraints (restaurant phone, order call sid, order/menu-item pair)
// come from the model tags; the core relies on them for correctness,
// not just hygiene.
func InitSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*Restaurant)(nil),
		(*Category)(nil),
		(*MenuItem)(nil),
		(*Order)(nil),
		(*OrderItem)(nil),
		(*ConversationEvent)(nil),
		(*Setting)(nil),
	}
	for _, m := range models {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}
	return nil
}
