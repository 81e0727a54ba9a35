package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

// Migrations exposes the table registry as versioned goose migrations so that
// operators can manage the schema out of band with cmd/migrate. InitSchema and
// migration 1 produce the same catalog.
func Migrations() []*goose.Migration {
	return []*goose.Migration{
		goose.NewGoMigration(1,
			&goose.GoFunc{RunTx: createTables},
			&goose.GoFunc{RunTx: dropTables},
		),
	}
}

// NewMigrator returns a goose provider over db that knows Migrations.
func NewMigrator(db *sql.DB) (*goose.Provider, error) {
	p, err := goose.NewProvider(goose.DialectPostgres, db, nil, goose.WithGoMigrations(Migrations()...))
	if err != nil {
		return nil, fmt.Errorf("init migrator: %w", err)
	}
	return p, nil
}

func createTables(ctx context.Context, tx *sql.Tx) error {
	for _, stmt := range SchemaStatements() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func dropTables(ctx context.Context, tx *sql.Tx) error {
	tables := Tables()
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, tables[i].DropStatement()); err != nil {
			return fmt.Errorf("drop %s: %w", tables[i].Name, err)
		}
	}
	return nil
}
