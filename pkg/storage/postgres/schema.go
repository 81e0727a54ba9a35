package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// schemaLockKey serializes concurrent InitSchema calls across replicas.
const schemaLockKey int64 = 0x746f646f

// Column describes one table column. Constraints are enforced by Postgres.
type Column struct {
	Name       string
	Type       string
	PrimaryKey bool
	NotNull    bool
	Default    string
	References *ForeignKey
}

// ForeignKey links a column to the primary key of another table.
type ForeignKey struct {
	Table  string
	Column string
}

type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Table is the relational mapping of one entity.
type Table struct {
	Name    string
	Columns []Column
	Indexes []Index
}

// Tables returns every table of the service in creation order: referenced
// tables come before the tables that point at them.
func Tables() []Table {
	return []Table{usersTable, tasksTable}
}

var usersTable = Table{
	Name: "users",
	Columns: []Column{
		{Name: "id", Type: "VARCHAR(36)", PrimaryKey: true},
		{Name: "email", Type: "VARCHAR(255)", NotNull: true},
		{Name: "name", Type: "VARCHAR(200)", NotNull: true},
		{Name: "hashed_password", Type: "VARCHAR(255)", NotNull: true},
		{Name: "created_at", Type: "TIMESTAMPTZ", NotNull: true, Default: "now()"},
	},
	Indexes: []Index{
		{Name: "ix_users_email", Columns: []string{"email"}, Unique: true},
	},
}

var tasksTable = Table{
	Name: "tasks",
	Columns: []Column{
		{Name: "id", Type: "SERIAL", PrimaryKey: true},
		{Name: "user_id", Type: "VARCHAR(36)", NotNull: true, References: &ForeignKey{Table: "users", Column: "id"}},
		{Name: "title", Type: "VARCHAR(200)", NotNull: true},
		{Name: "description", Type: "TEXT"},
		{Name: "completed", Type: "BOOLEAN", NotNull: true, Default: "FALSE"},
		{Name: "created_at", Type: "TIMESTAMPTZ", NotNull: true, Default: "now()"},
		{Name: "updated_at", Type: "TIMESTAMPTZ", NotNull: true, Default: "now()"},
		{Name: "category", Type: "VARCHAR(50)"},
		{Name: "priority", Type: "VARCHAR(20)", Default: "'medium'"},
		{Name: "due_date", Type: "TIMESTAMPTZ"},
		{Name: "order", Type: "INTEGER", NotNull: true, Default: "0"},
	},
	Indexes: []Index{
		{Name: "ix_tasks_user_id", Columns: []string{"user_id"}},
	},
}

func quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func (c Column) definition() string {
	var b strings.Builder
	b.WriteString(quote(c.Name))
	b.WriteString(" ")
	b.WriteString(c.Type)
	if c.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
	} else if c.NotNull {
		b.WriteString(" NOT NULL")
	}
	if c.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(c.Default)
	}
	if c.References != nil {
		fmt.Fprintf(&b, " REFERENCES %s (%s)", quote(c.References.Table), quote(c.References.Column))
	}
	return b.String()
}

// CreateStatements renders idempotent DDL for the table and its indexes.
func (t Table) CreateStatements() []string {
	defs := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		defs = append(defs, c.definition())
	}
	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", quote(t.Name), strings.Join(defs, ",\n\t")),
	}
	for _, ix := range t.Indexes {
		cols := make([]string, 0, len(ix.Columns))
		for _, c := range ix.Columns {
			cols = append(cols, quote(c))
		}
		kind := "INDEX"
		if ix.Unique {
			kind = "UNIQUE INDEX"
		}
		stmts = append(stmts, fmt.Sprintf("CREATE %s IF NOT EXISTS %s ON %s (%s)",
			kind, quote(ix.Name), quote(t.Name), strings.Join(cols, ", ")))
	}
	return stmts
}

func (t Table) DropStatement() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", quote(t.Name))
}

// SchemaStatements is the full DDL for Tables, in order.
func SchemaStatements() []string {
	var stmts []string
	for _, t := range Tables() {
		stmts = append(stmts, t.CreateStatements()...)
	}
	return stmts
}

// InitSchema creates all tables and indexes that do not exist yet. It runs in
// a single session so a failure leaves the catalog untouched, and is safe to
// call on every startup.
func (db *DB) InitSchema(ctx context.Context) error {
	return db.WithSession(ctx, func(ctx context.Context, s Session) error {
		if _, err := s.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
			return fmt.Errorf("lock schema: %w", err)
		}
		for _, stmt := range SchemaStatements() {
			if _, err := s.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}
		}
		return nil
	})
}
