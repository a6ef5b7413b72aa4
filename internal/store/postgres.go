package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	_ "github.com/jackc/pgx/v5/stdlib"

	"crewtime/internal/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

// Migrate applies the embedded schema files in name order. They are
// idempotent, so running on every start is safe.
func (p *Postgres) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		body, err := migrations.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := p.db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}
	return nil
}

func (p *Postgres) ListAssignments(ctx context.Context, crewID, date string) ([]model.Assignment, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, crew_id, work_date::text, start_minutes, end_minutes, starts_at_home_base, ends_at_home_base, address, label
        FROM assignments WHERE crew_id=$1 AND work_date=$2::date ORDER BY start_minutes, id`, crewID, date)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()
	out := []model.Assignment{}
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.CrewID, &a.Date, &a.StartMinutes, &a.EndMinutes, &a.StartsAtHomeBase, &a.EndsAtHomeBase, &a.Address, &a.Label); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *Postgres) GetCrew(ctx context.Context, crewID string) (model.Crew, error) {
	var c model.Crew
	err := p.db.QueryRowContext(ctx, `SELECT id, name, home_base FROM crews WHERE id=$1`, crewID).Scan(&c.ID, &c.Name, &c.HomeBase)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Crew{}, ErrNotFound
	}
	if err != nil {
		return model.Crew{}, fmt.Errorf("get crew: %w", err)
	}
	return c, nil
}
