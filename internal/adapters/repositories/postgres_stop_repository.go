package repositories

import (
	"context"
	"database/sql"
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/platform/obs"
	"errors"
	"fmt"
)

// Postgres-backed implementation of the StopRepository port.
type PostgresStopRepository struct{ DB *sql.DB }

func NewPostgresStopRepository(db *sql.DB) *PostgresStopRepository {
	return &PostgresStopRepository{DB: db}
}

// Return all stops ordered by id.
func (p *PostgresStopRepository) ListStops(ctx context.Context) (_ []domain.Stop, err error) {
	defer obs.Time(ctx, "stops.List")(&err)

	if p.DB == nil {
		return nil, errors.New("postgres stop repository: DB is nil")
	}

	query := `
	SELECT stop_id, address, lat, lon, window_start, window_end, delivered
	FROM stops
	ORDER BY stop_id;
	`
	rows, err := p.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list stops: query stops table: %w", err)
	}
	defer rows.Close()

	stops := make([]domain.Stop, 0, 64)
	for rows.Next() {
		var s domain.Stop
		var start, end sql.NullInt64
		if err := rows.Scan(&s.ID, &s.Address, &s.Location.Lat, &s.Location.Lon, &start, &end, &s.Delivered); err != nil {
			return nil, fmt.Errorf("list stops: scan row: %w", err)
		}
		s.Window = domain.TimeWindow{
			Start:    int(start.Int64),
			End:      int(end.Int64),
			HasStart: start.Valid,
			HasEnd:   end.Valid,
		}
		stops = append(stops, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stops: row iteration: %w", err)
	}

	return stops, nil
}

// Replace the stored stop set in one transaction.
func (p *PostgresStopRepository) ReplaceStops(ctx context.Context, stops []domain.Stop) (err error) {
	defer obs.Time(ctx, "stops.Replace")(&err)

	if p.DB == nil {
		return errors.New("postgres stop repository: DB is nil")
	}

	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace stops: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stops;`); err != nil {
		return fmt.Errorf("replace stops: clear table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO stops (stop_id, address, lat, lon, window_start, window_end, delivered)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
	`)
	if err != nil {
		return fmt.Errorf("replace stops: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range stops {
		start := sql.NullInt64{Int64: int64(s.Window.Start), Valid: s.Window.HasStart}
		end := sql.NullInt64{Int64: int64(s.Window.End), Valid: s.Window.HasEnd}
		if _, err := stmt.ExecContext(ctx, s.ID, s.Address, s.Location.Lat, s.Location.Lon, start, end, s.Delivered); err != nil {
			return fmt.Errorf("replace stops: insert stop_id=%d: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace stops: commit tx: %w", err)
	}

	return nil
}

// Persist the delivered flag for one stop.
func (p *PostgresStopRepository) MarkDelivered(ctx context.Context, id int) (err error) {
	defer obs.Time(ctx, "stops.MarkDelivered")(&err)

	if p.DB == nil {
		return errors.New("postgres stop repository: DB is nil")
	}

	res, err := p.DB.ExecContext(ctx, `UPDATE stops SET delivered = TRUE WHERE stop_id = $1;`, id)
	if err != nil {
		return fmt.Errorf("mark delivered %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark delivered %d: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("mark delivered %d: %w", id, domain.ErrStopNotFound)
	}

	return nil
}
