package mysql

import (
	"context"
	"database/sql"
	"errors"

	"realestate_proxy/internal/domain"
)

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type Repo struct{ db *sql.DB }

var _ domain.SnapshotRepository = (*Repo)(nil)

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) SaveSnapshot(ctx context.Context, s domain.Snapshot) error {
	_, err := r.db.ExecContext(ctx, insertSnapshotSQL,
		s.ID,
		s.CenterLat,
		s.CenterLon,
		s.Radius,
		valStr(s.RealEstateType),
		valStr(s.PriceType),
		s.Source,
		s.Summary.Complexes,
		s.Summary.ComplexDetails,
		s.Summary.Articles,
		s.Summary.RoadPlans,
		s.Summary.RailPlans,
		s.Summary.JiguPlans,
		s.Body,
		s.CreatedAt.UTC(),
	)
	return err
}

func (r *Repo) GetSnapshot(ctx context.Context, id string) (domain.Snapshot, error) {
	row := r.db.QueryRowContext(ctx, getSnapshotSQL, id)

	var body []byte
	s, err := scanSnapshot(row, &body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Snapshot{}, domain.ErrNotFound
		}
		return domain.Snapshot{}, err
	}
	s.Body = body
	return s, nil
}

func (r *Repo) ListSnapshots(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, listSnapshotsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanSnapshot reads snapshotColumns in order, followed by any extra destinations.
func scanSnapshot(sc scanner, extra ...any) (domain.Snapshot, error) {
	var s domain.Snapshot
	var estateType, priceType sql.NullString
	dest := []any{
		&s.ID,
		&s.CenterLat,
		&s.CenterLon,
		&s.Radius,
		&estateType,
		&priceType,
		&s.Source,
		&s.Summary.Complexes,
		&s.Summary.ComplexDetails,
		&s.Summary.Articles,
		&s.Summary.RoadPlans,
		&s.Summary.RailPlans,
		&s.Summary.JiguPlans,
		&s.CreatedAt, // requires parseTime=true in the DSN
	}
	if err := sc.Scan(append(dest, extra...)...); err != nil {
		return domain.Snapshot{}, err
	}
	s.RealEstateType = estateType.String
	s.PriceType = priceType.String
	return s, nil
}
