// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package energy

import (
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/cartelec/cartelec/utils/textutils"
)

// SiteRepository handles persistence of plotted sites.
type SiteRepository interface {
	SiteSource

	// CreateSchema creates the sites table
	CreateSchema() error

	// BulkInsertSites inserts a slice of sites into the database
	BulkInsertSites(sites []*PlottedSite) error

	// ReplaceSites deletes every site and inserts sites in a single
	// transaction, calling progress with the number of sites inserted so far
	ReplaceSites(sites []*PlottedSite, progress func(n int)) error

	// ListSites returns all sites sorted by category and id, optionally
	// filtered by category
	ListSites(category *Category) ([]*PlottedSite, error)

	// CountSites returns the number of sites per category
	CountSites() (map[Category]int, error)
}

type sqlSiteRepository struct {
	db *sql.DB
}

// NewSiteRepository creates a new site repository.
func NewSiteRepository(db *sql.DB) SiteRepository {
	return &sqlSiteRepository{db: db}
}

func (r *sqlSiteRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS sites (
			category VARCHAR NOT NULL,
			id VARCHAR NOT NULL,
			name VARCHAR,
			operator VARCHAR,
			commune_code VARCHAR,
			raw_power VARCHAR,
			raw_lat VARCHAR,
			raw_lng VARCHAR,
			point STRUCT(x DOUBLE, y DOUBLE) NOT NULL,
			power DOUBLE,
			radius DOUBLE,
			position_method VARCHAR NOT NULL,
			h3_res1 BIGINT,
			h3_res2 BIGINT,
			h3_res3 BIGINT,
			h3_res4 BIGINT,
			h3_res5 BIGINT,
			h3_res6 BIGINT,
			h3_res7 BIGINT,
			h3_res8 BIGINT,
			PRIMARY KEY (category, id)
		);
	`)

	return err
}

func (r *sqlSiteRepository) BulkInsertSites(sites []*PlottedSite) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	if err := insertSites(tx, sites, nil); err != nil {
		return errors.Join(err, tx.Rollback())
	}

	return tx.Commit()
}

func (r *sqlSiteRepository) ReplaceSites(sites []*PlottedSite, progress func(n int)) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM sites`); err != nil {
		return errors.Join(fmt.Errorf("clearing sites: %w", err), tx.Rollback())
	}

	if err := insertSites(tx, sites, progress); err != nil {
		return errors.Join(err, tx.Rollback())
	}

	return tx.Commit()
}

// Sites between two progress reports.
const progressStep = 500

func insertSites(tx *sql.Tx, sites []*PlottedSite, progress func(n int)) error {
	stmt, err := tx.Prepare(`
		INSERT INTO sites(
			category,
			id,
			name,
			operator,
			commune_code,
			raw_power,
			raw_lat,
			raw_lng,
			point,
			power,
			radius,
			position_method,
			h3_res1,
			h3_res2,
			h3_res3,
			h3_res4,
			h3_res5,
			h3_res6,
			h3_res7,
			h3_res8
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, struct_pack(x := ?, y := ?), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, s := range sites {
		if len(s.H3Cells) == 0 {
			if err := s.computeH3(); err != nil {
				return err
			}
		}

		rawPower, _ := textutils.AnyToString(s.RawPower)

		args := []any{
			string(s.Category),
			s.ID,
			s.Name,
			s.Operator,
			s.CommuneCode,
			rawPower,
			s.RawLat,
			s.RawLng,
			s.Point.Lng,
			s.Point.Lat,
			nullableFloat(s.Power),
			nullableFloat(s.Radius),
			s.PositionMethod,
		}
		for _, cell := range s.H3Cells {
			args = append(args, cell)
		}

		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting %s site %s: %w", s.Category, s.ID, err)
		}

		if progress != nil && ((i+1)%progressStep == 0 || i+1 == len(sites)) {
			progress(i + 1)
		}
	}

	return nil
}

// NaN power values are stored as NULL, they are not plottable anyway.
func nullableFloat(f float64) sql.NullFloat64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullFloat64{}
	}

	return sql.NullFloat64{Float64: f, Valid: true}
}

func (r *sqlSiteRepository) ListSites(category *Category) ([]*PlottedSite, error) {
	query := `
		SELECT
			category, id, name, operator, commune_code, raw_power, raw_lat, raw_lng,
			point, power, radius, position_method,
			h3_res1, h3_res2, h3_res3, h3_res4, h3_res5, h3_res6, h3_res7, h3_res8
		FROM sites
	`

	var args []any

	if category != nil {
		query += " WHERE category = ?"

		args = append(args, string(*category))
	}

	query += " ORDER BY category, id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []*PlottedSite

	for rows.Next() {
		var s PlottedSite

		var category string

		var name, operator, commune, rawPower, rawLat, rawLng sql.NullString

		var power, radius sql.NullFloat64

		var r1, r2, r3, r4, r5, r6, r7, r8 int64

		if err := rows.Scan(
			&category, &s.ID, &name, &operator, &commune, &rawPower, &rawLat, &rawLng,
			&s.Point, &power, &radius, &s.PositionMethod,
			&r1, &r2, &r3, &r4, &r5, &r6, &r7, &r8,
		); err != nil {
			return nil, err
		}

		s.Category = Category(category)
		s.Name = name.String
		s.Operator = operator.String
		s.CommuneCode = commune.String
		s.RawLat = rawLat.String
		s.RawLng = rawLng.String
		s.H3Cells = []int64{r1, r2, r3, r4, r5, r6, r7, r8}

		if rawPower.Valid && rawPower.String != "" {
			s.RawPower = rawPower.String
		}

		s.Power = math.NaN()
		if power.Valid {
			s.Power = power.Float64
		}

		s.Radius = math.NaN()
		if radius.Valid {
			s.Radius = radius.Float64
		}

		sites = append(sites, &s)
	}

	return sites, rows.Err()
}

// Sites implements SiteSource.
func (r *sqlSiteRepository) Sites(category Category) ([]*PlottedSite, error) {
	return r.ListSites(&category)
}

func (r *sqlSiteRepository) CountSites() (map[Category]int, error) {
	rows, err := r.db.Query(`SELECT category, COUNT(*) FROM sites GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Category]int)

	for rows.Next() {
		var (
			category string
			count    int
		)

		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}

		counts[Category(category)] = count
	}

	return counts, rows.Err()
}

// AggregateCells implements SiteSource with a GROUP BY over the stored cells.
func (r *sqlSiteRepository) AggregateCells(category Category, res int) ([]CellAggregate, error) {
	if res < MinH3Resolution || res > MaxH3Resolution {
		return nil, fmt.Errorf("h3 resolution %d out of range [%d, %d]", res, MinH3Resolution, MaxH3Resolution)
	}

	// The column name cannot be a parameter; res has been range checked.
	column := fmt.Sprintf("h3_res%d", res)

	rows, err := r.db.Query(`
		SELECT `+column+`, COUNT(*), SUM(power)
		FROM sites
		WHERE category = ?
			AND power IS NOT NULL
			AND radius IS NOT NULL
		GROUP BY `+column, string(category))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ret []CellAggregate

	for rows.Next() {
		var (
			cell  int64
			count int
			power float64
		)

		if err := rows.Scan(&cell, &count, &power); err != nil {
			return nil, err
		}

		agg := CellAggregate{Res: res, Count: count, Power: power}
		if err := fillCell(&agg, cell); err != nil {
			return nil, err
		}

		ret = append(ret, agg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortAggregates(ret)

	return ret, nil
}
