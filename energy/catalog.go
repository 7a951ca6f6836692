// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package energy

import (
	"fmt"
	"sort"

	"github.com/cartelec/cartelec/spatial"
	"github.com/uber/h3-go/v4"
)

// CellAggregate sums the sites of one category falling in an H3 cell.
type CellAggregate struct {
	Cell   string        `json:"cell"`
	Res    int           `json:"res"`
	Center spatial.Point `json:"center"`
	Count  int           `json:"count"`
	Power  float64       `json:"power"`
}

// SiteSource gives access to plotted sites, whether they were resolved in
// memory or loaded from the database.
type SiteSource interface {
	Sites(category Category) ([]*PlottedSite, error)
	AggregateCells(category Category, res int) ([]CellAggregate, error)
}

// Catalog holds the resolved sites of every category. It is built once per
// set of registries and never modified afterwards.
type Catalog struct {
	sites   map[Category][]*PlottedSite
	metrics map[Category]ResolveMetrics
}

// NewCatalog resolves the given registries.
func NewCatalog(resolver *Resolver, registries map[Category][]Site) *Catalog {
	c := &Catalog{
		sites:   make(map[Category][]*PlottedSite, len(registries)),
		metrics: make(map[Category]ResolveMetrics, len(registries)),
	}

	for category, sites := range registries {
		plotted, metrics := resolver.Resolve(sites)
		c.sites[category] = plotted
		c.metrics[category] = metrics
	}

	return c
}

// Sites returns the resolved sites of a category, plottable or not.
func (c *Catalog) Sites(category Category) ([]*PlottedSite, error) {
	return c.sites[category], nil
}

// Metrics returns the resolution metrics of a category.
func (c *Catalog) Metrics(category Category) ResolveMetrics {
	return c.metrics[category]
}

// All returns every resolved site, in category order.
func (c *Catalog) All() []*PlottedSite {
	var ret []*PlottedSite
	for _, category := range Categories {
		ret = append(ret, c.sites[category]...)
	}

	return ret
}

// AggregateCells groups the plottable sites of a category by H3 cell.
func (c *Catalog) AggregateCells(category Category, res int) ([]CellAggregate, error) {
	return AggregateCells(c.sites[category], res)
}

// AggregateCells groups plottable sites by H3 cell at the given resolution,
// largest cells first. Sites of unknown power are counted but add no power.
func AggregateCells(sites []*PlottedSite, res int) ([]CellAggregate, error) {
	byCell := make(map[int64]*CellAggregate)

	for _, s := range Plottable(sites) {
		cell, err := s.H3Cell(res)
		if err != nil {
			return nil, err
		}

		agg, ok := byCell[cell]
		if !ok {
			agg = &CellAggregate{Res: res}
			byCell[cell] = agg
		}

		agg.Count++
		if isFinite(s.Power) {
			agg.Power += s.Power
		}
	}

	ret := make([]CellAggregate, 0, len(byCell))

	for cell, agg := range byCell {
		if err := fillCell(agg, cell); err != nil {
			return nil, err
		}

		ret = append(ret, *agg)
	}

	sortAggregates(ret)

	return ret, nil
}

func fillCell(agg *CellAggregate, cell int64) error {
	c := h3.Cell(cell)

	center, err := h3.CellToLatLng(c)
	if err != nil {
		return fmt.Errorf("h3 cell %x center: %w", cell, err)
	}

	agg.Cell = c.String()
	agg.Center = spatial.Point{Lat: center.Lat, Lng: center.Lng}

	return nil
}

func sortAggregates(aggs []CellAggregate) {
	sort.Slice(aggs, func(i, j int) bool {
		if aggs[i].Count != aggs[j].Count {
			return aggs[i].Count > aggs[j].Count
		}

		return aggs[i].Cell < aggs[j].Cell
	})
}
