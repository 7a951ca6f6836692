// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package energy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *Catalog {
	return NewCatalog(NewResolver(testCommunes, nil), map[Category][]Site{
		CategoryWind: {
			{ID: "w1", Category: CategoryWind, CommuneCode: "42218", RawPower: "1,5"},
			{ID: "w2", Category: CategoryWind, CommuneCode: "42218", RawPower: 2},
			{ID: "w3", Category: CategoryWind, CommuneCode: "01001", RawPower: "x"},
			{ID: "w4", Category: CategoryWind, CommuneCode: "01001", RawPower: 1},
			{ID: "lost", Category: CategoryWind, CommuneCode: "00000", RawPower: 1},
		},
		CategoryNuclear: {
			{ID: "n1", Category: CategoryNuclear, CommuneCode: "01001", RawPower: "2,6"},
		},
	})
}

func TestCatalogSitesAndMetrics(t *testing.T) {
	c := testCatalog()

	wind, err := c.Sites(CategoryWind)
	require.NoError(t, err)
	assert.Len(t, wind, 4)
	assert.Equal(t, ResolveMetrics{Total: 5, CommuneCentroid: 4, Unresolved: 1, InvalidPower: 1}, c.Metrics(CategoryWind))

	solar, err := c.Sites(CategorySolar)
	require.NoError(t, err)
	assert.Empty(t, solar)

	all := c.All()
	require.Len(t, all, 5)
	assert.Equal(t, CategoryWind, all[0].Category)
	assert.Equal(t, CategoryNuclear, all[4].Category)
}

func TestCatalogAggregateCells(t *testing.T) {
	c := testCatalog()

	aggs, err := c.AggregateCells(CategoryWind, 5)
	require.NoError(t, err)
	require.Len(t, aggs, 2)

	// Saint-Étienne holds two plottable sites, the NaN one is skipped.
	assert.Equal(t, 2, aggs[0].Count)
	assert.InDelta(t, 350, aggs[0].Power, 1e-9)
	assert.InDelta(t, testCommunes["42218"].Lat, aggs[0].Center.Lat, 0.2)
	assert.InDelta(t, testCommunes["42218"].Lng, aggs[0].Center.Lng, 0.2)
	assert.Equal(t, 5, aggs[0].Res)
	assert.NotEmpty(t, aggs[0].Cell)

	assert.Equal(t, 1, aggs[1].Count)
	assert.InDelta(t, 100, aggs[1].Power, 1e-9)

	_, err = c.AggregateCells(CategoryWind, 0)
	require.Error(t, err)
}

func TestAggregateCellsKeepsEveryPlottableSite(t *testing.T) {
	wind, _ := testCatalog().Sites(CategoryWind)

	for res := MinH3Resolution; res <= MaxH3Resolution; res++ {
		aggs, err := AggregateCells(wind, res)
		require.NoError(t, err)

		total := 0
		for _, agg := range aggs {
			total += agg.Count
		}

		assert.Equal(t, 3, total, "res %d", res)
	}
}
