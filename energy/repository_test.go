// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package energy

import (
	"database/sql"
	"math"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (*sql.DB, SiteRepository) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	repo := NewSiteRepository(db)
	if err := repo.CreateSchema(); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return db, repo
}

func TestCreateSchema(t *testing.T) {
	db, _ := setupTestDB(t)
	defer db.Close()

	var tableName string

	err := db.QueryRow("SELECT table_name FROM information_schema.tables WHERE table_name = 'sites'").Scan(&tableName)
	if err != nil {
		t.Fatalf("Table not created: %v", err)
	}

	if tableName != "sites" {
		t.Errorf("Expected table 'sites', got '%s'", tableName)
	}
}

func TestBulkInsertAndListSites(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	sites := testCatalog().All()
	if err := repo.BulkInsertSites(sites); err != nil {
		t.Fatalf("BulkInsertSites() error = %v", err)
	}

	got, err := repo.ListSites(nil)
	require.NoError(t, err)
	require.Len(t, got, len(sites))

	// Sorted by category then id.
	assert.Equal(t, CategoryNuclear, got[0].Category)
	assert.Equal(t, "n1", got[0].ID)
	assert.Equal(t, "w1", got[1].ID)

	n1 := got[0]
	assert.Equal(t, testCommunes["01001"], n1.Point)
	assert.InDelta(t, 260, n1.Power, 1e-9)
	assert.Equal(t, "2,6", n1.RawPower)
	assert.Equal(t, MethodCommuneCentroid, n1.PositionMethod)
	assert.Equal(t, sites[4].H3Cells, n1.H3Cells)

	w3 := got[3]
	assert.Equal(t, "w3", w3.ID)
	assert.True(t, math.IsNaN(w3.Power), "NULL power reads back as NaN")
	assert.False(t, w3.IsPlottable())

	wind := CategoryWind

	onlyWind, err := repo.ListSites(&wind)
	require.NoError(t, err)
	assert.Len(t, onlyWind, 4)

	counts, err := repo.CountSites()
	require.NoError(t, err)
	assert.Equal(t, map[Category]int{CategoryWind: 4, CategoryNuclear: 1}, counts)
}

func TestBulkInsertDuplicate(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	sites := testCatalog().All()
	require.NoError(t, repo.BulkInsertSites(sites))
	require.Error(t, repo.BulkInsertSites(sites[:1]))

	counts, err := repo.CountSites()
	require.NoError(t, err)
	assert.Equal(t, 4, counts[CategoryWind], "failed batch is rolled back")
}

func TestRepositoryAggregateCellsMatchesCatalog(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	c := testCatalog()
	require.NoError(t, repo.BulkInsertSites(c.All()))

	for res := MinH3Resolution; res <= MaxH3Resolution; res++ {
		want, err := c.AggregateCells(CategoryWind, res)
		require.NoError(t, err)

		got, err := repo.AggregateCells(CategoryWind, res)
		require.NoError(t, err)

		require.Len(t, got, len(want), "res %d", res)

		for i := range want {
			assert.Equal(t, want[i].Cell, got[i].Cell)
			assert.Equal(t, want[i].Count, got[i].Count)
			assert.InDelta(t, want[i].Power, got[i].Power, 1e-9)
		}
	}

	_, err := repo.AggregateCells(CategoryWind, 42)
	require.Error(t, err)
}

func TestReplaceSites(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	sites := testCatalog().All()
	require.NoError(t, repo.BulkInsertSites(sites))

	var reported []int

	require.NoError(t, repo.ReplaceSites(sites[:2], func(n int) { reported = append(reported, n) }))
	assert.Equal(t, []int{2}, reported)

	counts, err := repo.CountSites()
	require.NoError(t, err)
	assert.Equal(t, map[Category]int{CategoryWind: 2}, counts)

	// A failing insert keeps the previous content.
	err = repo.ReplaceSites([]*PlottedSite{sites[0], sites[0]}, nil)
	require.Error(t, err)

	counts, err = repo.CountSites()
	require.NoError(t, err)
	assert.Equal(t, map[Category]int{CategoryWind: 2}, counts)

	require.NoError(t, repo.ReplaceSites(nil, nil))

	counts, err = repo.CountSites()
	require.NoError(t, err)
	assert.Empty(t, counts)
}
