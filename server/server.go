// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the map layers and datasets over HTTP.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/cartelec/cartelec/energy"
	"github.com/cartelec/cartelec/layers"
	"github.com/cartelec/cartelec/spatial"
	"github.com/cartelec/cartelec/territory"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 200
)

// resolveMetricsSource is implemented by site sources that resolved the
// registries themselves.
type resolveMetricsSource interface {
	Metrics(category energy.Category) energy.ResolveMetrics
}

type Server struct {
	atlas     *territory.Atlas
	sites     energy.SiteSource
	assembler *layers.Assembler
	registry  *prometheus.Registry
	metrics   *Metrics

	mu         sync.Mutex
	boundaries map[territory.Level][]byte
}

// NewServer creates a server. Metrics are registered on a registry of
// their own, with the Go and process collectors.
func NewServer(atlas *territory.Atlas, sites energy.SiteSource, assembler *layers.Assembler) *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Server{
		atlas:      atlas,
		sites:      sites,
		assembler:  assembler,
		registry:   reg,
		metrics:    NewMetrics(reg),
		boundaries: make(map[territory.Level][]byte),
	}
}

// Router returns the HTTP handler.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.Use(s.metrics.middleware())

	r.GET("/api/layers", s.getLayers)
	r.POST("/api/view/click", s.click)
	r.GET("/api/boundaries/:level", s.getBoundaries)
	r.GET("/api/communes", s.searchCommunes)
	r.GET("/api/communes/:insee", s.getCommune)
	r.GET("/api/sites/:category", s.listSites)
	r.GET("/api/sites/:category/cells", s.aggregateCells)
	r.GET("/api/progress", s.getProgress)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	return r
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	if _, err := s.progress(); err != nil {
		log.Printf("Computing site gauges: %v", err)
	}

	return s.Router().Run(addr)
}

func (s *Server) getLayers(ctx *gin.Context) {
	var state layers.State
	if err := ctx.ShouldBindQuery(&state); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if state.Level != "" {
		level, err := territory.ParseLevel(string(state.Level))
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}

		state.Level = level
	}

	result, err := s.assembler.Assemble(state)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	s.metrics.LayersAssembled.WithLabelValues(string(state.Level)).Inc()

	ctx.JSON(http.StatusOK, gin.H{
		"state":  state,
		"layers": result,
	})
}

func (s *Server) click(ctx *gin.Context) {
	var ev layers.ClickEvent
	if err := ctx.ShouldBindJSON(&ev); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, s.assembler.Style().FlyTo.Click(ev))
}

type boundaryFeature struct {
	Type       string           `json:"type"`
	Properties map[string]any   `json:"properties"`
	Geometry   spatial.Geometry `json:"geometry"`
}

func (s *Server) getBoundaries(ctx *gin.Context) {
	level, err := territory.ParseLevel(ctx.Param("level"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	data, err := s.boundaryGeoJSON(level)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if data == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("%s boundaries are not loaded", level)})

		return
	}

	ctx.Data(http.StatusOK, "application/geo+json", data)
}

// boundaryGeoJSON encodes the boundaries of a level once, adding the
// centroid of every feature to its properties.
func (s *Server) boundaryGeoJSON(level territory.Level) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if data, ok := s.boundaries[level]; ok {
		return data, nil
	}

	collection := s.atlas.Level(level)
	if collection == nil {
		return nil, nil
	}

	features := make([]boundaryFeature, len(collection.Features))

	for i, f := range collection.Features {
		props := make(map[string]any, len(f.Properties)+1)
		for k, v := range f.Properties {
			props[k] = v
		}

		if p, err := f.Centroid(); err == nil {
			props["centroid"] = p.Position()
		}

		features[i] = boundaryFeature{Type: "Feature", Properties: props, Geometry: f.Geometry}
	}

	data, err := json.Marshal(map[string]any{
		"type":     "FeatureCollection",
		"features": features,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding %s boundaries: %w", level, err)
	}

	s.boundaries[level] = data

	return data, nil
}

// CommuneSummary describes a commune without its geometry.
type CommuneSummary struct {
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Centroid *spatial.Point  `json:"centroid,omitempty"`
	Bounds   *spatial.Bounds `json:"bounds,omitempty"`
}

func summarize(f *territory.Feature) CommuneSummary {
	ret := CommuneSummary{Code: f.ID(), Name: f.Name()}

	if p, err := f.Centroid(); err == nil {
		ret.Centroid = &p
	}

	if b, err := f.Geometry.Bounds(); err == nil {
		ret.Bounds = &b
	}

	return ret
}

func (s *Server) getCommune(ctx *gin.Context) {
	insee := ctx.Param("insee")

	f, ok := s.atlas.Communes().Lookup(insee)
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("commune %q not found", insee)})

		return
	}

	ctx.JSON(http.StatusOK, summarize(f))
}

func (s *Server) searchCommunes(ctx *gin.Context) {
	q := ctx.Query("q")
	if q == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})

		return
	}

	limit := defaultSearchLimit

	if l := ctx.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 || n > maxSearchLimit {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("limit must be between 1 and %d", maxSearchLimit)})

			return
		}

		limit = n
	}

	found := s.atlas.Communes().Search(q, limit)

	ret := make([]CommuneSummary, len(found))
	for i, f := range found {
		ret[i] = summarize(f)
	}

	ctx.JSON(http.StatusOK, ret)
}

func (s *Server) listSites(ctx *gin.Context) {
	category, err := energy.ParseCategory(ctx.Param("category"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	sites, err := s.sites.Sites(category)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	// Sites without a finite radius have no marker.
	ctx.JSON(http.StatusOK, energy.Plottable(sites))
}

func (s *Server) aggregateCells(ctx *gin.Context) {
	category, err := energy.ParseCategory(ctx.Param("category"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	res := 5

	if r := ctx.Query("res"); r != "" {
		res, err = strconv.Atoi(r)
		if err != nil || res < energy.MinH3Resolution || res > energy.MaxH3Resolution {
			ctx.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("res must be between %d and %d", energy.MinH3Resolution, energy.MaxH3Resolution),
			})

			return
		}
	}

	cells, err := s.sites.AggregateCells(category, res)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, cells)
}

// CategoryProgress summarizes the sites of a category.
type CategoryProgress struct {
	Category energy.Category        `json:"category"`
	LayerID  string                 `json:"layer_id"`
	Plotted  int                    `json:"plotted"`
	Dropped  int                    `json:"dropped"`
	Resolve  *energy.ResolveMetrics `json:"resolve,omitempty"`
}

// Progress summarizes the loaded datasets.
type Progress struct {
	Boundaries map[territory.Level]int `json:"boundaries"`
	Categories []CategoryProgress      `json:"categories"`
	// Resolve sums the resolution metrics of every category, when known
	Resolve *energy.ResolveMetrics `json:"resolve,omitempty"`
}

// progress also refreshes the site gauges.
func (s *Server) progress() (*Progress, error) {
	ret := &Progress{Boundaries: make(map[territory.Level]int, len(territory.Levels))}

	for _, level := range territory.Levels {
		ret.Boundaries[level] = s.atlas.Level(level).Len()
	}

	for _, category := range energy.Categories {
		layer, err := s.assembler.PointLayer(category)
		if err != nil {
			return nil, err
		}

		p := CategoryProgress{
			Category: category,
			LayerID:  layer.ID,
			Plotted:  len(layer.Data),
			Dropped:  layer.Dropped,
		}

		if src, ok := s.sites.(resolveMetricsSource); ok {
			m := src.Metrics(category)
			p.Resolve = &m

			if ret.Resolve == nil {
				ret.Resolve = &energy.ResolveMetrics{}
			}

			ret.Resolve.Merge(&m)
		}

		ret.Categories = append(ret.Categories, p)

		s.metrics.PlottedSites.WithLabelValues(string(category)).Set(float64(p.Plotted))
		s.metrics.DroppedSites.WithLabelValues(string(category)).Set(float64(p.Dropped))
	}

	return ret, nil
}

func (s *Server) getProgress(ctx *gin.Context) {
	p, err := s.progress()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, p)
}
