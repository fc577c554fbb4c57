// Package mapview decides what the live map renders. The policy itself is a
// pure function; the caller owns the first-render flag and the camera. The
// camera is fitted exactly once — afterwards the user's manual pan/zoom is
// never fought, even as positions keep ticking. Relocating the company
// anchor is the one event that earns a single re-fit, by the caller
// resetting the flag.
package mapview

import (
	"fmt"

	geom "github.com/twpayne/go-geom"

	"fleetsmart/internal/models"
)

type MarkerKind string

const (
	MarkerCompany MarkerKind = "company"
	MarkerVehicle MarkerKind = "vehicle"
)

type Marker struct {
	Kind  MarkerKind `json:"kind"`
	Label string     `json:"label"`
	Lat   float64    `json:"lat"`
	Lon   float64    `json:"lon"`
}

// Camera is the bounding box the renderer should fit, inclusive of the
// anchor and every vehicle.
type Camera struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// RenderPlan is one render instruction set. FitBounds is nil whenever the
// camera must be left exactly where the user put it. NextFirstRender is the
// flag value the caller persists for the following render.
type RenderPlan struct {
	Markers         []Marker `json:"markers"`
	FitBounds       *Camera  `json:"fit_bounds,omitempty"`
	NextFirstRender bool     `json:"-"`
}

// BuildRenderPlan lays out the anchor marker plus one marker per current
// position. The camera is recomputed only on the first render and only when
// at least one vehicle position exists beyond the anchor.
func BuildRenderPlan(positions []models.CurrentPosition, anchor [2]float64, firstRender bool) RenderPlan {
	markers := make([]Marker, 0, len(positions)+1)
	markers = append(markers, Marker{
		Kind:  MarkerCompany,
		Label: "Headquarters",
		Lat:   anchor[0],
		Lon:   anchor[1],
	})
	for _, pos := range positions {
		markers = append(markers, Marker{
			Kind:  MarkerVehicle,
			Label: fmt.Sprintf("%s · %s · %s", pos.VehiclePlate, pos.DriverName, pos.RouteName),
			Lat:   pos.Latitude,
			Lon:   pos.Longitude,
		})
	}

	plan := RenderPlan{Markers: markers, NextFirstRender: firstRender}
	if !firstRender || len(positions) == 0 {
		return plan
	}

	// go-geom bounds are X=lon, Y=lat.
	bounds := geom.NewBounds(geom.XY)
	for _, m := range markers {
		bounds.Extend(geom.NewPointFlat(geom.XY, []float64{m.Lon, m.Lat}))
	}
	plan.FitBounds = &Camera{
		MinLat: bounds.Min(1),
		MinLon: bounds.Min(0),
		MaxLat: bounds.Max(1),
		MaxLon: bounds.Max(0),
	}
	plan.NextFirstRender = false
	return plan
}
