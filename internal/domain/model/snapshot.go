// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/cityscale/shadowcast/internal/domain/raster"
)

// ReportTimeFormat is the timestamp layout used in JSON reports.
const ReportTimeFormat = "2006-01-02 15:04:05"

// SunPosition is a sun direction in horizontal coordinates.
type SunPosition struct {
	AzimuthDeg   float64 // compass degrees clockwise from north, [0, 360)
	ElevationDeg float64 // degrees above the horizon, negative below
}

// AboveHorizon reports whether the sun contributes any direct light.
func (p SunPosition) AboveHorizon() bool { return p.ElevationDeg > 0 }

// Snapshot is one computed shadow map headed for persistence.
type Snapshot struct {
	ID         string    // unique snapshot id
	Timestamp  time.Time // instant the map was computed for
	Sun        SunPosition
	Shadow     *raster.Grid // illumination grid, 1 sunlit .. 0 shadowed
	WallSunlit *raster.Grid // sunlit wall height fractions, nil without wall inputs
}

// Report is the response payload for one shadow computation. The byte fields
// hold PNG images; encoding/json renders them as base64 strings, matching the
// wire format consumers already parse.
type Report struct {
	Timestamp   string `json:"timestamp"`
	Heatmap     []byte `json:"heatmap"`
	SurfacePlot []byte `json:"surface_plot"`
}
