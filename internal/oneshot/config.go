package oneshot

import "time"

// Config holds configuration for one offline shadow computation.
type Config struct {
	DSMPath   string    // .npy terrain file; empty selects synthetic terrain
	Size      int       // synthetic terrain size in cells
	Seed      int64     // synthetic terrain seed
	Latitude  float64   // observer latitude in degrees
	Longitude float64   // observer longitude in degrees
	At        time.Time // instant to compute for; zero means now
	CellSize  float64   // meters per grid cell
	Penumbra  float64   // penumbra softening height in meters; 0 keeps binary shadows
	Walls     bool      // derive walls from terrain and report sunlit fractions
	OutDir    string    // output directory for artifacts
}

// Summary holds the results of one run.
type Summary struct {
	Rows             int
	Cols             int
	AzimuthDeg       float64
	ElevationDeg     float64
	ShadowedFraction float64
	Steps            int
	Duration         time.Duration
	HeatmapPath      string
	ReliefPath       string
	ShadowPath       string
}
