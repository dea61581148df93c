package editor

import "time"

// Config holds editor limits and layout defaults.
type Config struct {
	ContainerWidth   float64       // fallback display width before the window is measured
	MaxDisplayHeight float64       // upper bound for the scaled image height
	BrushSize        int           // initial brush radius in display pixels
	MinBrushSize     int
	MaxBrushSize     int
	RequestTimeout   time.Duration // per collaborator call
}

// DefaultConfig returns the settings used when no flags override them.
func DefaultConfig() Config {
	return Config{
		ContainerWidth:   1000,
		MaxDisplayHeight: 700,
		BrushSize:        10,
		MinBrushSize:     1,
		MaxBrushSize:     50,
		RequestTimeout:   60 * time.Second,
	}
}

// clampBrush limits size to the configured range.
func (c Config) clampBrush(size int) int {
	if size < c.MinBrushSize {
		return c.MinBrushSize
	}
	if size > c.MaxBrushSize {
		return c.MaxBrushSize
	}
	return size
}
