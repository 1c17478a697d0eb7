package progress

import "time"

// Config tunes a Simulator.
type Config struct {
	// Interval between two progress ticks.
	Interval time.Duration `yaml:"interval" json:"interval"`
	// MaxStep bounds the random increment of a tick. Every tick advances by at least 1.
	MaxStep int `yaml:"max_step" json:"max_step"`
	// Hold is how long the completed view stays before resetting to idle.
	Hold time.Duration `yaml:"hold" json:"hold"`
	// ActiveDuringHold keeps the job flagged active while the completed view is held.
	ActiveDuringHold bool `yaml:"active_during_hold" json:"active_during_hold"`
}

// GenerationConfig returns the pacing of AI generation jobs.
func GenerationConfig() Config {
	return Config{
		Interval: 180 * time.Millisecond,
		MaxStep:  6,
		Hold:     400 * time.Millisecond,
	}
}

// ExportConfig returns the pacing of export jobs.
func ExportConfig() Config {
	return Config{
		Interval:         200 * time.Millisecond,
		MaxStep:          10,
		Hold:             300 * time.Millisecond,
		ActiveDuringHold: true,
	}
}

func (c Config) normalized() Config {
	if c.Interval <= 0 {
		c.Interval = 200 * time.Millisecond
	}
	if c.MaxStep < 1 {
		c.MaxStep = 1
	}
	if c.Hold < 0 {
		c.Hold = 0
	}
	return c
}
