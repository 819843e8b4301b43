package model

import "math"

type ProgressBar struct {
	Progress       float64  `json:"progress"`
	Text           string   `json:"text"`
	BarText        string   `json:"barText,omitempty"`
	GradientColors []string `json:"gradientColors"`
}

func (p *ProgressBar) Validate() error {
	if math.IsNaN(p.Progress) || math.IsInf(p.Progress, 0) {
		return invalid("progress must be a finite number")
	}
	if len(p.GradientColors) < 2 {
		return invalid("progress bar needs two gradient colors")
	}
	return nil
}

// Drop marks a landing spot on the map. X and Y are world coordinates.
type Drop struct {
	Locale string  `json:"locale"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

func (d *Drop) Validate() error {
	if !safeName(d.Locale) {
		return invalid("drop locale must be a plain file name")
	}
	return nil
}
