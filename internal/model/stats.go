package model

// StatPoint is one day of aggregated audit statistics.
type StatPoint struct {
	Date     string `json:"date" yaml:"date"`
	Webhooks int    `json:"webhooks" yaml:"webhooks"`
	Approved int    `json:"approved" yaml:"approved"`
	Rejected int    `json:"rejected" yaml:"rejected"`
	Updates  int    `json:"updates" yaml:"updates"`
}

// ChartPoint is one bar of a chart series.
type ChartPoint struct {
	X string `json:"x" yaml:"x"`
	Y int    `json:"y" yaml:"y"`
}
