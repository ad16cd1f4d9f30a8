package model

// TriggerDefaultLabel replaces the legacy "default" trigger name for display.
const TriggerDefaultLabel = "webhook/GCR"

// TrackedImage is an image keel watches for new tags.
type TrackedImage struct {
	// ID is derived from provider, namespace, registry and image so it survives
	// reordering between fetches.
	ID string `json:"id" yaml:"id"`
	// Row is the position in the last fetched collection. It changes whenever
	// the server reorders images and must not be used as an identity.
	Row string `json:"row" yaml:"row"`

	Image        string `json:"image" yaml:"image"`
	Trigger      string `json:"trigger" yaml:"trigger"`
	PollSchedule string `json:"pollSchedule" yaml:"pollSchedule"`
	Provider     string `json:"provider" yaml:"provider"`
	Namespace    string `json:"namespace" yaml:"namespace"`
	Policy       string `json:"policy" yaml:"policy"`
	Registry     string `json:"registry" yaml:"registry"`
}
