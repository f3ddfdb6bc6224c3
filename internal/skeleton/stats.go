package skeleton

import "time"

// Stats counts how a single pass classified the nodes it visited.
type Stats struct {
	Text         int `json:"text"`
	Images       int `json:"images"`
	Placeholders int `json:"placeholders"`
	Containers   int `json:"containers"`
	Fragments    int `json:"fragments"`
	Lists        int `json:"lists"`
	Opaque       int `json:"opaque"`
	Passthrough  int `json:"passthrough"`
	CacheHits    int `json:"cache_hits"`

	ChildFallbacks   int `json:"child_fallbacks"`
	RebuildFallbacks int `json:"rebuild_fallbacks"`
}

// Fallbacks returns the total number of absorbed failures.
func (s Stats) Fallbacks() int {
	return s.ChildFallbacks + s.RebuildFallbacks
}

// Observer receives the result of every pass.
type Observer interface {
	ObservePass(stats Stats, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObservePass(Stats, time.Duration) {}
