// Package diag exposes read-only simulation counters over HTTP and a
// websocket stream, plus the one external input: the spawn request.
package diag

import "time"

// Snapshot is one sample of the simulation counters.
type Snapshot struct {
	Frame            uint64    `json:"frame"`
	At               time.Time `json:"at"`
	SpawnedTotal     int       `json:"spawnedTotal"`
	PendingPathCount int       `json:"pendingPathCount"`
	CachedPathCount  int       `json:"cachedPathCount"`
	InFlight         int       `json:"inFlight"`
	Idle             int       `json:"idle"`
	PathQueued       int       `json:"pathQueued"`
	Moving           int       `json:"moving"`
	Residential      int       `json:"residential"`
	Commercial       int       `json:"commercial"`
	PathSucceeded    int       `json:"pathSucceeded"`
	PathFailed       int       `json:"pathFailed"`
	Buckets          int       `json:"buckets"`
	Followers        int       `json:"followers"`
	NavmeshVersion   int       `json:"navmeshVersion"`
	FrameMillis      float64   `json:"frameMillis"`
}
