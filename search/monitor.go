package search

import "github.com/poiesic/logseer/core"

// QueryMonitor provides hooks to observe the retrieval and answer process.
// Implement this interface to track intermediate steps during a query.
type QueryMonitor interface {
	Start(query string)
	AfterThresholdFilter(kept []core.ScoredChunk)
	Refused(query string)
	Finish(answer core.Answer)
}

// noopMonitor is a no-op implementation of QueryMonitor
type noopMonitor struct{}

var _ QueryMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                            {}
func (n *noopMonitor) AfterThresholdFilter(_ []core.ScoredChunk) {}
func (n *noopMonitor) Refused(_ string)                          {}
func (n *noopMonitor) Finish(_ core.Answer)                      {}
