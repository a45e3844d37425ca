package retrieval

import (
	"github.com/poiesic/lexcite/core"
	"github.com/poiesic/lexcite/judgment"
	"github.com/poiesic/lexcite/statutory"
	"github.com/poiesic/lexcite/storage"
)

// RetrievalMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results.
type RetrievalMonitor interface {
	Start(query string)
	AfterExtraction(extracted core.ExtractedQuery)
	AfterJudgmentMatch(result judgment.Result)
	AfterStatutoryMatch(kind statutory.Kind, chunks []*core.Chunk)
	AfterVectorSearch(hits []storage.VectorHit)
	Suppressed(chunk *core.Chunk)
	Finish(results []core.ScoredChunk)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                        {}
func (n *noopMonitor) AfterExtraction(_ core.ExtractedQuery)                 {}
func (n *noopMonitor) AfterJudgmentMatch(_ judgment.Result)                  {}
func (n *noopMonitor) AfterStatutoryMatch(_ statutory.Kind, _ []*core.Chunk) {}
func (n *noopMonitor) AfterVectorSearch(_ []storage.VectorHit)               {}
func (n *noopMonitor) Suppressed(_ *core.Chunk)                              {}
func (n *noopMonitor) Finish(_ []core.ScoredChunk)                           {}
