package core

import "time"

// Checkpoint records how far a resumable processor has got.
type Checkpoint struct {
	ProcessorType string    `json:"processor_type"`
	// LastBatch counts the leading batches that are complete.
	LastBatch     int       `json:"last_batch"`
	LastChunkID   string    `json:"last_chunk_id"`
	Processed     int       `json:"processed"`
	UpdatedAt     time.Time `json:"updated_at"`
}
