// Package indexer loads a chunked corpus into storage and embeds it for
// vector search.
//
// Chunks are stored first, then embedded in fixed-size batches on a worker
// pool. Embedding calls are retried with exponential backoff, and the
// contiguous prefix of finished batches is checkpointed so an interrupted
// run resumes where it stopped.
package indexer
