package badger

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes. Each ends in ':' so no prefix is a prefix of another.
const (
	chunkPrefix      = "chunk:"
	chunkOrderPrefix = "chunkord:"
	chunkPosPrefix   = "chunkpos:"
	vectorPrefix     = "vec:"
	chunkOrderSeq    = "chunkseq"
)

// makeChunkKey generates the primary key for a chunk.
func makeChunkKey(id string) []byte {
	return []byte(chunkPrefix + id)
}

// makeChunkOrderKey generates a key in the corpus-order index.
// Format: prefix + big-endian position, so iteration follows insertion order.
func makeChunkOrderKey(pos uint64) []byte {
	buf := make([]byte, len(chunkOrderPrefix)+8)
	offset := copy(buf, chunkOrderPrefix)
	binary.BigEndian.PutUint64(buf[offset:], pos)
	return buf
}

// makeChunkPosKey maps a chunk ID back to its corpus position.
func makeChunkPosKey(id string) []byte {
	return []byte(chunkPosPrefix + id)
}

// makeVectorKey generates the key for a chunk's embedding.
func makeVectorKey(id string) []byte {
	return []byte(vectorPrefix + id)
}

// makeCheckpointKey generates a key for processor checkpoints.
func makeCheckpointKey(processorType string) []byte {
	return []byte(fmt.Sprintf("%s:chkpt", processorType))
}

func encodePos(pos uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, pos)
	return buf
}
