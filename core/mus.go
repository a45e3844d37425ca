package core

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Binary serializers for the records kept in badger. Fields are written in
// declaration order, so reordering a struct field is a format change.
var (
	ChunkMUS      mus.Serializer[Chunk]      = chunkMUS{}
	CheckpointMUS mus.Serializer[Checkpoint] = checkpointMUS{}
	VectorMUS     mus.Serializer[[]float32]  = ord.NewSliceSer[float32](raw.Float32)
)

var metadataMUS = ord.NewMapSer[string, string](ord.String, ord.String)

type chunkMUS struct{}

func (s chunkMUS) Marshal(v Chunk, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += ord.String.Marshal(string(v.ChunkType), bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += ord.Bool.Marshal(v.IsStatutory, bs[n:])
	n += ord.String.Marshal(v.SectionNumber, bs[n:])
	n += ord.String.Marshal(v.Subsection, bs[n:])
	n += ord.String.Marshal(v.RuleNumber, bs[n:])
	// nil and empty metadata decode differently
	n += ord.Bool.Marshal(v.Metadata != nil, bs[n:])
	if v.Metadata != nil {
		n += metadataMUS.Marshal(v.Metadata, bs[n:])
	}
	return
}

func (s chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	var (
		n1          int
		chunkType   string
		hasMetadata bool
	)
	for _, dst := range []*string{&v.ID, &chunkType, &v.Text} {
		*dst, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	v.ChunkType = ChunkType(chunkType)
	v.IsStatutory, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	for _, dst := range []*string{&v.SectionNumber, &v.Subsection, &v.RuleNumber} {
		*dst, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	hasMetadata, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil || !hasMetadata {
		return
	}
	v.Metadata, n1, err = metadataMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (s chunkMUS) Size(v Chunk) (size int) {
	size = ord.String.Size(v.ID)
	size += ord.String.Size(string(v.ChunkType))
	size += ord.String.Size(v.Text)
	size += ord.Bool.Size(v.IsStatutory)
	size += ord.String.Size(v.SectionNumber)
	size += ord.String.Size(v.Subsection)
	size += ord.String.Size(v.RuleNumber)
	size += ord.Bool.Size(v.Metadata != nil)
	if v.Metadata != nil {
		size += metadataMUS.Size(v.Metadata)
	}
	return
}

func (s chunkMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type checkpointMUS struct{}

func (s checkpointMUS) Marshal(v Checkpoint, bs []byte) (n int) {
	n = ord.String.Marshal(v.ProcessorType, bs)
	n += varint.Int.Marshal(v.LastBatch, bs[n:])
	n += ord.String.Marshal(v.LastChunkID, bs[n:])
	n += varint.Int.Marshal(v.Processed, bs[n:])
	n += raw.TimeUnixNanoUTC.Marshal(v.UpdatedAt, bs[n:])
	return
}

func (s checkpointMUS) Unmarshal(bs []byte) (v Checkpoint, n int, err error) {
	var n1 int
	v.ProcessorType, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.LastBatch, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.LastChunkID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Processed, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var updated time.Time
	updated, n1, err = raw.TimeUnixNanoUTC.Unmarshal(bs[n:])
	n += n1
	v.UpdatedAt = updated
	return
}

func (s checkpointMUS) Size(v Checkpoint) (size int) {
	size = ord.String.Size(v.ProcessorType)
	size += varint.Int.Size(v.LastBatch)
	size += ord.String.Size(v.LastChunkID)
	size += varint.Int.Size(v.Processed)
	size += raw.TimeUnixNanoUTC.Size(v.UpdatedAt)
	return
}

func (s checkpointMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}
