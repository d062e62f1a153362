package cook

// Chunk is a contiguous slice of a node's work range.
// Iteration is the zero-based position of the chunk in its plan.
// A running chunk reports Iteration back, so its output can be matched to the node.
type Chunk struct {
	Iteration int
	Start     int
	End       int
}

// Len returns number of items in the chunk.
func (c Chunk) Len() int {
	return c.End - c.Start + 1
}

// PlanChunks partitions [start, end] into chunks of packetSize items.
// The last chunk can be shorter than packetSize.
// It returns nil when end < start or packetSize < 1,
// which means the work should not be chunked at all.
func PlanChunks(start, end, packetSize int) []Chunk {
	if end < start || packetSize < 1 {
		return nil
	}
	n := (end-start)/packetSize + 1
	chunks := make([]Chunk, 0, n)
	for i := 0; i < n; i++ {
		s := start + i*packetSize
		e := s + packetSize - 1
		if e > end {
			e = end
		}
		chunks = append(chunks, Chunk{Iteration: i, Start: s, End: e})
	}
	return chunks
}

// ChunkParams describes how a node's range should be chunked.
type ChunkParams struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`

	// PacketSize is number of items in a chunk.
	// Zero means 1.
	PacketSize int `json:"packetSize" yaml:"packetSize"`
}

// Plan plans chunks with the params.
func (p ChunkParams) Plan() []Chunk {
	size := p.PacketSize
	if size == 0 {
		size = 1
	}
	return PlanChunks(p.Start, p.End, size)
}
