package bitset

const wordBits = 64

// Sliding is a growable bitset over non-negative positions whose low end can
// be trimmed as positions below a watermark stop being interesting. Bits are
// kept in fixed-size chunks so that memory is bounded by the width of the
// window between the lowest retained chunk and the highest set position, not
// by the total number of positions ever seen.
//
// Sliding is not safe for concurrent use.
type Sliding struct {
	// chunkBits is the number of bits per chunk. It is always a multiple of
	// the word size.
	chunkBits int64
	// base is the absolute position of bit zero of the first retained chunk.
	// It is always a multiple of chunkBits.
	base   int64
	chunks [][]uint64
}

// NewSliding returns a bitset with the given chunk size in bits. Sizes are
// rounded up to a multiple of 64.
func NewSliding(chunkBits int) *Sliding {
	if chunkBits < wordBits {
		chunkBits = wordBits
	}
	if rem := chunkBits % wordBits; rem != 0 {
		chunkBits += wordBits - rem
	}

	return &Sliding{chunkBits: int64(chunkBits)}
}

// Set marks the given position. Positions below the trimmed window have been
// retired by the caller already and are ignored.
func (s *Sliding) Set(pos int64) {
	if pos < s.base {
		return
	}

	chunk := (pos - s.base) / s.chunkBits
	for int64(len(s.chunks)) <= chunk {
		s.chunks = append(s.chunks, make([]uint64, s.chunkBits/wordBits))
	}

	bit := (pos - s.base) % s.chunkBits
	s.chunks[chunk][bit/wordBits] |= 1 << uint(bit%wordBits)
}

// Test reports whether the given position is marked. Positions below the
// trimmed window report false.
func (s *Sliding) Test(pos int64) bool {
	if pos < s.base {
		return false
	}

	chunk := (pos - s.base) / s.chunkBits
	if chunk >= int64(len(s.chunks)) {
		return false
	}

	bit := (pos - s.base) % s.chunkBits
	return s.chunks[chunk][bit/wordBits]&(1<<uint(bit%wordBits)) != 0
}

// TrimBelow drops every chunk that lies entirely below the given position.
// Only whole chunks are released, so positions in the chunk containing pos
// remain addressable.
func (s *Sliding) TrimBelow(pos int64) {
	for len(s.chunks) > 0 && s.base+s.chunkBits <= pos {
		s.chunks = s.chunks[1:]
		s.base += s.chunkBits
	}

	if len(s.chunks) == 0 && pos > s.base {
		// Nothing retained; realign the base so a later Set does not
		// allocate chunks for the skipped range.
		s.base = pos - pos%s.chunkBits
	}
}

// Retained returns the number of chunks currently held. It exists for tests
// asserting that memory stays bounded by the outstanding window.
func (s *Sliding) Retained() int {
	return len(s.chunks)
}
