package modfile

// objectPool hands out slices from a few preallocated chunks.
// A parser reuses its pool between the runs, so parsing several
// modules in a row does not allocate the pattern storage again.
type objectPool[T any] struct {
	chunks    []poolChunk[T]
	chunkSize int
}

type poolChunk[T any] struct {
	data []T
	used int
}

func (c *poolChunk[T]) available() int { return len(c.data) - c.used }

func (c *poolChunk[T]) take(n int) []T {
	s := c.data[c.used : c.used+n : c.used+n]
	c.used += n
	return s
}

func initObjectPool[T any](p *objectPool[T], chunkSize, maxChunks int) {
	p.chunks = make([]poolChunk[T], 0, maxChunks)
	p.chunkSize = chunkSize
}

// Reset makes all chunks available again.
// Slices returned before the reset must not be used after it.
func (p *objectPool[T]) Reset() {
	for i := range p.chunks {
		p.chunks[i].used = 0
	}
}

// MakeSlice returns a slice of n elements.
// The elements are not zeroed if the memory is reused.
func (p *objectPool[T]) MakeSlice(n int) []T {
	if n > p.chunkSize {
		return make([]T, n)
	}

	for i := range p.chunks {
		c := &p.chunks[i]
		if c.available() >= n {
			return c.take(n)
		}
	}

	if len(p.chunks) < cap(p.chunks) {
		p.chunks = append(p.chunks, poolChunk[T]{
			data: make([]T, p.chunkSize),
		})
		return p.chunks[len(p.chunks)-1].take(n)
	}

	// Out of chunks, fallback to a plain allocation.
	return make([]T, n)
}
