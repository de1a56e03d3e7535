package memory

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

var (
	ErrOutOfRange = errors.New("address outside of loadable memory")
	ErrRegionFull = errors.New("write exceeds the destination region")
)

// Arena is the window of RAM that downloads may be loaded into. Backing
// storage is allocated lazily per region, so a large window costs nothing
// until it is written.
type Arena struct {
	base uint64
	size uint64

	mu      sync.Mutex
	regions []*Region
}

// NewArena returns the window [base, base+size). A size reaching past the
// top of the address space is clamped to it.
func NewArena(base, size uint64) *Arena {
	if size > 0 && size-1 > math.MaxUint64-base {
		size = math.MaxUint64 - base + 1
	}
	return &Arena{base: base, size: size}
}

func (a *Arena) Base() uint64 { return a.base }
func (a *Arena) Size() uint64 { return a.size }

// Region returns a sink starting at addr and ending at the top of the arena.
func (a *Arena) Region(addr uint64) (*Region, error) {
	if addr < a.base || addr-a.base >= a.size {
		return nil, fmt.Errorf("%w: 0x%x not in 0x%x+0x%x", ErrOutOfRange, addr, a.base, a.size)
	}
	r := &Region{base: addr, limit: a.size - (addr - a.base)}
	a.mu.Lock()
	a.regions = append(a.regions, r)
	a.mu.Unlock()
	return r, nil
}

// Load returns a copy of n bytes starting at addr as last written. Bytes
// never written read as zero.
func (a *Arena) Load(addr, n uint64) ([]byte, error) {
	if addr < a.base || n > a.size || addr-a.base > a.size-n {
		return nil, ErrOutOfRange
	}
	out := make([]byte, n)
	a.mu.Lock()
	defer a.mu.Unlock()
	// offsets from the arena base cannot wrap
	off := addr - a.base
	// later regions overwrite earlier ones
	for _, r := range a.regions {
		roff := r.base - a.base
		lo := max(off, roff)
		hi := min(off+n, roff+uint64(len(r.buf)))
		if lo >= hi {
			continue
		}
		copy(out[lo-off:hi-off], r.buf[lo-roff:hi-roff])
	}
	return out, nil
}

// Region is a bounded writable window with an owned cursor. Writes land at
// the cursor and advance it by exactly the number of bytes written; a write
// that would cross the limit is rejected whole.
type Region struct {
	base  uint64
	limit uint64
	buf   []byte
}

func (r *Region) Write(p []byte) (int, error) {
	if uint64(len(p)) > r.limit-uint64(len(r.buf)) {
		return 0, ErrRegionFull
	}
	r.buf = append(r.buf, p...)
	return len(p), nil
}

// Base is the address the region starts at.
func (r *Region) Base() uint64 { return r.base }

// Cursor is the address the next write lands at.
func (r *Region) Cursor() uint64 { return r.base + uint64(len(r.buf)) }

// Len is the number of bytes written so far.
func (r *Region) Len() uint64 { return uint64(len(r.buf)) }

// Limit is the region capacity in bytes.
func (r *Region) Limit() uint64 { return r.limit }

// Bytes returns the written bytes. The slice aliases the region storage.
func (r *Region) Bytes() []byte { return r.buf }
