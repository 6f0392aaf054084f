package mem

import "fmt"

// Pager tracks the page bases and sizes of a sparse paged memory.
type Pager struct {
	// PageSize specifies the length for newly allocated pages.
	PageSize uint

	// Limit specifies an address past which any store or load fails.
	// A zero limit means unlimited.
	Limit uint

	bases []uint
	sizes []uint
}

// LimitError indicates that a memory operation exceeded the Limit.
type LimitError struct {
	Addr uint
	Op   string
}

func (lim LimitError) Error() string {
	return fmt.Sprintf("memory limit exceeded by %v @%v", lim.Op, lim.Addr)
}

// findPage returns the index of the last page whose base is at or below addr.
func (p *Pager) findPage(addr uint) int {
	i, j := 0, len(p.bases)
	for i < j {
		h := int(uint(i+j)>>1) + 1
		if h < len(p.bases) && p.bases[h] <= addr {
			i = h
		} else {
			j = h - 1
		}
	}
	return i
}

// allocPage returns the page that covers addr, inserting a new one at pageID
// if needed; new pages are clipped so that they never overlap a neighbor.
func (p *Pager) allocPage(pageID int, addr uint) (base, size uint, isNew bool) {
	if pageID == len(p.bases) {
		base = addr / p.PageSize * p.PageSize
		size = p.PageSize
		if i := len(p.bases) - 1; i >= 0 {
			if lastEnd := p.bases[i] + p.sizes[i]; base < lastEnd {
				size -= lastEnd - base
				base = lastEnd
			}
		}
		p.bases = append(p.bases, base)
		p.sizes = append(p.sizes, size)
		return base, size, true
	}

	base = p.bases[pageID]
	if addr >= base {
		return base, p.sizes[pageID], false
	}

	nextBase := base
	base = addr / p.PageSize * p.PageSize
	size = p.PageSize
	if gap := nextBase - base; size > gap {
		size = gap
	}
	p.bases = append(p.bases, 0)
	p.sizes = append(p.sizes, 0)
	copy(p.bases[pageID+1:], p.bases[pageID:])
	copy(p.sizes[pageID+1:], p.sizes[pageID:])
	p.bases[pageID] = base
	p.sizes[pageID] = size
	return base, size, true
}

func (p *Pager) checkLimit(end uint, op string) error {
	if limit := p.Limit; limit != 0 && end > limit {
		return LimitError{end, op}
	}
	return nil
}
