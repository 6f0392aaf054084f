package mem

// DefaultPageSize provides a default for Cells.PageSize.
const DefaultPageSize = 256

// Cells implements a paged memory of 16-bit cells.
// Pages may not necessarily be the same size, but usually are in practice.
type Cells struct {
	Pager
	pages [][]uint16
}

// Size returns an address one position higher than the last position in the
// last page allocated so far.
func (m *Cells) Size() uint {
	if i := len(m.bases) - 1; i >= 0 {
		return m.bases[i] + uint(len(m.pages[i]))
	}
	return 0
}

// Load returns a single cell from the given address.
// Unallocated pages are left unallocated, resulting in implicit 0 values.
// Returns an error if addr exceeds any Limit.
func (m *Cells) Load(addr uint) (uint16, error) {
	if err := m.checkLimit(addr+1, "load"); err != nil {
		return 0, err
	}
	if len(m.pages) == 0 {
		return 0, nil
	}
	pageID := m.findPage(addr)
	page := m.pages[pageID]
	if i := int(addr) - int(m.bases[pageID]); 0 <= i && i < len(page) {
		return page[i], nil
	}
	return 0, nil
}

// LoadInto reads len(buf) cells from memory starting at addr.
// Unallocated ranges read as zero.
// Returns an error if Limit would be exceeded; no partial load is done.
func (m *Cells) LoadInto(addr uint, buf []uint16) error {
	if len(buf) == 0 {
		return nil
	}

	end := addr + uint(len(buf))
	if err := m.checkLimit(end, "load"); err != nil {
		return err
	}

	for pageID := m.findPage(addr); addr < end && pageID < len(m.bases); pageID++ {
		base := m.bases[pageID]
		if base >= end {
			break
		}

		if skip := int(base) - int(addr); skip > 0 {
			for i := range buf[:skip] {
				buf[i] = 0
			}
			buf = buf[skip:]
			addr += uint(skip)
		}

		page := m.pages[pageID]
		if skip := int(addr) - int(base); skip > 0 {
			if skip >= len(page) {
				continue
			}
			page = page[skip:]
		}

		n := copy(buf, page)
		buf = buf[n:]
		addr += uint(n)
	}

	for i := range buf {
		buf[i] = 0
	}
	return nil
}

// Stor stores any values at addr, allocating pages if necessary.
// Returns an error if Limit would be exceeded; no partial store is done.
func (m *Cells) Stor(addr uint, values ...uint16) error {
	if len(values) == 0 {
		return nil
	}

	end := addr + uint(len(values))
	if err := m.checkLimit(end, "stor"); err != nil {
		return err
	}

	if m.PageSize == 0 {
		m.PageSize = DefaultPageSize
	}

	for pageID := m.findPage(addr); addr < end; pageID++ {
		base, size, page := m.allocPage(pageID, addr)
		if skip := addr - base; skip > 0 {
			if skip >= size {
				continue
			}
			page = page[skip:]
		}
		n := copy(page, values)
		values = values[n:]
		addr += uint(n)
	}

	return nil
}

// Slice returns a dense copy of cells [0, end).
func (m *Cells) Slice(end uint) ([]uint16, error) {
	buf := make([]uint16, end)
	if err := m.LoadInto(0, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (m *Cells) allocPage(pageID int, addr uint) (base, size uint, page []uint16) {
	base, size, isNew := m.Pager.allocPage(pageID, addr)
	if !isNew {
		return base, size, m.pages[pageID]
	}
	page = make([]uint16, size)
	if pageID == len(m.pages) {
		m.pages = append(m.pages, page)
	} else {
		m.pages = append(m.pages, nil)
		copy(m.pages[pageID+1:], m.pages[pageID:])
		m.pages[pageID] = page
	}
	return base, size, page
}
