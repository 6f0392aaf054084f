package mem

// CellsDump exposes page layout for testing.
type CellsDump struct {
	Bases []uint
	Sizes []uint
	Pages [][]uint16
}

// Dump memory data for testing.
func (m *Cells) Dump() (d CellsDump) {
	d.Bases = m.bases
	d.Sizes = m.sizes
	d.Pages = m.pages
	return d
}
