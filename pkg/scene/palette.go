package scene

// Palette is the ordered list of material names objects index into.
// An empty palette means objects carry no material.
type Palette struct {
	names []string
}

// NewPalette creates a palette from material names.
func NewPalette(names ...string) *Palette {
	return &Palette{names: append([]string(nil), names...)}
}

// Len returns the number of materials.
func (p *Palette) Len() int {
	if p == nil {
		return 0
	}
	return len(p.names)
}

// Name returns the material name at index i.
func (p *Palette) Name(i int) (string, bool) {
	if i < 0 || i >= p.Len() {
		return "", false
	}
	return p.names[i], true
}

// Names returns a copy of all material names.
func (p *Palette) Names() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.names...)
}

// Resolve maps a requested material index onto the palette: indices are
// clamped into range and an empty palette yields NoMaterial.
func (p *Palette) Resolve(i int) int {
	n := p.Len()
	if n == 0 {
		return NoMaterial
	}
	return max(0, min(n-1, i))
}
