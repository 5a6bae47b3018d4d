package meshblocky

// defaultFluidBase is the TYPE threshold above which a material is
// meshed as a fluid column rather than a solid cube.
const defaultFluidBase = 1 << 15

// Model describes how one material's solid cube is textured: one atlas
// tile index per face direction. Meshing itself is direction-agnostic
// (the greedy algorithm only cares whether a voxel is solid); Model
// only feeds the per-vertex UV remap a renderer applies afterward.
type Model struct {
	TileByFace [6]uint16
}

// ModelLibrary maps a TYPE value to its baked Model. Materials absent
// from the library render with tile 0 on every face.
type ModelLibrary map[uint64]Model

// UniformModel returns a Model using the same atlas tile on all 6
// faces, the common case for simple block types (stone, dirt, ...).
func UniformModel(tile uint16) Model {
	var m Model
	for i := range m.TileByFace {
		m.TileByFace[i] = tile
	}
	return m
}

// Bake builds a ModelLibrary from a material-to-tile mapping, assuming
// a uniform model per material. Callers needing per-face tiles (grass
// top/side/bottom, say) construct ModelLibrary entries directly.
func Bake(tileByMaterial map[uint64]uint16) ModelLibrary {
	lib := make(ModelLibrary, len(tileByMaterial))
	for mat, tile := range tileByMaterial {
		lib[mat] = UniformModel(tile)
	}
	return lib
}

// TileFor returns the atlas tile a face of material should sample.
func (lib ModelLibrary) TileFor(material uint64, dir Direction) uint16 {
	if m, ok := lib[material]; ok {
		return m.TileByFace[dir]
	}
	return 0
}
