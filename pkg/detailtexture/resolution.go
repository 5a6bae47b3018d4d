package detailtexture

// TileResolution scales the baked tile's texel width down as LOD
// increases, so distant low-detail blocks don't pay for full-resolution
// normal maps. It is monotonically non-increasing in lod and clamped to
// [minTile, maxTile].
func TileResolution(baseTile, minTile, maxTile int, lod, beginLOD uint8) int {
	if lod <= beginLOD {
		return clampInt(baseTile, minTile, maxTile)
	}
	shift := lod - beginLOD
	res := baseTile >> shift
	return clampInt(res, minTile, maxTile)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
