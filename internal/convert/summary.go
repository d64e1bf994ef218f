package convert

import (
	"github.com/Faultbox/sgm2obj/pkg/formats"
	"github.com/Faultbox/sgm2obj/pkg/math"
)

// Summary holds statistics about a decoded model.
type Summary struct {
	Version    formats.SGMVersion
	Materials  int
	Textures   int
	Meshes     int
	Vertices   int
	Triangles  int
	Degenerate int // Zero-area triangles or triangles with out-of-range indices

	HasBounds bool
	Min, Max  math.Vec3

	HasUVs       bool
	UVMin, UVMax math.Vec2 // First UV channel

	// Meshes whose material id matches no material
	DanglingMaterials []uint8
}

// Size returns the extent of the bounding box.
func (s Summary) Size() math.Vec3 {
	return s.Max.Sub(s.Min)
}

// Inspect gathers statistics about model.
func Inspect(model *formats.SGM) Summary {
	s := Summary{
		Version:   model.Version,
		Materials: len(model.Materials),
		Meshes:    len(model.Meshes),
		Vertices:  model.TotalVertexCount(),
		Triangles: model.TotalTriangleCount(),
	}
	for i := range model.Materials {
		s.Textures += len(model.Materials[i].TextureNames())
	}

	s.Min, s.Max, s.HasBounds = model.Bounds()

	// Flattened positions, addressed by the file-wide indices
	positions := make([]math.Vec3, 0, s.Vertices)
	for _, mesh := range model.Meshes {
		for _, v := range mesh.Vertices {
			positions = append(positions, math.Vec3From(v.Position))
		}
	}

	for i := range model.Meshes {
		mesh := &model.Meshes[i]
		if model.MaterialByID(mesh.MaterialID) == nil {
			s.DanglingMaterials = append(s.DanglingMaterials, mesh.MaterialID)
		}

		for _, v := range mesh.Vertices {
			if len(v.UVs) == 0 {
				continue
			}
			uv := math.Vec2{X: v.UVs[0][0], Y: v.UVs[0][1]}
			if !s.HasUVs {
				s.UVMin, s.UVMax, s.HasUVs = uv, uv, true
				continue
			}
			s.UVMin = s.UVMin.Min(uv)
			s.UVMax = s.UVMax.Max(uv)
		}

		for j := 0; j+2 < len(mesh.Indices); j += 3 {
			a, b, c := mesh.Indices[j], mesh.Indices[j+1], mesh.Indices[j+2]
			if int(a) >= len(positions) || int(b) >= len(positions) || int(c) >= len(positions) {
				s.Degenerate++
				continue
			}
			edge1 := positions[b].Sub(positions[a])
			edge2 := positions[c].Sub(positions[a])
			if edge1.Cross(edge2).Length() == 0 {
				s.Degenerate++
			}
		}
	}

	return s
}
