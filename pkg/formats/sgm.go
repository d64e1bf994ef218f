// SGM (binary model container) parser.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/sgm2obj/pkg/encoding"
	"github.com/Faultbox/sgm2obj/pkg/math"
)

// SGM format errors.
var (
	ErrTruncatedSGMData       = errors.New("truncated SGM data")
	ErrInvalidSGMTextureName  = errors.New("invalid SGM texture name")
	ErrInvalidSGMStringLength = errors.New("invalid SGM string length")
)

// Index width selector values.
const (
	SGMIndexSize16 uint8 = 2
	SGMIndexSize32 uint8 = 4
)

// sgmColorTexData is the texdata_count value that enables per-vertex colors.
const sgmColorTexData = 4

// SGMVersion holds the header tag. It is informational only; the layout
// does not branch on it.
type SGMVersion struct {
	Format   uint32
	Revision uint8
}

// String returns the version as "Format.Revision".
func (v SGMVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Format, v.Revision)
}

// SGMTexture is one image bound to a UV layer.
type SGMTexture struct {
	Usage uint8  // Engine-defined usage hint (diffuse, normal, ...)
	Name  string // Texture file name
}

// SGMUVLayer is the set of images bound to one UV channel.
type SGMUVLayer struct {
	Textures []SGMTexture
}

// SGMColor is a material color entry.
type SGMColor struct {
	RGBA [4]float32
	ID   uint8
}

// SGMMaterial is a material definition.
type SGMMaterial struct {
	ID       uint8
	UVLayers []SGMUVLayer
	Colors   []SGMColor
}

// Diffuse returns the first color entry, which drives diffuse color and opacity.
func (m *SGMMaterial) Diffuse() (SGMColor, bool) {
	if len(m.Colors) == 0 {
		return SGMColor{}, false
	}
	return m.Colors[0], true
}

// TextureNames returns every texture name in layer order, then image order.
func (m *SGMMaterial) TextureNames() []string {
	var names []string
	for _, layer := range m.UVLayers {
		for _, tex := range layer.Textures {
			names = append(names, tex.Name)
		}
	}
	return names
}

// SGMLayout describes which vertex attribute blocks a mesh stores.
// It is fixed per mesh and applies to every vertex in it.
type SGMLayout struct {
	UVCount      uint8
	TexDataCount uint8
	HasColor     bool // TexDataCount == 4
	HasTangent   bool
	HasBones     bool // Bone weights and bone indices
}

// VertexSize returns the number of bytes one vertex occupies on disk.
func (l SGMLayout) VertexSize() int {
	size := 12 + 12 + int(l.UVCount)*8
	if l.HasColor {
		size += 16
	}
	if l.HasTangent {
		size += 16
	}
	if l.HasBones {
		size += 32
	}
	return size
}

// SGMVertex is a single decoded vertex. Optional blocks are nil when the
// mesh layout does not store them.
type SGMVertex struct {
	Position    [3]float32
	Normal      [3]float32
	UVs         [][2]float32
	Color       *[4]float32
	Tangent     *[4]float32
	BoneWeights *[4]float32
	BoneIndices *[4]float32 // Stored as floats; not converted to integers
}

// SGMMesh is one drawable unit.
type SGMMesh struct {
	ID         uint8
	MaterialID uint8
	Layout     SGMLayout
	Vertices   []SGMVertex
	Indices    []uint32 // Offset into the file-wide vertex numbering
	IndexSize  uint8    // Width selector as stored
}

// HasUVs returns true if every vertex of the mesh carries texture coordinates.
func (m *SGMMesh) HasUVs() bool {
	return m.Layout.UVCount > 0
}

// SGM represents a parsed SGM model file.
type SGM struct {
	Version   SGMVersion
	Materials []SGMMaterial
	Meshes    []SGMMesh
}

// ParseSGM parses SGM data from a byte slice. Texture names must be UTF-8.
func ParseSGM(data []byte) (*SGM, error) {
	return ParseSGMWithDecoder(data, encoding.DecodeUTF8)
}

// ParseSGMWithDecoder parses SGM data, decoding texture names with dec.
func ParseSGMWithDecoder(data []byte, dec encoding.NameDecoder) (*SGM, error) {
	if dec == nil {
		dec = encoding.DecodeUTF8
	}
	r := &sgmReader{r: bytes.NewReader(data), decodeName: dec}

	sgm := &SGM{}
	if err := r.read(&sgm.Version.Format); err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}
	if err := r.read(&sgm.Version.Revision); err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}

	// Materials
	materialCount, err := r.u8()
	if err != nil {
		return nil, fmt.Errorf("reading material count: %w", err)
	}
	sgm.Materials = make([]SGMMaterial, materialCount)
	for i := range sgm.Materials {
		if err := r.parseMaterial(&sgm.Materials[i]); err != nil {
			return nil, fmt.Errorf("parsing material %d: %w", i, err)
		}
	}

	// Meshes
	meshCount, err := r.u8()
	if err != nil {
		return nil, fmt.Errorf("reading mesh count: %w", err)
	}
	sgm.Meshes = make([]SGMMesh, meshCount)
	var offset uint32
	for i := range sgm.Meshes {
		mesh, next, err := r.parseMesh(offset)
		if err != nil {
			return nil, fmt.Errorf("parsing mesh %d: %w", i, err)
		}
		sgm.Meshes[i] = *mesh
		offset = next
	}

	return sgm, nil
}

// ParseSGMFile parses an SGM file from disk.
func ParseSGMFile(path string) (*SGM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading SGM file: %w", err)
	}
	return ParseSGM(data)
}

// sgmReader is a forward-only cursor over SGM data.
type sgmReader struct {
	r          *bytes.Reader
	decodeName encoding.NameDecoder
}

// read decodes a fixed-size little-endian value.
func (r *sgmReader) read(v any) error {
	if err := binary.Read(r.r, binary.LittleEndian, v); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTruncatedSGMData
		}
		return err
	}
	return nil
}

func (r *sgmReader) u8() (uint8, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, ErrTruncatedSGMData
	}
	return b, nil
}

// require fails if fewer than n bytes remain.
func (r *sgmReader) require(n uint64) error {
	if uint64(r.r.Len()) < n {
		return ErrTruncatedSGMData
	}
	return nil
}

// readName reads a string stored as (length+1) u16, length bytes and a
// terminator byte.
func (r *sgmReader) readName() (string, error) {
	var stored uint16
	if err := r.read(&stored); err != nil {
		return "", err
	}
	if stored == 0 {
		return "", ErrInvalidSGMStringLength
	}
	n := int(stored) - 1
	if err := r.require(uint64(n) + 1); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return "", ErrTruncatedSGMData
	}
	// Terminator
	if _, err := r.r.ReadByte(); err != nil {
		return "", ErrTruncatedSGMData
	}
	name, err := r.decodeName(buf)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSGMTextureName, err)
	}
	return name, nil
}

func (r *sgmReader) parseMaterial(mat *SGMMaterial) error {
	var err error
	if mat.ID, err = r.u8(); err != nil {
		return err
	}

	layerCount, err := r.u8()
	if err != nil {
		return err
	}
	mat.UVLayers = make([]SGMUVLayer, layerCount)
	for i := range mat.UVLayers {
		imageCount, err := r.u8()
		if err != nil {
			return err
		}
		layer := &mat.UVLayers[i]
		layer.Textures = make([]SGMTexture, imageCount)
		for j := range layer.Textures {
			tex := &layer.Textures[j]
			if tex.Usage, err = r.u8(); err != nil {
				return err
			}
			if tex.Name, err = r.readName(); err != nil {
				return fmt.Errorf("layer %d image %d: %w", i, j, err)
			}
		}
	}

	colorCount, err := r.u8()
	if err != nil {
		return err
	}
	mat.Colors = make([]SGMColor, colorCount)
	for i := range mat.Colors {
		c := &mat.Colors[i]
		if c.ID, err = r.u8(); err != nil {
			return err
		}
		if err := r.read(&c.RGBA); err != nil {
			return err
		}
	}
	return nil
}

// parseMesh reads one mesh whose indices are shifted by offset. It returns
// the offset to use for the next mesh.
func (r *sgmReader) parseMesh(offset uint32) (*SGMMesh, uint32, error) {
	var header struct {
		ID           uint8
		MaterialID   uint8
		VertexCount  uint32
		UVCount      uint8
		TexDataCount uint8
		HasTangents  uint8
		HasBones     uint8
	}
	if err := r.read(&header); err != nil {
		return nil, 0, err
	}

	mesh := &SGMMesh{
		ID:         header.ID,
		MaterialID: header.MaterialID,
		Layout: SGMLayout{
			UVCount:      header.UVCount,
			TexDataCount: header.TexDataCount,
			HasColor:     header.TexDataCount == sgmColorTexData,
			HasTangent:   header.HasTangents != 0,
			HasBones:     header.HasBones != 0,
		},
	}

	if err := r.require(uint64(header.VertexCount) * uint64(mesh.Layout.VertexSize())); err != nil {
		return nil, 0, fmt.Errorf("%d vertices: %w", header.VertexCount, err)
	}
	vertices, err := r.parseVertices(int(header.VertexCount), mesh.Layout)
	if err != nil {
		return nil, 0, err
	}
	mesh.Vertices = vertices

	var indexCount uint32
	if err := r.read(&indexCount); err != nil {
		return nil, 0, err
	}
	if mesh.IndexSize, err = r.u8(); err != nil {
		return nil, 0, err
	}

	width := uint64(SGMIndexSize16)
	if mesh.IndexSize == SGMIndexSize32 {
		width = uint64(SGMIndexSize32)
	}
	if err := r.require(uint64(indexCount) * width); err != nil {
		return nil, 0, fmt.Errorf("%d indices: %w", indexCount, err)
	}

	mesh.Indices = make([]uint32, indexCount)
	for i := range mesh.Indices {
		if width == uint64(SGMIndexSize32) {
			var idx uint32
			if err := r.read(&idx); err != nil {
				return nil, 0, err
			}
			mesh.Indices[i] = idx + offset
		} else {
			var idx uint16
			if err := r.read(&idx); err != nil {
				return nil, 0, err
			}
			mesh.Indices[i] = uint32(idx) + offset
		}
	}

	return mesh, offset + header.VertexCount, nil
}

// parseVertices reads count vertices laid out as position, normal, UVs,
// color, tangent, weights, bones.
func (r *sgmReader) parseVertices(count int, layout SGMLayout) ([]SGMVertex, error) {
	vertices := make([]SGMVertex, count)

	// Backing storage shared by every vertex of the mesh
	uvs := make([][2]float32, count*int(layout.UVCount))
	extras := 0
	if layout.HasColor {
		extras++
	}
	if layout.HasTangent {
		extras++
	}
	if layout.HasBones {
		extras += 2
	}
	quads := make([][4]float32, count*extras)
	next := func() (*[4]float32, error) {
		q := &quads[0]
		quads = quads[1:]
		return q, r.read(q)
	}

	for i := range vertices {
		v := &vertices[i]
		if err := r.read(&v.Position); err != nil {
			return nil, err
		}
		if err := r.read(&v.Normal); err != nil {
			return nil, err
		}

		v.UVs = uvs[i*int(layout.UVCount) : (i+1)*int(layout.UVCount)]
		for j := range v.UVs {
			if err := r.read(&v.UVs[j]); err != nil {
				return nil, err
			}
		}

		var err error
		if layout.HasColor {
			if v.Color, err = next(); err != nil {
				return nil, err
			}
		}
		if layout.HasTangent {
			if v.Tangent, err = next(); err != nil {
				return nil, err
			}
		}
		if layout.HasBones {
			if v.BoneWeights, err = next(); err != nil {
				return nil, err
			}
			if v.BoneIndices, err = next(); err != nil {
				return nil, err
			}
		}
	}
	return vertices, nil
}

// TotalVertexCount returns the number of vertices across all meshes.
func (sgm *SGM) TotalVertexCount() int {
	total := 0
	for _, mesh := range sgm.Meshes {
		total += len(mesh.Vertices)
	}
	return total
}

// TotalIndexCount returns the number of indices across all meshes.
func (sgm *SGM) TotalIndexCount() int {
	total := 0
	for _, mesh := range sgm.Meshes {
		total += len(mesh.Indices)
	}
	return total
}

// TotalTriangleCount returns the number of complete index triples.
func (sgm *SGM) TotalTriangleCount() int {
	total := 0
	for _, mesh := range sgm.Meshes {
		total += len(mesh.Indices) / 3
	}
	return total
}

// MaterialByID returns the first material with the given id, or nil.
func (sgm *SGM) MaterialByID(id uint8) *SGMMaterial {
	for i := range sgm.Materials {
		if sgm.Materials[i].ID == id {
			return &sgm.Materials[i]
		}
	}
	return nil
}

// Bounds returns the axis-aligned bounds of every vertex position.
// ok is false for a model without vertices.
func (sgm *SGM) Bounds() (lo, hi math.Vec3, ok bool) {
	for _, mesh := range sgm.Meshes {
		for _, v := range mesh.Vertices {
			p := math.Vec3From(v.Position)
			if !ok {
				lo, hi, ok = p, p, true
				continue
			}
			lo = lo.Min(p)
			hi = hi.Max(p)
		}
	}
	return lo, hi, ok
}
