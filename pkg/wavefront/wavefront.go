// Package wavefront writes decoded SGM models as Wavefront OBJ geometry
// with a companion MTL material library.
package wavefront

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/sgm2obj/pkg/formats"
)

// ErrWrite is returned when an output sink rejects data.
var ErrWrite = errors.New("write failed")

// Options controls OBJ/MTL output.
type Options struct {
	MaterialLib string      // File name written on the mtllib line
	Texture     string      // Overrides every map_Kd when set
	Opacity     bool        // Write the d line for each material
	Logger      *zap.Logger // Receives one entry per mesh; nil disables
}

// Encode writes the geometry and material files for model.
func Encode(model *formats.SGM, geometry, material io.Writer, opts Options) error {
	if err := WriteMaterials(model, material, opts); err != nil {
		return fmt.Errorf("writing materials: %w", err)
	}
	if err := WriteGeometry(model, geometry, opts); err != nil {
		return fmt.Errorf("writing geometry: %w", err)
	}
	return nil
}

// WriteMaterials writes one newmtl block per material, in model order.
//
// Texture lines are emitted when the mesh at the same list position has
// UVs. The pairing is positional, not by material id.
func WriteMaterials(model *formats.SGM, w io.Writer, opts Options) error {
	lw := newLineWriter(w)

	for i := range model.Materials {
		mat := &model.Materials[i]
		lw.printf("newmtl %d\n", mat.ID)

		if diffuse, ok := mat.Diffuse(); ok {
			c := diffuse.RGBA
			lw.printf("Kd %s %s %s\n", formatFloat(c[0]), formatFloat(c[1]), formatFloat(c[2]))
			if opts.Opacity {
				lw.printf("d %s\n", formatFloat(c[3]))
			}
		}

		if i >= len(model.Meshes) || !model.Meshes[i].HasUVs() {
			continue
		}
		if opts.Texture != "" {
			lw.printf("map_Kd %s\n", opts.Texture)
			continue
		}
		for _, name := range mat.TextureNames() {
			lw.printf("map_Kd %s\n", name)
		}
	}

	return lw.flush()
}

// WriteGeometry writes the OBJ geometry. Vertices are numbered across the
// whole file, matching the offset indices produced by the decoder.
func WriteGeometry(model *formats.SGM, w io.Writer, opts Options) error {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	lw := newLineWriter(w)

	lw.printf("mtllib %s\n", opts.MaterialLib)

	// One vt per bound image, column = image, row = layer
	for _, mat := range model.Materials {
		for layer, uv := range mat.UVLayers {
			for image := range uv.Textures {
				lw.printf("vt %d %d\n", image+1, layer+1)
			}
		}
	}

	for i := range model.Meshes {
		mesh := &model.Meshes[i]
		lw.printf("o %d\n", mesh.ID)
		lw.printf("usemtl %d\n", mesh.MaterialID)

		for _, v := range mesh.Vertices {
			lw.printf("v %s %s %s\n", formatFloat(v.Position[0]), formatFloat(v.Position[1]), formatFloat(v.Position[2]))
			lw.printf("vn %s %s %s\n", formatFloat(v.Normal[0]), formatFloat(v.Normal[1]), formatFloat(v.Normal[2]))
			if len(v.UVs) > 0 {
				uv := v.UVs[0]
				lw.printf("vt %s %s\n", formatFloat(uv[0]), formatFloat(1-uv[1]))
			} else {
				lw.printf("vt 0.0 0.0\n")
			}
		}

		withUV := mesh.HasUVs()
		for j := 0; j+2 < len(mesh.Indices); j += 3 {
			a, b, c := mesh.Indices[j]+1, mesh.Indices[j+1]+1, mesh.Indices[j+2]+1
			if withUV {
				lw.printf("f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
			} else {
				lw.printf("f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
			}
		}

		if lw.err != nil {
			break
		}
		log.Info("mesh written",
			zap.Int("mesh", i+1),
			zap.Int("of", len(model.Meshes)),
			zap.Uint8("id", mesh.ID),
			zap.Int("vertices", len(mesh.Vertices)),
			zap.Int("triangles", len(mesh.Indices)/3))
	}

	return lw.flush()
}

// formatFloat renders f as the shortest decimal that reads back as the same
// float32, always keeping a decimal point.
func formatFloat(f float32) string {
	s := strconv.FormatFloat(float64(f), 'f', -1, 32)
	if strings.ContainsAny(s, ".NI") {
		return s
	}
	return s + ".0"
}

// lineWriter buffers output and keeps the first write error.
type lineWriter struct {
	w   *bufio.Writer
	err error
}

func newLineWriter(w io.Writer) *lineWriter {
	return &lineWriter{w: bufio.NewWriter(w)}
}

func (lw *lineWriter) printf(format string, args ...any) {
	if lw.err != nil {
		return
	}
	_, lw.err = fmt.Fprintf(lw.w, format, args...)
}

func (lw *lineWriter) flush() error {
	if lw.err == nil {
		lw.err = lw.w.Flush()
	}
	if lw.err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, lw.err)
	}
	return nil
}
