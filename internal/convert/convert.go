// Package convert runs the SGM to OBJ/MTL conversion for a single file.
package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/sgm2obj/internal/config"
	"github.com/Faultbox/sgm2obj/pkg/encoding"
	"github.com/Faultbox/sgm2obj/pkg/formats"
	"github.com/Faultbox/sgm2obj/pkg/wavefront"
)

// ErrOutputCollision is returned when the geometry and material files
// would resolve to the same path.
var ErrOutputCollision = errors.New("geometry and material outputs share a path")

// Options controls a single conversion.
type Options struct {
	Output       string // Geometry path; derived from the input when empty
	Texture      string
	Opacity      bool
	NameEncoding string
	GeometryExt  string
	MaterialExt  string
}

// OptionsFromConfig builds conversion options from loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Texture:      cfg.Convert.Texture,
		Opacity:      cfg.Convert.Opacity,
		NameEncoding: cfg.Convert.NameEncoding,
		GeometryExt:  cfg.Convert.GeometryExt,
		MaterialExt:  cfg.Convert.MaterialExt,
	}
}

// Result describes a finished conversion.
type Result struct {
	GeometryPath string
	MaterialPath string
	Model        *formats.SGM
}

// OutputPaths returns the geometry and material paths for input.
// The geometry path defaults to the input with geomExt; the material
// library sits next to the geometry file with mtlExt.
func OutputPaths(input, output, geomExt, mtlExt string) (geometry, material string, err error) {
	if geomExt == "" {
		geomExt = ".obj"
	}
	if mtlExt == "" {
		mtlExt = ".mtl"
	}
	geometry = output
	if geometry == "" {
		geometry = strings.TrimSuffix(input, filepath.Ext(input)) + geomExt
	}
	material = strings.TrimSuffix(geometry, filepath.Ext(geometry)) + mtlExt
	if filepath.Clean(geometry) == filepath.Clean(material) {
		return "", "", fmt.Errorf("%w: %s", ErrOutputCollision, geometry)
	}
	return geometry, material, nil
}

// Decode reads and parses an SGM file using the configured name encoding.
func Decode(input string, nameEncoding string) (*formats.SGM, error) {
	dec, err := encoding.NameDecoderFor(nameEncoding)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", input, err)
	}
	model, err := formats.ParseSGMWithDecoder(data, dec)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", input, err)
	}
	return model, nil
}

// Run converts input and writes the geometry and material files.
// The model is decoded completely before any output file is created.
// Files already written are left in place when encoding fails.
func Run(input string, opts Options, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}

	model, err := Decode(input, opts.NameEncoding)
	if err != nil {
		return nil, err
	}
	log.Debug("decoded model",
		zap.String("input", input),
		zap.Stringer("version", model.Version),
		zap.Int("materials", len(model.Materials)),
		zap.Int("meshes", len(model.Meshes)),
		zap.Int("vertices", model.TotalVertexCount()))

	geometryPath, materialPath, err := OutputPaths(input, opts.Output, opts.GeometryExt, opts.MaterialExt)
	if err != nil {
		return nil, err
	}

	geometry, err := os.Create(geometryPath)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", geometryPath, err)
	}
	defer geometry.Close()

	material, err := os.Create(materialPath)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", materialPath, err)
	}
	defer material.Close()

	err = wavefront.Encode(model, geometry, material, wavefront.Options{
		MaterialLib: filepath.Base(materialPath),
		Texture:     opts.Texture,
		Opacity:     opts.Opacity,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}

	if err := geometry.Close(); err != nil {
		return nil, fmt.Errorf("%w: closing %s: %w", wavefront.ErrWrite, geometryPath, err)
	}
	if err := material.Close(); err != nil {
		return nil, fmt.Errorf("%w: closing %s: %w", wavefront.ErrWrite, materialPath, err)
	}

	return &Result{
		GeometryPath: geometryPath,
		MaterialPath: materialPath,
		Model:        model,
	}, nil
}
