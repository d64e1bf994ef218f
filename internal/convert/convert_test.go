package convert

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/sgm2obj/internal/config"
	"github.com/Faultbox/sgm2obj/pkg/encoding"
	"github.com/Faultbox/sgm2obj/pkg/formats"
)

// createTestSGM builds version 1.0 with one material (id 7, red) and one
// unit-triangle mesh (id 3) using 16-bit indices.
func createTestSGM() []byte {
	buf := new(bytes.Buffer)
	le := binary.LittleEndian

	binary.Write(buf, le, uint32(1))
	buf.WriteByte(0)

	// Materials
	buf.WriteByte(1)
	buf.WriteByte(7) // id
	buf.WriteByte(0) // UV layers
	buf.WriteByte(1) // colors
	buf.WriteByte(0)
	binary.Write(buf, le, [4]float32{1, 0, 0, 1})

	// Meshes
	buf.WriteByte(1)
	buf.WriteByte(3) // id
	buf.WriteByte(7) // material
	binary.Write(buf, le, uint32(3))
	buf.Write([]byte{0, 0, 0, 0}) // uv_count, texdata_count, tangents, bones
	for _, p := range [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}} {
		binary.Write(buf, le, p)
		binary.Write(buf, le, [3]float32{0, 0, 1})
	}
	binary.Write(buf, le, uint32(3))
	buf.WriteByte(2)
	binary.Write(buf, le, []uint16{0, 1, 2})

	return buf.Bytes()
}

func writeInput(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tri.sgm")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}
	return path
}

func countLines(text, prefix string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}

func TestRun_Triangle(t *testing.T) {
	input := writeInput(t, createTestSGM())
	opts := OptionsFromConfig(config.Default())

	result, err := Run(input, opts, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	dir := filepath.Dir(input)
	if result.GeometryPath != filepath.Join(dir, "tri.obj") {
		t.Errorf("unexpected geometry path %s", result.GeometryPath)
	}
	if result.MaterialPath != filepath.Join(dir, "tri.mtl") {
		t.Errorf("unexpected material path %s", result.MaterialPath)
	}

	geometry, err := os.ReadFile(result.GeometryPath)
	if err != nil {
		t.Fatalf("failed to read geometry: %v", err)
	}
	obj := string(geometry)

	if !strings.HasPrefix(obj, "mtllib tri.mtl\n") {
		t.Errorf("expected mtllib line first, got:\n%s", obj)
	}
	checks := []struct {
		prefix string
		want   int
	}{
		{"o 3", 1},
		{"usemtl 7", 1},
		{"v ", 3},
		{"vn ", 3},
		{"f ", 1},
		{"f 1//1 2//2 3//3", 1},
	}
	for _, c := range checks {
		if got := countLines(obj, c.prefix); got != c.want {
			t.Errorf("expected %d %q lines, got %d", c.want, c.prefix, got)
		}
	}

	material, err := os.ReadFile(result.MaterialPath)
	if err != nil {
		t.Fatalf("failed to read material: %v", err)
	}
	mtl := string(material)
	for _, want := range []string{"newmtl 7\n", "Kd 1.0 0.0 0.0\n", "d 1.0\n"} {
		if !strings.Contains(mtl, want) {
			t.Errorf("expected %q in material file:\n%s", want, mtl)
		}
	}
	if strings.Contains(mtl, "map_Kd") {
		t.Errorf("unexpected texture line for mesh without UVs:\n%s", mtl)
	}
}

func TestRun_ExplicitOutput(t *testing.T) {
	input := writeInput(t, createTestSGM())
	output := filepath.Join(t.TempDir(), "model.obj")

	opts := OptionsFromConfig(config.Default())
	opts.Output = output
	opts.Opacity = false

	result, err := Run(input, opts, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.GeometryPath != output {
		t.Errorf("expected geometry at %s, got %s", output, result.GeometryPath)
	}

	mtl, err := os.ReadFile(filepath.Join(filepath.Dir(output), "model.mtl"))
	if err != nil {
		t.Fatalf("material file missing: %v", err)
	}
	if strings.Contains(string(mtl), "\nd ") {
		t.Errorf("unexpected opacity line:\n%s", mtl)
	}
}

func TestRun_TruncatedWritesNothing(t *testing.T) {
	data := createTestSGM()
	input := writeInput(t, data[:len(data)-3])

	_, err := Run(input, OptionsFromConfig(config.Default()), nil)
	if !errors.Is(err, formats.ErrTruncatedSGMData) {
		t.Fatalf("expected ErrTruncatedSGMData, got %v", err)
	}

	geometry, material, err := OutputPaths(input, "", ".obj", ".mtl")
	if err != nil {
		t.Fatalf("OutputPaths failed: %v", err)
	}
	for _, path := range []string{geometry, material} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("expected %s not to exist", path)
		}
	}
}

func TestRun_MissingInput(t *testing.T) {
	_, err := Run(filepath.Join(t.TempDir(), "missing.sgm"), OptionsFromConfig(config.Default()), nil)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestRun_UnknownEncoding(t *testing.T) {
	input := writeInput(t, createTestSGM())
	opts := OptionsFromConfig(config.Default())
	opts.NameEncoding = "ebcdic"

	_, err := Run(input, opts, nil)
	if !errors.Is(err, encoding.ErrUnknownEncoding) {
		t.Errorf("expected ErrUnknownEncoding, got %v", err)
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		output       string
		geomExt      string
		mtlExt       string
		wantGeometry string
		wantMaterial string
	}{
		{"derived", "models/car.sgm", "", ".obj", ".mtl", "models/car.obj", "models/car.mtl"},
		{"explicit", "car.sgm", "out/body.obj", ".obj", ".mtl", "out/body.obj", "out/body.mtl"},
		{"no extension", "car", "", ".obj", ".mtl", "car.obj", "car.mtl"},
		{"empty extensions", "car.sgm", "", "", "", "car.obj", "car.mtl"},
		{"custom extensions", "car.sgm", "", ".OBJ", ".MTL", "car.OBJ", "car.MTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geometry, material, err := OutputPaths(tt.input, tt.output, tt.geomExt, tt.mtlExt)
			if err != nil {
				t.Fatalf("OutputPaths failed: %v", err)
			}
			if geometry != tt.wantGeometry || material != tt.wantMaterial {
				t.Errorf("got (%s, %s), want (%s, %s)", geometry, material, tt.wantGeometry, tt.wantMaterial)
			}
		})
	}
}

func TestOutputPaths_Collision(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		output  string
		geomExt string
		mtlExt  string
	}{
		{"output ends in material ext", "car.sgm", "out.mtl", ".obj", ".mtl"},
		{"equal extensions", "car.sgm", "", ".obj", ".obj"},
		{"unclean output", "car.sgm", "out/./body.mtl", ".obj", ".mtl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := OutputPaths(tt.input, tt.output, tt.geomExt, tt.mtlExt)
			if !errors.Is(err, ErrOutputCollision) {
				t.Errorf("expected ErrOutputCollision, got %v", err)
			}
		})
	}
}

func TestRun_OutputCollisionWritesNothing(t *testing.T) {
	input := writeInput(t, createTestSGM())
	opts := OptionsFromConfig(config.Default())
	opts.Output = filepath.Join(filepath.Dir(input), "out.mtl")

	_, err := Run(input, opts, nil)
	if !errors.Is(err, ErrOutputCollision) {
		t.Fatalf("expected ErrOutputCollision, got %v", err)
	}
	if _, err := os.Stat(opts.Output); !os.IsNotExist(err) {
		t.Errorf("expected %s not to exist", opts.Output)
	}
}

func TestInspect(t *testing.T) {
	model, err := formats.ParseSGM(createTestSGM())
	if err != nil {
		t.Fatalf("ParseSGM failed: %v", err)
	}
	// Second mesh references a missing material and repeats a corner
	model.Meshes = append(model.Meshes, formats.SGMMesh{
		ID:         4,
		MaterialID: 9,
		Layout:     formats.SGMLayout{UVCount: 1},
		Vertices: []formats.SGMVertex{
			{Position: [3]float32{2, 2, 2}, UVs: [][2]float32{{0.5, -1}}},
			{Position: [3]float32{3, 2, 2}, UVs: [][2]float32{{2, 0.25}}},
		},
		Indices: []uint32{3, 4, 4},
	})

	s := Inspect(model)

	if s.Materials != 1 || s.Meshes != 2 || s.Vertices != 5 || s.Triangles != 2 {
		t.Errorf("unexpected counts %+v", s)
	}
	if s.Degenerate != 1 {
		t.Errorf("expected 1 degenerate triangle, got %d", s.Degenerate)
	}
	if len(s.DanglingMaterials) != 1 || s.DanglingMaterials[0] != 9 {
		t.Errorf("expected dangling material 9, got %v", s.DanglingMaterials)
	}
	if !s.HasBounds {
		t.Fatal("expected bounds")
	}
	if size := s.Size(); size.X != 3 || size.Y != 2 || size.Z != 2 {
		t.Errorf("unexpected size %v", size)
	}
	if !s.HasUVs || s.UVMin.X != 0.5 || s.UVMin.Y != -1 || s.UVMax.X != 2 || s.UVMax.Y != 0.25 {
		t.Errorf("unexpected UV range %v..%v", s.UVMin, s.UVMax)
	}
}
