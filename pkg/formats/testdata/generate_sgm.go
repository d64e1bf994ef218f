//go:build ignore

// This program generates a sample SGM file: a textured quad plus a
// skinned triangle, exercising every optional vertex block.
// It is for manual inspection with "sgm2obj info" and external viewers;
// the package tests build their inputs in memory.
// Run with: go run generate_sgm.go
package main

import (
	"bytes"
	"encoding/binary"
	"os"
)

func main() {
	var buf bytes.Buffer
	le := binary.LittleEndian

	// Version
	binary.Write(&buf, le, uint32(1))
	buf.WriteByte(0)

	// 2 materials
	buf.WriteByte(2)

	// Material 0: one UV layer with diffuse + normal images
	buf.WriteByte(0)
	buf.WriteByte(1) // UV layers
	buf.WriteByte(2) // images
	writeImage(&buf, 0, "quad_diffuse.png")
	writeImage(&buf, 1, "quad_normal.png")
	buf.WriteByte(1) // colors
	buf.WriteByte(0)
	binary.Write(&buf, le, [4]float32{0.8, 0.8, 0.8, 1})

	// Material 1: untextured, half transparent
	buf.WriteByte(1)
	buf.WriteByte(0)
	buf.WriteByte(1)
	buf.WriteByte(0)
	binary.Write(&buf, le, [4]float32{0.1, 0.2, 0.3, 0.5})

	// 2 meshes
	buf.WriteByte(2)

	// Mesh 0: quad with one UV set and 16-bit indices
	buf.WriteByte(0) // id
	buf.WriteByte(0) // material
	binary.Write(&buf, le, uint32(4))
	buf.Write([]byte{1, 0, 0, 0}) // uv_count, texdata_count, tangents, bones
	quad := [][5]float32{
		{-1, -1, 0, 0, 1},
		{1, -1, 0, 1, 1},
		{1, 1, 0, 1, 0},
		{-1, 1, 0, 0, 0},
	}
	for _, q := range quad {
		binary.Write(&buf, le, [3]float32{q[0], q[1], q[2]})
		binary.Write(&buf, le, [3]float32{0, 0, 1})
		binary.Write(&buf, le, [2]float32{q[3], q[4]})
	}
	binary.Write(&buf, le, uint32(6))
	buf.WriteByte(2)
	binary.Write(&buf, le, []uint16{0, 1, 2, 0, 2, 3})

	// Mesh 1: skinned triangle with color, tangent and bones, 32-bit indices
	buf.WriteByte(1)
	buf.WriteByte(1)
	binary.Write(&buf, le, uint32(3))
	buf.Write([]byte{0, 4, 1, 1})
	for i, p := range [][3]float32{{0, 0, 1}, {1, 0, 1}, {0, 1, 1}} {
		binary.Write(&buf, le, p)
		binary.Write(&buf, le, [3]float32{0, 0, 1})
		// Color, tangent, weights, bones
		binary.Write(&buf, le, [4]float32{1, 1, 1, 1})
		binary.Write(&buf, le, [4]float32{1, 0, 0, 1})
		binary.Write(&buf, le, [4]float32{1, 0, 0, 0})
		binary.Write(&buf, le, [4]float32{float32(i), 0, 0, 0})
	}
	binary.Write(&buf, le, uint32(3))
	buf.WriteByte(4)
	binary.Write(&buf, le, []uint32{0, 1, 2})

	if err := os.WriteFile("sample.sgm", buf.Bytes(), 0644); err != nil {
		panic(err)
	}
}

func writeImage(buf *bytes.Buffer, usage uint8, name string) {
	buf.WriteByte(usage)
	binary.Write(buf, binary.LittleEndian, uint16(len(name)+1))
	buf.WriteString(name)
	buf.WriteByte(0)
}
