// sgm2obj converts SGM model files to Wavefront OBJ/MTL.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/sgm2obj/internal/config"
	"github.com/Faultbox/sgm2obj/internal/convert"
	"github.com/Faultbox/sgm2obj/internal/logger"
	"github.com/Faultbox/sgm2obj/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "convert", "c":
		cmdConvert(args)
	case "info":
		cmdInfo(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		if strings.HasPrefix(command, "-") || strings.HasSuffix(strings.ToLower(command), ".sgm") {
			cmdConvert(os.Args[1:])
			return
		}
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sgm2obj - SGM model to Wavefront OBJ converter

Usage:
  sgm2obj <command> [options]

Commands:
  convert [flags] <file.sgm> [output.obj]  Write OBJ geometry and MTL materials
  info [flags] <file.sgm>                  Show model statistics
  config init [path]                       Write the default config file

Flags must come before the input file.

Convert flags:
  -texture <name>     Use one texture name for every textured material
  -no-opacity         Omit d lines from the material file
  -encoding <name>    Texture name encoding (utf-8, euc-kr)
  -config <path>      Config file
  -debug              Debug logging
  -log-file <path>    Also log to a rotated file

Examples:
  sgm2obj convert car.sgm
  sgm2obj convert -texture car_diffuse.png car.sgm out/car.obj
  sgm2obj info car.sgm`)
}

// setup parses flags, loads config and starts logging.
func setup(name string, args []string) (*config.Config, *flag.FlagSet) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	flags := config.BindFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if arg := strayFlag(fs.Args()); arg != "" {
		fmt.Fprintf(os.Stderr, "Error: flag %s must come before the input file\n", arg)
		os.Exit(1)
	}
	logger.Debug("configuration loaded",
		zap.String("command", name),
		zap.String("encoding", cfg.Convert.NameEncoding),
		zap.Bool("opacity", cfg.Convert.Opacity))
	return cfg, fs
}

// strayFlag returns the first positional argument that looks like a flag.
// flag stops parsing at the first non-flag argument, so anything after the
// input file would otherwise be ignored.
func strayFlag(args []string) string {
	for _, arg := range args {
		if len(arg) > 1 && strings.HasPrefix(arg, "-") {
			return arg
		}
	}
	return ""
}

func cmdConvert(args []string) {
	cfg, fs := setup("convert", args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sgm2obj convert [flags] <file.sgm> [output.obj]")
		os.Exit(1)
	}

	opts := convert.OptionsFromConfig(cfg)
	if fs.NArg() > 1 {
		opts.Output = fs.Arg(1)
	}
	logger.Sugar.Debugf("converting %s with options %+v", fs.Arg(0), opts)

	result, err := convert.Run(fs.Arg(0), opts, logger.Log)
	if err != nil {
		logger.Error("conversion failed", zap.String("input", fs.Arg(0)), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("conversion complete",
		zap.String("geometry", result.GeometryPath),
		zap.String("material", result.MaterialPath),
		zap.Int("meshes", len(result.Model.Meshes)),
		zap.Int("triangles", result.Model.TotalTriangleCount()))
}

func cmdInfo(args []string) {
	cfg, fs := setup("info", args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sgm2obj info <file.sgm>")
		os.Exit(1)
	}

	model, err := convert.Decode(fs.Arg(0), cfg.Convert.NameEncoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	s := convert.Inspect(model)

	fmt.Printf("File:      %s\n", fs.Arg(0))
	fmt.Printf("Version:   %s\n", s.Version)
	fmt.Printf("Materials: %d (%d textures)\n", s.Materials, s.Textures)
	fmt.Printf("Meshes:    %d\n", s.Meshes)
	fmt.Printf("Vertices:  %d\n", s.Vertices)
	fmt.Printf("Triangles: %d (%d degenerate)\n", s.Triangles, s.Degenerate)
	if s.HasBounds {
		size := s.Size()
		fmt.Printf("Bounds:    (%g, %g, %g) - (%g, %g, %g)\n", s.Min.X, s.Min.Y, s.Min.Z, s.Max.X, s.Max.Y, s.Max.Z)
		fmt.Printf("Size:      %g x %g x %g\n", size.X, size.Y, size.Z)
	}
	if s.HasUVs {
		fmt.Printf("UV range:  (%g, %g) - (%g, %g)\n", s.UVMin.X, s.UVMin.Y, s.UVMax.X, s.UVMax.Y)
	}
	if len(s.DanglingMaterials) > 0 {
		logger.Warn("meshes reference missing materials",
			zap.String("input", fs.Arg(0)),
			zap.Uint8s("materials", s.DanglingMaterials))
	}

	fmt.Println()
	fmt.Println("Materials:")
	for _, mat := range model.Materials {
		line := fmt.Sprintf("  %-4d layers=%d colors=%d", mat.ID, len(mat.UVLayers), len(mat.Colors))
		if c, ok := mat.Diffuse(); ok {
			line += fmt.Sprintf(" rgba=(%g, %g, %g, %g)", c.RGBA[0], c.RGBA[1], c.RGBA[2], c.RGBA[3])
		}
		fmt.Println(line)
		for layer, uv := range mat.UVLayers {
			for _, tex := range uv.Textures {
				fmt.Printf("       uv%d usage=%d %s\n", layer, tex.Usage, tex.Name)
			}
		}
	}

	fmt.Println()
	fmt.Println("Meshes:")
	for _, mesh := range model.Meshes {
		var attrs []string
		if mesh.Layout.UVCount > 0 {
			attrs = append(attrs, fmt.Sprintf("uv=%d", mesh.Layout.UVCount))
		}
		if mesh.Layout.HasColor {
			attrs = append(attrs, "color")
		}
		if mesh.Layout.HasTangent {
			attrs = append(attrs, "tangent")
		}
		if mesh.Layout.HasBones {
			attrs = append(attrs, "bones")
		}
		fmt.Printf("  %-4d material=%-4d vertices=%-7d triangles=%-7d index=%d-bit %s\n",
			mesh.ID, mesh.MaterialID, len(mesh.Vertices), len(mesh.Indices)/3,
			indexBits(mesh.IndexSize), strings.Join(attrs, ","))
	}
}

func indexBits(selector uint8) int {
	if selector == formats.SGMIndexSize32 {
		return 32
	}
	return 16
}

func cmdConfig(args []string) {
	if len(args) < 1 || args[0] != "init" {
		fmt.Fprintln(os.Stderr, "Usage: sgm2obj config init [path]")
		os.Exit(1)
	}

	cfg := config.Default()
	var (
		path string
		err  error
	)
	if len(args) > 1 {
		path = args[1]
		err = cfg.SaveTo(path)
	} else {
		path, err = cfg.Save()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", path)
}
