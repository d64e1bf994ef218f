// Package config handles converter configuration loading and management.
package config

// Config holds all converter settings.
type Config struct {
	Convert ConvertConfig `yaml:"convert"`
	Logging LoggingConfig `yaml:"logging"`
}

// ConvertConfig holds OBJ/MTL output settings.
type ConvertConfig struct {
	GeometryExt  string `yaml:"geometry_ext"`  // Extension of the derived geometry file
	MaterialExt  string `yaml:"material_ext"`  // Extension of the material library
	Texture      string `yaml:"texture"`       // Single texture used for every map_Kd
	Opacity      bool   `yaml:"opacity"`       // Write d lines
	NameEncoding string `yaml:"name_encoding"` // Texture name encoding: utf-8 or euc-kr
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Convert: ConvertConfig{
			GeometryExt:  ".obj",
			MaterialExt:  ".mtl",
			Texture:      "",
			Opacity:      true,
			NameEncoding: "utf-8",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
