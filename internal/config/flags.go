package config

import "flag"

// Flags holds command-line overrides bound to a flag set.
type Flags struct {
	Config    string
	Debug     bool
	Texture   string
	NoOpacity bool
	Encoding  string
	LogFile   string
}

// BindFlags registers the converter flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.Texture, "texture", "", "Use this texture name for every textured material")
	fs.BoolVar(&f.NoOpacity, "no-opacity", false, "Omit d (opacity) lines from the material file")
	fs.StringVar(&f.Encoding, "encoding", "", "Texture name encoding (utf-8, euc-kr)")
	fs.StringVar(&f.LogFile, "log-file", "", "Also write logs to this file")
	return f
}

// apply applies flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Texture != "" {
		cfg.Convert.Texture = f.Texture
	}
	if f.NoOpacity {
		cfg.Convert.Opacity = false
	}
	if f.Encoding != "" {
		cfg.Convert.NameEncoding = f.Encoding
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
}
