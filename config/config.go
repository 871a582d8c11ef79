// Package config holds the rom version table and the configuration of an
// extraction run.
package config

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"
)

// Config map keys.
const (
	KeyVersion     = "Version"
	KeyRomPath     = "RomPath"
	KeyOutDir      = "OutDir"
	KeyBaseromDir  = "BaseromDir"
	KeyWorkers     = "Workers"
	KeyWriteRecord = "WriteRecord"
	KeyRecordDir   = "RecordDir"
	KeyDecoderPath = "DecoderPath"
	KeyBadFloats   = "BadFloats"
)

// Default config values.
const (
	defaultOutDir      = "assets"
	defaultBaseromDir  = "baserom"
	defaultDecoderPath = "tools/audio/z64sample/z64sample-native"
)

var defaultWorkers = runtime.NumCPU()

// Config is the configuration of one extraction run.
type Config struct {
	Logger logging.Logger

	// name of an entry of Versions
	Version string
	RomPath string

	// assets are written below OutDir, raw table and bank dumps below
	// BaseromDir
	OutDir     string
	BaseromDir string

	// number of samples encoded and decoded at once
	Workers int

	// WriteRecord writes an extraction record per sample bank. When
	// RecordDir is set, records found there replace tuning resolution for
	// the samples they list.
	WriteRecord bool
	RecordDir   string

	DecoderPath string

	// tuning floats tolerated one ulp off in addition to the defaults
	BadFloats []uint32
}

// Variable describes a config field that can be set by name.
type Variable struct {
	Name     string
	Update   func(*Config, string)
	Validate func(*Config)
}

var Variables = []Variable{
	{
		Name:   KeyVersion,
		Update: func(c *Config, v string) { c.Version = v },
	},
	{
		Name:   KeyRomPath,
		Update: func(c *Config, v string) { c.RomPath = v },
	},
	{
		Name:   KeyOutDir,
		Update: func(c *Config, v string) { c.OutDir = v },
		Validate: func(c *Config) {
			if c.OutDir == "" {
				c.LogInvalidField(KeyOutDir, defaultOutDir)
				c.OutDir = defaultOutDir
			}
		},
	},
	{
		Name:   KeyBaseromDir,
		Update: func(c *Config, v string) { c.BaseromDir = v },
		Validate: func(c *Config) {
			if c.BaseromDir == "" {
				c.LogInvalidField(KeyBaseromDir, defaultBaseromDir)
				c.BaseromDir = defaultBaseromDir
			}
		},
	},
	{
		Name:   KeyWorkers,
		Update: func(c *Config, v string) { c.Workers = parseInt(KeyWorkers, v, c) },
		Validate: func(c *Config) {
			if c.Workers <= 0 {
				c.LogInvalidField(KeyWorkers, defaultWorkers)
				c.Workers = defaultWorkers
			}
		},
	},
	{
		Name:   KeyWriteRecord,
		Update: func(c *Config, v string) { c.WriteRecord = parseBool(KeyWriteRecord, v, c) },
	},
	{
		Name:   KeyRecordDir,
		Update: func(c *Config, v string) { c.RecordDir = v },
	},
	{
		Name:   KeyDecoderPath,
		Update: func(c *Config, v string) { c.DecoderPath = v },
		Validate: func(c *Config) {
			if c.DecoderPath == "" {
				c.LogInvalidField(KeyDecoderPath, defaultDecoderPath)
				c.DecoderPath = defaultDecoderPath
			}
		},
	},
	{
		Name: KeyBadFloats,
		Update: func(c *Config, v string) {
			c.BadFloats = nil

			for _, field := range strings.Split(v, ",") {
				field = strings.TrimSpace(field)

				if field == "" {
					continue
				}

				bits, err := strconv.ParseUint(field, 0, 32)

				if err != nil {
					c.Logger.Warning(fmt.Sprintf("expected 32 bit float pattern for param %s", KeyBadFloats), "value", field)
					continue
				}

				c.BadFloats = append(c.BadFloats, uint32(bits))
			}
		},
	},
}

// Validate defaults unset or bad fields. Fields without a usable default
// make it return an error.
func (c *Config) Validate() error {
	for _, v := range Variables {
		if v.Validate != nil {
			v.Validate(c)
		}
	}

	if _, err := LookupVersion(c.Version); err != nil {
		return err
	}

	if c.RomPath == "" {
		return errors.New("no rom path given")
	}

	return nil
}

// Update sets the config fields named in vars.
func (c *Config) Update(vars map[string]string) {
	for _, value := range Variables {
		if v, ok := vars[value.Name]; ok && value.Update != nil {
			value.Update(c, v)
		}
	}
}

func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}

func parseInt(n, v string, c *Config) int {
	_v, err := strconv.Atoi(v)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected integer for param %s", n), "value", v)
	}
	return _v
}

func parseBool(n, v string, c *Config) (b bool) {
	switch strings.ToLower(v) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		c.Logger.Warning(fmt.Sprintf("expect bool for param %s", n), "value", v)
	}
	return
}
