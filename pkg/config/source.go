package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Source is a read-only key-value view the resolver consumes. The
// resolver is agnostic to where values come from; a Source may be a
// file, the environment, flag values, or a literal map in tests.
type Source interface {
	// Get returns the raw value for key and whether it was present.
	Get(key string) (string, bool)

	// Keys lists every key the source carries. Used to collect
	// cap.* passthrough entries.
	Keys() []string
}

// MapSource is a literal in-memory Source. Unlike file-backed
// sources it preserves key case exactly, which matters for
// capability override keys such as cap.platformName.
type MapSource map[string]string

func (m MapSource) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m MapSource) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// FileSource loads a configuration file (java-properties or yaml) and
// lets environment variables override file values, e.g.
// GAUNTLET_BROWSER=firefox overrides the browser key.
//
// Viper treats keys case-insensitively, so file-sourced capability
// override keys are lowercased. Use a MapSource layered via Overlay
// when a provider requires mixed-case capability names.
type FileSource struct {
	v *viper.Viper
}

// LoadFile reads path into a FileSource. The format is inferred from
// the file extension; .properties matches the classic layout.
func LoadFile(path string) (*FileSource, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix("gauntlet")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return &FileSource{v: v}, nil
}

func (f *FileSource) Get(key string) (string, bool) {
	if !f.v.IsSet(key) {
		return "", false
	}
	return f.v.GetString(key), true
}

func (f *FileSource) Keys() []string {
	return f.v.AllKeys()
}

// Overlay layers sources so that earlier sources win. Keys reports the
// union. This is how command-line overrides sit on top of a file.
func Overlay(sources ...Source) Source {
	return overlay(sources)
}

type overlay []Source

func (o overlay) Get(key string) (string, bool) {
	for _, src := range o {
		if v, ok := src.Get(key); ok {
			return v, true
		}
	}
	return "", false
}

func (o overlay) Keys() []string {
	seen := map[string]struct{}{}
	var keys []string
	for _, src := range o {
		for _, k := range src.Keys() {
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	return keys
}
