// Package hostdict supplies named argument dictionaries to the triggers.
package hostdict

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrDictNotFound is returned when a named dictionary does not exist.
var ErrDictNotFound = errors.New("dictionary not found")

// DefaultName is the dictionary the export trigger reads.
const DefaultName = "args"

// Keys of the export arguments dictionary.
const (
	KeyType          = "type"
	KeyName          = "name"
	KeyChannelConf   = "channelconf"
	KeyConfiguration = "configuration"
)

// Source looks up dictionaries by name.
type Source interface {
	Dict(ctx context.Context, name string) (map[string]any, error)
}

// MapSource is an in-memory Source.
type MapSource map[string]map[string]any

func (m MapSource) Dict(_ context.Context, name string) (map[string]any, error) {
	d, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDictNotFound, name)
	}
	return d, nil
}

// FileSource reads dictionaries from a YAML or JSON file whose top-level
// keys are dictionary names. The file is read on every lookup.
type FileSource struct {
	Path string
}

func (f FileSource) Dict(ctx context.Context, name string) (map[string]any, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary file: %w", err)
	}
	var all map[string]map[string]any
	if err := yaml.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary file %s: %w", f.Path, err)
	}
	return MapSource(all).Dict(ctx, name)
}

// Args are the export trigger arguments.
type Args struct {
	Type          string `yaml:"type"`
	Name          string `yaml:"name"`
	ChannelConf   string `yaml:"channelconf"`
	Configuration string `yaml:"configuration"`
}

// Decode extracts Args from a dictionary. Missing keys decode as "", other
// scalars are formatted with %v.
func Decode(d map[string]any) Args {
	return Args{
		Type:          str(d[KeyType]),
		Name:          str(d[KeyName]),
		ChannelConf:   str(d[KeyChannelConf]),
		Configuration: str(d[KeyConfiguration]),
	}
}

// Map is the inverse of Decode.
func (a Args) Map() map[string]any {
	return map[string]any{
		KeyType:          a.Type,
		KeyName:          a.Name,
		KeyChannelConf:   a.ChannelConf,
		KeyConfiguration: a.Configuration,
	}
}

func str(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	return fmt.Sprint(v)
}
