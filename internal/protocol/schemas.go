package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBase = "https://wumpusworld.ai/schemas/"

// Schema names, one per message type.
const (
	SchemaEpisode = "episode.schema.json"
	SchemaTurn    = "turn.schema.json"
	SchemaResult  = "result.schema.json"
	SchemaObserve = "observe.schema.json"
)

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func loadSchemas() {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		schemasErr = err
		return
	}
	for _, e := range entries {
		b, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			schemasErr = err
			return
		}
		if err := c.AddResource(schemaBase+e.Name(), bytes.NewReader(b)); err != nil {
			schemasErr = fmt.Errorf("add schema %s: %w", e.Name(), err)
			return
		}
	}
	out := make(map[string]*jsonschema.Schema, len(entries))
	for _, e := range entries {
		s, err := c.Compile(schemaBase + e.Name())
		if err != nil {
			schemasErr = fmt.Errorf("compile schema %s: %w", e.Name(), err)
			return
		}
		out[e.Name()] = s
	}
	schemas = out
}

// Schema returns the compiled schema for name (e.g. SchemaTurn).
func Schema(name string) (*jsonschema.Schema, error) {
	schemasOnce.Do(loadSchemas)
	if schemasErr != nil {
		return nil, schemasErr
	}
	s, ok := schemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	return s, nil
}

// Validate checks one raw JSON document against the named schema.
func Validate(name string, raw []byte) error {
	s, err := Schema(name)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("validate %s: %w", name, err)
	}
	return nil
}

// SchemaForType maps a message type to its schema name.
func SchemaForType(typ string) (string, bool) {
	switch typ {
	case TypeEpisode:
		return SchemaEpisode, true
	case TypeTurn:
		return SchemaTurn, true
	case TypeResult:
		return SchemaResult, true
	case TypeObserve:
		return SchemaObserve, true
	}
	return "", false
}

// ValidateMessage routes raw by its "type" field and validates it.
func ValidateMessage(raw []byte) (BaseMessage, error) {
	base, err := DecodeBase(raw)
	if err != nil {
		return base, err
	}
	name, ok := SchemaForType(base.Type)
	if !ok {
		return base, fmt.Errorf("unknown message type %q", base.Type)
	}
	return base, Validate(name, raw)
}
