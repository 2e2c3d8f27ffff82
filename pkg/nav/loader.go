package nav

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

// graphSchema validates the shape of a navigation graph file before it is
// unmarshaled. Labels and node ids are mandatory everywhere; URLs and
// analytics counters are optional.
const graphSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "definitions": {
    "node": {
      "type": "object",
      "required": ["node_id", "label"],
      "properties": {
        "node_id":         {"type": "string", "minLength": 1},
        "label":           {"type": "string", "minLength": 1},
        "url":             {"type": "string"},
        "description":     {"type": "string"},
        "search_phrase":   {"type": "string"},
        "keywords":        {"type": "array", "items": {"type": "string"}},
        "image_url":       {"type": "string"},
        "open_in_new_tab": {"type": "boolean"},
        "total_hits":      {"type": "integer", "minimum": 0},
        "most_recent_hit": {"type": "integer", "minimum": 0},
        "children":        {"type": "array", "items": {"$ref": "#/definitions/node"}}
      }
    }
  },
  "$ref": "#/definitions/node"
}`

// Loader reads and validates navigation graph files.
type Loader struct {
	schema *gojsonschema.Schema
	logger *zap.Logger
}

// NewLoader compiles the graph schema once. The logger may be nil.
func NewLoader(logger *zap.Logger) (*Loader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(graphSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile graph schema: %w", err)
	}
	return &Loader{schema: schema, logger: logger}, nil
}

// LoadFile reads a navigation graph from a JSON file, validating it against
// the schema first. Schema violations surface as ErrMalformedGraph: a bad
// graph file is a data error and must fail loudly rather than produce a
// half-indexed corpus.
func (l *Loader) LoadFile(path string) (*NavigationNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file %s: %w", path, err)
	}
	root, err := l.Load(data)
	if err != nil {
		return nil, fmt.Errorf("graph file %s: %w", path, err)
	}
	l.logger.Info("loaded navigation graph",
		zap.String("path", path),
		zap.String("root", root.NodeID))
	return root, nil
}

// Load parses and validates a navigation graph from raw JSON.
func (l *Loader) Load(data []byte) (*NavigationNode, error) {
	result, err := l.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGraph, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformedGraph, strings.Join(details, "; "))
	}

	var root NavigationNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGraph, err)
	}
	return &root, nil
}
