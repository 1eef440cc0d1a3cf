// Package parser converts YAML/JSON L-system documents into runnable
// definitions.
package parser

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/lemonberrylabs/lindenmaker/pkg/runtime"
	"github.com/lemonberrylabs/lindenmaker/pkg/scene"
)

// MaxSourceSize is the maximum document size in bytes (1 MiB).
const MaxSourceSize = 1 << 20

// MaxMaterials is the maximum number of entries in a material palette.
const MaxMaterials = 256

// ParseError represents an error encountered during document parsing.
type ParseError struct {
	Message  string
	Location string // e.g., "field 'defaults.angle'"
}

func (e *ParseError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("parse error at %s: %s", e.Location, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Document is a parsed L-system: the string to interpret plus everything
// needed to build a scene from it.
type Document struct {
	Name        string          `json:"name,omitempty" yaml:"name,omitempty"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	LString     string          `json:"lstring" yaml:"lstring"`
	Defaults    runtime.Options `json:"defaults" yaml:"defaults"`
	Materials   []string        `json:"materials,omitempty" yaml:"materials,omitempty"`
	Scene       scene.Options   `json:"scene" yaml:"scene"`
}

// Options returns the interpretation defaults of the document.
func (d *Document) Options() runtime.Options { return d.Defaults }

// SceneOptions returns the scene assembly options of the document.
func (d *Document) SceneOptions() scene.Options { return d.Scene }

// Palette returns a fresh palette of the document materials.
func (d *Document) Palette() *scene.Palette { return scene.NewPalette(d.Materials...) }

// Run interprets the document with a drawing turtle. overrides are decoded
// onto the document defaults; see runtime.DecodeOptions.
func (d *Document) Run(overrides map[string]any, hooks runtime.Hooks) (*scene.Scene, *runtime.Result, error) {
	opts, err := runtime.DecodeOptions(overrides, d.Defaults)
	if err != nil {
		return nil, nil, err
	}
	return runtime.Draw(d.LString, opts, d.Palette(), d.Scene, hooks)
}

// Parse parses a YAML or JSON L-system document.
func Parse(source []byte) (*Document, error) {
	if len(source) > MaxSourceSize {
		return nil, &ParseError{Message: fmt.Sprintf("document size %d exceeds maximum %d bytes", len(source), MaxSourceSize)}
	}

	var raw yaml.Node
	if err := yaml.Unmarshal(source, &raw); err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("invalid YAML: %v", err)}
	}

	// The root node is a document node containing the actual content
	if raw.Kind != yaml.DocumentNode || len(raw.Content) == 0 {
		return nil, &ParseError{Message: "empty document"}
	}

	rootNode := raw.Content[0]
	if rootNode.Kind != yaml.MappingNode {
		return nil, &ParseError{Message: "document must be a mapping"}
	}

	doc := &Document{
		Defaults: runtime.DefaultOptions(),
		Scene:    scene.DefaultOptions(),
	}
	hasLString := false

	err := eachField(rootNode, "", func(key string, value *yaml.Node) error {
		var err error
		switch key {
		case "name":
			doc.Name, err = stringField(value, key)
		case "description":
			doc.Description, err = stringField(value, key)
		case "lstring":
			doc.LString, err = stringField(value, key)
			hasLString = true
		case "defaults":
			err = parseDefaults(value, &doc.Defaults)
		case "materials":
			doc.Materials, err = parseMaterials(value)
		case "scene":
			err = parseSceneOptions(value, &doc.Scene)
		default:
			err = &ParseError{Message: fmt.Sprintf("unknown key '%s'", key), Location: "document"}
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if !hasLString {
		return nil, &ParseError{Message: "document must have an 'lstring'"}
	}
	return doc, nil
}

// eachField walks the key/value pairs of a mapping node, rejecting
// duplicate and non-scalar keys.
func eachField(node *yaml.Node, prefix string, fn func(key string, value *yaml.Node) error) error {
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		if keyNode.Kind != yaml.ScalarNode {
			return &ParseError{Message: "keys must be strings", Location: location(prefix, "")}
		}
		key := keyNode.Value
		if seen[key] {
			return &ParseError{Message: fmt.Sprintf("duplicate key '%s'", key), Location: location(prefix, "")}
		}
		seen[key] = true
		if err := fn(key, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// location renders a field path for error messages.
func location(prefix, key string) string {
	switch {
	case prefix == "" && key == "":
		return "document"
	case prefix == "":
		return fmt.Sprintf("field '%s'", key)
	case key == "":
		return fmt.Sprintf("field '%s'", prefix)
	default:
		return fmt.Sprintf("field '%s.%s'", prefix, key)
	}
}

func parseDefaults(node *yaml.Node, opts *runtime.Options) error {
	if node.Kind != yaml.MappingNode {
		return &ParseError{Message: "must be a mapping", Location: location("defaults", "")}
	}
	return eachField(node, "defaults", func(key string, value *yaml.Node) error {
		path := "defaults." + key
		var err error
		switch key {
		case "length":
			opts.Length, err = numberField(value, path)
		case "width":
			opts.Width, err = numberField(value, path)
		case "angle":
			opts.Angle, err = numberField(value, path)
		case "material":
			opts.Material, err = intField(value, path)
		default:
			err = &ParseError{Message: fmt.Sprintf("unknown key '%s'", key), Location: location("defaults", "")}
		}
		return err
	})
}

func parseSceneOptions(node *yaml.Node, opts *scene.Options) error {
	if node.Kind != yaml.MappingNode {
		return &ParseError{Message: "must be a mapping", Location: location("scene", "")}
	}
	return eachField(node, "scene", func(key string, value *yaml.Node) error {
		path := "scene." + key
		var err error
		switch key {
		case "hierarchy":
			opts.Hierarchy, err = boolField(value, path)
		case "draw_nodes":
			opts.DrawNodes, err = boolField(value, path)
		case "internode_length_scale":
			opts.InternodeLengthScale, err = numberField(value, path)
		default:
			err = &ParseError{Message: fmt.Sprintf("unknown key '%s'", key), Location: location("scene", "")}
		}
		return err
	})
}

func parseMaterials(node *yaml.Node) ([]string, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, &ParseError{Message: "must be a list of material names", Location: location("materials", "")}
	}
	if len(node.Content) > MaxMaterials {
		return nil, &ParseError{
			Message:  fmt.Sprintf("%d materials exceed maximum of %d", len(node.Content), MaxMaterials),
			Location: location("materials", ""),
		}
	}
	names := make([]string, 0, len(node.Content))
	for i, item := range node.Content {
		path := fmt.Sprintf("materials[%d]", i)
		name, err := stringField(item, path)
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, &ParseError{Message: "material name must not be empty", Location: location(path, "")}
		}
		names = append(names, name)
	}
	return names, nil
}

func stringField(node *yaml.Node, path string) (string, error) {
	if node.Kind != yaml.ScalarNode {
		return "", &ParseError{Message: "must be a string", Location: location(path, "")}
	}
	return node.Value, nil
}

func numberField(node *yaml.Node, path string) (float64, error) {
	var f float64
	if node.Kind != yaml.ScalarNode || node.Decode(&f) != nil {
		return 0, &ParseError{Message: fmt.Sprintf("must be a number, got %q", node.Value), Location: location(path, "")}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ParseError{Message: "must be a finite number", Location: location(path, "")}
	}
	return f, nil
}

func intField(node *yaml.Node, path string) (int, error) {
	var f float64
	if node.Kind != yaml.ScalarNode || node.Decode(&f) != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, &ParseError{Message: fmt.Sprintf("must be an integer, got %q", node.Value), Location: location(path, "")}
	}
	return int(f), nil
}

func boolField(node *yaml.Node, path string) (bool, error) {
	var b bool
	if node.Kind != yaml.ScalarNode || node.Decode(&b) != nil {
		return false, &ParseError{Message: fmt.Sprintf("must be a boolean, got %q", node.Value), Location: location(path, "")}
	}
	return b, nil
}
