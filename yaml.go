package audobject

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ToYAML serializes obj as a YAML document.
func ToYAML(ctx context.Context, obj Object, opts ...Option) (string, error) {
	d, err := ToDict(ctx, obj, opts...)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return "", newValueError(ErrEncode, "", typeNameOf(obj), err)
	}
	if err := enc.Close(); err != nil {
		return "", newValueError(ErrEncode, "", typeNameOf(obj), err)
	}
	return buf.String(), nil
}

// FromYAML reconstructs an object from a YAML document.
func FromYAML(ctx context.Context, src string, opts ...Option) (Object, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(src), &node); err != nil {
		return nil, newValueError(ErrDecode, "", "string", err)
	}
	if node.Kind == 0 {
		return nil, newValueError(ErrDecode, "", "string",
			fmt.Errorf("empty document"))
	}
	v, err := nodeToValue(&node)
	if err != nil {
		return nil, err
	}
	d, ok := v.(*Dict)
	if !ok {
		return nil, newValueError(ErrDecode, "", fmt.Sprintf("%T", v),
			fmt.Errorf("document root must be a mapping"))
	}
	return FromDict(ctx, d, opts...)
}

// SaveYAML writes obj to path as a YAML document, creating parent
// directories as needed. The file's directory becomes the root for
// path translation, so RootAware resolvers can store relative paths.
func SaveYAML(ctx context.Context, path string, obj Object, opts ...Option) (err error) {
	start := time.Now()
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	size := 0
	defer func() {
		emitFileSaved(ctx, abs, size, time.Since(start), err)
	}()
	if err = os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	s, err := ToYAML(ctx, obj, append(opts, WithRoot(filepath.Dir(abs)))...)
	if err != nil {
		return err
	}
	size = len(s)
	return os.WriteFile(abs, []byte(s), 0o644)
}

// LoadYAML reconstructs an object from the YAML document at path. The
// file's directory becomes the root for path translation.
func LoadYAML(ctx context.Context, path string, opts ...Option) (obj Object, err error) {
	start := time.Now()
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	size := 0
	defer func() {
		emitFileLoaded(ctx, abs, size, time.Since(start), err)
	}()
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	size = len(data)
	return FromYAML(ctx, string(data), append(opts, WithRoot(filepath.Dir(abs)))...)
}

// valueToNode converts an encoded value into a YAML node. Only the
// serializable value set appears here; anything else is a bug in the
// encoder and reported as such.
func valueToNode(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case nil:
		return scalarNode("!!null", "null"), nil
	case bool:
		return scalarNode("!!bool", strconv.FormatBool(val)), nil
	case int:
		return scalarNode("!!int", strconv.Itoa(val)), nil
	case float64:
		return scalarNode("!!float", formatFloat(val)), nil
	case string:
		return scalarNode("!!str", val), nil
	case time.Time:
		return scalarNode("!!timestamp", val.Format(time.RFC3339Nano)), nil
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range val {
			child, err := valueToNode(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case *Dict:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for i := 0; i < val.Len(); i++ {
			k, v := val.At(i)
			keyNode, err := valueToNode(k)
			if err != nil {
				return nil, err
			}
			valNode, err := valueToNode(v)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, keyNode, valNode)
		}
		return node, nil
	default:
		return nil, newValueError(ErrEncode, "", fmt.Sprintf("%T", v),
			fmt.Errorf("value is not serializable"))
	}
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   tag,
		Value: value,
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// nodeToValue converts a parsed YAML node into the serializable value
// set: nil, bool, int, float64, string, time.Time, []any and *Dict.
func nodeToValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeToValue(n.Content[0])
	case yaml.AliasNode:
		return nodeToValue(n.Alias)
	case yaml.ScalarNode:
		return scalarValue(n)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, child := range n.Content {
			v, err := nodeToValue(child)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		d := NewDict()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, err := nodeToValue(n.Content[i])
			if err != nil {
				return nil, err
			}
			if _, ok := k.([]any); ok {
				return nil, newValueError(ErrDecode, "", "[]any",
					fmt.Errorf("sequence cannot be used as a mapping key"))
			}
			v, err := nodeToValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			d.Set(k, v)
		}
		return d, nil
	default:
		return nil, newValueError(ErrDecode, "", n.Tag,
			fmt.Errorf("unsupported node kind %d", n.Kind))
	}
}

func scalarValue(n *yaml.Node) (any, error) {
	switch n.Tag {
	case "!!null":
		return nil, nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return nil, newValueError(ErrDecode, "", "bool", err)
		}
		return b, nil
	case "!!int":
		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			return int(i), nil
		}
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return f, nil
		}
		return nil, newValueError(ErrDecode, "", "int",
			fmt.Errorf("cannot parse integer %q", n.Value))
	case "!!float":
		switch strings.ToLower(n.Value) {
		case ".inf", "+.inf":
			return math.Inf(1), nil
		case "-.inf":
			return math.Inf(-1), nil
		case ".nan":
			return math.NaN(), nil
		}
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, newValueError(ErrDecode, "", "float64", err)
		}
		return f, nil
	case "!!timestamp":
		if t, ok := parseTimestamp(n.Value); ok {
			return t, nil
		}
		return n.Value, nil
	case "!!str":
		return n.Value, nil
	default:
		return n.Value, nil
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
