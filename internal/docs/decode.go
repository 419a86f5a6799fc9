package docs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument is returned when a document cannot be parsed or does
// not satisfy its schema.
var ErrInvalidDocument = errors.New("invalid document")

// Format identifies the serialization of an input document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath infers the document format from a file extension. Anything
// other than .yaml/.yml is treated as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// DecodeCatalog validates and decodes a catalog document.
func DecodeCatalog(data []byte, format Format) (CatalogDoc, error) {
	var doc CatalogDoc
	if err := decode(data, format, "catalog", catalogSchema, &doc); err != nil {
		return CatalogDoc{}, err
	}
	return doc, nil
}

// DecodeProgress validates and decodes a learner progress document.
func DecodeProgress(data []byte, format Format) (ProgressDoc, error) {
	var doc ProgressDoc
	if err := decode(data, format, "progress", progressSchema, &doc); err != nil {
		return ProgressDoc{}, err
	}
	return doc, nil
}

// DecodeTargets validates and decodes a targets document.
func DecodeTargets(data []byte, format Format) (TargetsDoc, error) {
	var doc TargetsDoc
	if err := decode(data, format, "targets", targetsSchema, &doc); err != nil {
		return TargetsDoc{}, err
	}
	return doc, nil
}

// ReadCatalog reads and decodes a catalog file, inferring its format.
func ReadCatalog(path string) (CatalogDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CatalogDoc{}, fmt.Errorf("read catalog: %w", err)
	}
	doc, err := DecodeCatalog(data, FormatForPath(path))
	if err != nil {
		return CatalogDoc{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ReadProgress reads and decodes a progress file, inferring its format.
func ReadProgress(path string) (ProgressDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ProgressDoc{}, fmt.Errorf("read progress: %w", err)
	}
	doc, err := DecodeProgress(data, FormatForPath(path))
	if err != nil {
		return ProgressDoc{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ReadTargets reads and decodes a targets file, inferring its format.
func ReadTargets(path string) (TargetsDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TargetsDoc{}, fmt.Errorf("read targets: %w", err)
	}
	doc, err := DecodeTargets(data, FormatForPath(path))
	if err != nil {
		return TargetsDoc{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// decode converts data to JSON, validates the generic value against schema,
// and only then unmarshals into out.
func decode(data []byte, format Format, kind string, schema *jsonschema.Schema, out any) error {
	raw, err := toJSON(data, format)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidDocument, kind, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidDocument, kind, err)
	}
	if err := schema.Validate(generic); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidDocument, kind, err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidDocument, kind, err)
	}
	return nil
}

// toJSON returns data as JSON bytes. YAML is decoded into a generic value
// and re-encoded so both formats share one validation path.
func toJSON(data []byte, format Format) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return data, nil
	case FormatYAML:
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		out, err := json.Marshal(stringKeys(v))
		if err != nil {
			return nil, fmt.Errorf("convert yaml: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// stringKeys rewrites YAML mappings with non-string keys (an unquoted
// 101: 0.5 decodes to map[any]any) into JSON objects keyed by the key's
// text.
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = stringKeys(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = stringKeys(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = stringKeys(val)
		}
		return t
	default:
		return v
	}
}
