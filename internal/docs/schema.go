package docs

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaBaseURL = "https://coursepath.schemas.local/"

const catalogSchemaSrc = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "courses": {
      "type": ["array", "null"],
      "items": { "$ref": "#/$defs/course" }
    }
  },
  "$defs": {
    "labels": {
      "type": ["array", "null"],
      "items": { "type": "string" }
    },
    "hours": {
      "type": ["number", "null"],
      "minimum": 0
    },
    "course": {
      "type": "object",
      "properties": {
        "id": { "type": ["string", "null"] },
        "title": { "type": ["string", "null"] },
        "topics": { "$ref": "#/$defs/labels" },
        "prerequisites": { "$ref": "#/$defs/labels" },
        "hours": { "$ref": "#/$defs/hours" },
        "modules": {
          "type": ["array", "null"],
          "items": { "$ref": "#/$defs/module" }
        }
      }
    },
    "module": {
      "type": "object",
      "properties": {
        "id": { "type": ["string", "null"] },
        "title": { "type": ["string", "null"] },
        "topics": { "$ref": "#/$defs/labels" },
        "hours": { "$ref": "#/$defs/hours" }
      }
    }
  }
}`

const progressSchemaSrc = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "mastery": {
      "type": ["object", "null"],
      "additionalProperties": { "type": "number", "minimum": 0, "maximum": 1 }
    },
    "completed_courses": {
      "type": ["array", "null"],
      "items": { "type": "string" }
    },
    "preferences": {
      "type": ["object", "null"],
      "properties": {
        "pace": { "type": ["string", "null"] },
        "interests": {
          "type": ["array", "null"],
          "items": { "type": "string" }
        },
        "constraints": {
          "type": ["object", "null"],
          "properties": {
            "max_hours_per_week": { "type": ["number", "null"], "minimum": 0 },
            "deadline_weeks": { "type": ["integer", "null"], "minimum": 0 }
          }
        }
      }
    }
  }
}`

const targetsSchemaSrc = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "target_topics": {
      "type": ["array", "null"],
      "items": { "type": "string" }
    },
    "desired_outcomes": {
      "type": ["array", "null"],
      "items": { "type": "string" }
    }
  }
}`

var (
	catalogSchema  = mustCompileSchema("catalog", catalogSchemaSrc)
	progressSchema = mustCompileSchema("progress", progressSchemaSrc)
	targetsSchema  = mustCompileSchema("targets", targetsSchemaSrc)
)

// compileSchema compiles one embedded schema under a synthetic URL.
func compileSchema(name, src string) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := schemaBaseURL + name + ".schema.json"
	if err := c.AddResource(url, strings.NewReader(src)); err != nil {
		return nil, fmt.Errorf("%s schema load: %w", name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("%s schema compile: %w", name, err)
	}
	return compiled, nil
}

func mustCompileSchema(name, src string) *jsonschema.Schema {
	s, err := compileSchema(name, src)
	if err != nil {
		panic(err)
	}
	return s
}
