package testsuite

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	suiteRequestSchemaName = "suite_request"
	runRequestSchemaName   = "run_request"
)

type schemaRegistry struct {
	once    sync.Once
	initErr error
	schemas map[string]*jsonschema.Schema
}

var requestSchemas schemaRegistry

func initSchemas() error {
	requestSchemas.once.Do(func() {
		sources := map[string]string{
			suiteRequestSchemaName: suiteRequestSchema,
			runRequestSchemaName:   runRequestSchema,
		}
		requestSchemas.schemas = make(map[string]*jsonschema.Schema, len(sources))
		for name, src := range sources {
			compiled, err := jsonschema.CompileString(name+".json", src)
			if err != nil {
				requestSchemas.initErr = fmt.Errorf("failed to compile %s schema: %w", name, err)
				return
			}
			requestSchemas.schemas[name] = compiled
		}
	})
	return requestSchemas.initErr
}

func validateDocument(schemaName string, raw []byte) error {
	if err := initSchemas(); err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return InvalidArgumentf("malformed JSON: %v", err)
	}
	if err := requestSchemas.schemas[schemaName].Validate(doc); err != nil {
		return InvalidArgumentf("%s does not match schema: %v", schemaName, err)
	}
	return nil
}

const suiteRequestSchema = `{
  "type": "object",
  "required": ["name", "scoring_method", "test_cases"],
  "properties": {
    "name": { "type": "string", "minLength": 1 },
    "description": { "type": ["string", "null"] },
    "scoring_method": {
      "oneOf": [
        { "type": "string", "minLength": 1 },
        {
          "type": "object",
          "required": ["name"],
          "properties": {
            "name": { "type": "string", "minLength": 1 },
            "type": { "enum": ["built_in", "custom"] },
            "output_type": { "enum": ["continuous", "categorical"] },
            "categories": {
              "type": ["array", "null"],
              "items": {
                "type": "object",
                "required": ["name"],
                "properties": {
                  "name": { "type": "string", "minLength": 1 },
                  "description": { "type": ["string", "null"] }
                }
              }
            },
            "config": { "type": ["object", "null"] }
          }
        }
      ]
    },
    "test_cases": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["input"],
        "properties": {
          "input": { "type": "string" },
          "reference_output": { "type": ["string", "null"] }
        }
      }
    },
    "created_by": { "type": "string" },
    "bench_version": { "type": "string" },
    "created_at": { "type": "string", "format": "date-time" }
  },
  "additionalProperties": true
}`

const runRequestSchema = `{
  "type": "object",
  "required": ["name", "test_cases"],
  "properties": {
    "name": { "type": "string", "minLength": 1 },
    "test_cases": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["output"],
        "properties": {
          "id": { "type": "string", "format": "uuid" },
          "output": { "type": "string" },
          "score": { "type": ["number", "null"] },
          "score_result": {
            "type": "object",
            "properties": {
              "score": { "type": ["number", "null"] },
              "category": {
                "type": ["object", "null"],
                "required": ["name"],
                "properties": { "name": { "type": "string" } }
              }
            }
          }
        }
      }
    },
    "description": { "type": "string" },
    "model_name": { "type": "string" },
    "model_version": { "type": "string" },
    "foundation_model": { "type": "string" },
    "prompt_template": { "type": "string" },
    "created_by": { "type": "string" },
    "bench_version": { "type": "string" },
    "created_at": { "type": "string", "format": "date-time" }
  },
  "additionalProperties": true
}`
