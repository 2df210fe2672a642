package chart

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

var ErrInvalidArguments = errors.New("invalid chart arguments")

// argumentsSchema accepts either inline columns and rows or a sql statement
// whose result supplies them, never both.
const argumentsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "columns": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}},
    "rows": {"type": "array", "items": {"type": "array"}},
    "sql": {"type": "string", "minLength": 1},
    "chart_type": {"type": ["string", "null"]},
    "x": {"type": "string", "minLength": 1},
    "y": {"type": "string", "minLength": 1},
    "hue": {"type": ["string", "null"]},
    "title": {"type": ["string", "null"]}
  },
  "required": ["x", "y"],
  "additionalProperties": false,
  "oneOf": [
    {"required": ["columns", "rows"], "not": {"required": ["sql"]}},
    {"required": ["sql"], "not": {"anyOf": [{"required": ["columns"]}, {"required": ["rows"]}]}}
  ]
}`

var compileArgumentsSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(argumentsSchema))
	if err != nil {
		return nil, fmt.Errorf("parse chart arguments schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("chart_arguments.json", doc); err != nil {
		return nil, fmt.Errorf("add chart arguments schema: %w", err)
	}
	return c.Compile("chart_arguments.json")
})

// ParseArguments validates decoded JSON chart arguments and converts them to
// a Request. When the arguments carry sql instead of rows, the returned
// Request has no Columns or Rows and the statement is returned separately.
func ParseArguments(raw any) (Request, string, error) {
	schema, err := compileArgumentsSchema()
	if err != nil {
		return Request{}, "", err
	}
	if err := schema.Validate(raw); err != nil {
		return Request{}, "", fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}

	args, ok := raw.(map[string]any)
	if !ok {
		return Request{}, "", fmt.Errorf("%w: expected an object", ErrInvalidArguments)
	}
	request := Request{
		Kind:  stringArg(args, "chart_type"),
		X:     stringArg(args, "x"),
		Y:     stringArg(args, "y"),
		Hue:   stringArg(args, "hue"),
		Title: stringArg(args, "title"),
	}
	if _, err := ParseKind(request.Kind); err != nil {
		return Request{}, "", err
	}

	if statement := stringArg(args, "sql"); statement != "" {
		return request, statement, nil
	}

	for _, column := range args["columns"].([]any) {
		request.Columns = append(request.Columns, column.(string))
	}
	for _, row := range args["rows"].([]any) {
		request.Rows = append(request.Rows, row.([]any))
	}
	return request, "", nil
}

func stringArg(args map[string]any, key string) string {
	value, _ := args[key].(string)
	return value
}
