// Package tools holds the capability layer the conversational model can
// invoke: a registry of named tools with schema-described inputs, plus the
// course search and course outline tools built on the semantic store.
package tools

import (
	"context"
	"errors"

	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/models"
)

// ErrToolNotFound is returned when the model requests a tool name that was
// never registered.
var ErrToolNotFound = errors.New("tool not found")

// Property describes one parameter of a tool for the model's
// function-calling contract.
type Property struct {
	Type        string
	Description string
}

// Definition is a tool's name, description and parameter schema.
type Definition struct {
	Name        string
	Description string
	Properties  map[string]Property
	Required    []string
}

// Result carries a tool invocation's text output together with the
// retrieval sources backing it. Sources travel through return values, never
// shared tool state, so concurrent queries cannot observe each other's
// retrievals.
type Result struct {
	Text    string
	Sources []models.Source
}

// Tool is the capability contract: a schema the model sees and an execute
// entry point taking the model-supplied arguments.
type Tool interface {
	Definition() Definition
	Execute(ctx context.Context, args map[string]any) (*Result, error)
}

// stringArg reads an optional string argument.
func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// intArg reads an optional integer argument. JSON and genai decode numbers
// as float64, so both forms are accepted.
func intArg(args map[string]any, key string) *int {
	switch v := args[key].(type) {
	case float64:
		n := int(v)
		return &n
	case int:
		n := v
		return &n
	default:
		return nil
	}
}
