package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/generative-ai-go/genai"

	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/models"
	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/tools"
)

// Orchestrator drives the bounded tool-use conversation: one model call,
// at most one round of tool execution, and one final model call. The bound
// caps latency and cost; a second tool request in the final reply is
// ignored and its text used as-is.
type Orchestrator struct {
	model    ModelClient
	registry *tools.Registry
	timeout  time.Duration
}

func NewOrchestrator(model ModelClient, registry *tools.Registry, timeout time.Duration) *Orchestrator {
	return &Orchestrator{model: model, registry: registry, timeout: timeout}
}

// Respond answers one query given the rendered conversation history.
// Returns the final answer text and the retrieval sources gathered during
// the tool round, if one happened. Model-call failures propagate to the
// caller; retries are a caller concern.
func (o *Orchestrator) Respond(ctx context.Context, query, history string) (string, []models.Source, error) {
	system := systemPrompt
	if history != "" {
		system = fmt.Sprintf("%s\n\nPrevious conversation:\n%s", systemPrompt, history)
	}
	defs := o.registry.Definitions()

	turn, err := o.sendTurn(ctx, system, defs, nil, genai.Text(query))
	if err != nil {
		return "", nil, err
	}
	if len(turn.Calls) == 0 {
		return turn.Text, nil, nil
	}

	responses, sources, fallback, err := o.executeTools(ctx, turn)
	if err != nil {
		return "", nil, err
	}
	if fallback != "" {
		return fallback, nil, nil
	}

	// The model's turn with its function calls must precede the function
	// responses in the follow-up history.
	callParts := make([]genai.Part, 0, len(turn.Calls))
	for _, call := range turn.Calls {
		callParts = append(callParts, call)
	}
	followUpHistory := []*genai.Content{
		{Role: "user", Parts: []genai.Part{genai.Text(query)}},
		{Role: "model", Parts: callParts},
	}

	final, err := o.sendTurn(ctx, system, defs, followUpHistory, responses...)
	if err != nil {
		return "", nil, err
	}
	if len(final.Calls) > 0 {
		log.Printf("Model requested %d further tool call(s) after its tool round; ignoring.", len(final.Calls))
	}
	return final.Text, sources, nil
}

// executeTools runs every requested call through the registry. A tool
// fault becomes an error text fed back to the model so the conversation
// survives. An unknown tool name aborts the whole round: the model's
// text-only reply is returned as fallback when it produced one, otherwise
// the error surfaces.
func (o *Orchestrator) executeTools(ctx context.Context, turn *ModelTurn) (responses []genai.Part, sources []models.Source, fallback string, err error) {
	for _, call := range turn.Calls {
		result, execErr := o.registry.Execute(ctx, call.Name, call.Args)
		if execErr != nil {
			if errors.Is(execErr, tools.ErrToolNotFound) {
				log.Printf("Aborting tool round: %v", execErr)
				if turn.Text != "" {
					return nil, nil, turn.Text, nil
				}
				return nil, nil, "", execErr
			}
			log.Printf("Tool %s failed: %v", call.Name, execErr)
			result = &tools.Result{Text: fmt.Sprintf("Tool execution failed: %v", execErr)}
		}
		responses = append(responses, genai.FunctionResponse{
			Name:     call.Name,
			Response: map[string]any{"content": result.Text},
		})
		sources = append(sources, result.Sources...)
	}
	return responses, sources, "", nil
}

func (o *Orchestrator) sendTurn(ctx context.Context, system string, defs []tools.Definition, history []*genai.Content, parts ...genai.Part) (*ModelTurn, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	return o.model.SendTurn(ctx, system, defs, history, parts...)
}
