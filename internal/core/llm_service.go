package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/davidrodriguezvaron/Ragchatbot-codebase/internal/tools"
)

const (
	defaultChatModelName      = "gemini-1.5-flash-latest"
	defaultEmbeddingModelName = "text-embedding-004"

	maxOutputTokens = 800

	systemPrompt = "You are an AI assistant specialized in course materials and educational content. You have access to two tools:\n\n" +
		"1. search_course_content: search within course lesson content for specific topics, concepts, or details.\n" +
		"2. get_course_outline: retrieve a course's outline including its title, link, and full list of lessons.\n\n" +
		"Tool Selection Guide:\n" +
		"- Course outline/structure/syllabus questions (e.g. \"What lessons are in…\", \"Show me the outline for…\"): use get_course_outline\n" +
		"- Course content/topic questions (e.g. \"What is MCP?\", \"What does lesson 3 cover?\"): use search_course_content\n" +
		"- General knowledge questions not about specific course materials: answer directly without using any tool\n\n" +
		"Tool Usage Rules:\n" +
		"- One tool call per query maximum\n" +
		"- If a tool returns no results, state this clearly without guessing or offering alternatives\n\n" +
		"Response Protocol:\n" +
		"- When responding to outline queries, include the course title, course link, and each lesson's number and title\n" +
		"- No meta-commentary: provide direct answers only, without reasoning process or search explanations\n" +
		"- Do not mention \"based on the search results\" or similar phrases\n\n" +
		"All responses must be brief, educational, clear, and example-supported when examples aid understanding."
)

// ModelTurn is one model reply: its text plus any function calls it
// requested.
type ModelTurn struct {
	Text  string
	Calls []genai.FunctionCall
}

// ModelClient is the conversational model behind the orchestrator.
// Implemented by LLMService; faked in tests.
type ModelClient interface {
	SendTurn(ctx context.Context, system string, defs []tools.Definition, history []*genai.Content, parts ...genai.Part) (*ModelTurn, error)
}

// LLMService wraps the Gemini client for both the conversational model and
// the embedding model backing the semantic store.
type LLMService struct {
	client *genai.Client
}

func NewLLMService(ctx context.Context, apiKey string) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &LLMService{client: client}, nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
	}
}

// Embed returns the embedding vector for one text.
func (s *LLMService) Embed(ctx context.Context, text string) ([]float32, error) {
	em := s.client.EmbeddingModel(defaultEmbeddingModelName)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding data received from gemini")
	}
	return res.Embedding.Values, nil
}

// SendTurn sends one conversation turn to the model with the given system
// instruction, declared tools and prior history, and collects the reply's
// text and requested function calls.
func (s *LLMService) SendTurn(ctx context.Context, system string, defs []tools.Definition, history []*genai.Content, parts ...genai.Part) (*ModelTurn, error) {
	model := s.client.GenerativeModel(defaultChatModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	temp := float32(0)
	maxTokens := int32(maxOutputTokens)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     &temp,
		MaxOutputTokens: &maxTokens,
	}
	model.Tools = toGenaiTools(defs)

	chat := model.StartChat()
	chat.History = history

	resp, err := chat.SendMessage(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini chat SendMessage failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		log.Println("Gemini response was empty or had no valid candidates.")
		return &ModelTurn{Text: "I'm sorry, I couldn't generate a response at this time. Please try again."}, nil
	}

	turn := &ModelTurn{}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text.WriteString(string(p))
		case genai.FunctionCall:
			turn.Calls = append(turn.Calls, p)
		default:
			log.Printf("Gemini response part was neither text nor function call: %T", part)
		}
	}
	turn.Text = text.String()
	return turn, nil
}

func toGenaiTools(defs []tools.Definition) []*genai.Tool {
	if len(defs) == 0 {
		return nil
	}
	declarations := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, def := range defs {
		properties := make(map[string]*genai.Schema, len(def.Properties))
		for name, prop := range def.Properties {
			properties[name] = &genai.Schema{
				Type:        schemaType(prop.Type),
				Description: prop.Description,
			}
		}
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        def.Name,
			Description: def.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: properties,
				Required:   def.Required,
			},
		})
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

func schemaType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	default:
		return genai.TypeString
	}
}
