package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const systemPrompt = "Ты помощник в системе управления бизнесом: тендеры, долги, сотрудники, банк, КУДиР, инвесторы. " +
	"Отвечай на русском языке кратко и по делу. Для любых данных вызывай инструменты и не придумывай цифры. " +
	"Суммы в аргументах инструментов указывай в рублях; суммы в результатах инструментов указаны в копейках. " +
	"Перед созданием или изменением записей убедись, что пользователь этого хочет."

// GeminiModel talks to Google Gemini with native function calling.
type GeminiModel struct {
	model *genai.GenerativeModel
}

// NewGeminiClient opens a client for the Gemini API.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gemini client: %w", err)
	}
	return client, nil
}

// NewGeminiModel configures the named model with the tool declarations.
func NewGeminiModel(client *genai.Client, name string, tools []ToolDecl) *GeminiModel {
	m := client.GenerativeModel(name)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	m.Tools = []*genai.Tool{{FunctionDeclarations: functionDeclarations(tools)}}
	return &GeminiModel{model: m}
}

func functionDeclarations(tools []ToolDecl) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  parameterSchema(t.Params),
		})
	}
	return decls
}

func parameterSchema(params []Param) *genai.Schema {
	if len(params) == 0 {
		return nil
	}
	schema := &genai.Schema{Type: genai.TypeObject, Properties: make(map[string]*genai.Schema, len(params))}
	for _, p := range params {
		schema.Properties[p.Name] = &genai.Schema{
			Type:        schemaType(p.Type),
			Description: p.Description,
			Enum:        p.Enum,
		}
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	return schema
}

func schemaType(t string) genai.Type {
	switch t {
	case TypeInteger:
		return genai.TypeInteger
	case TypeNumber:
		return genai.TypeNumber
	case TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

// toContents maps the chat history onto Gemini contents. Tool results
// travel as function responses in a user turn.
func toContents(history []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		var parts []genai.Part
		if m.Text != "" {
			parts = append(parts, genai.Text(m.Text))
		}
		for _, call := range m.ToolCalls {
			parts = append(parts, genai.FunctionCall{Name: call.Name, Args: call.Args})
		}
		for _, res := range m.ToolResults {
			parts = append(parts, genai.FunctionResponse{Name: res.Name, Response: res.Content})
		}
		if len(parts) == 0 {
			continue
		}
		role := RoleUser
		if m.Role == RoleModel {
			role = RoleModel
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return contents
}

// collect folds one streamed chunk into the turn.
func collect(resp *genai.GenerateContentResponse, text *strings.Builder, turn *Turn, onDelta func(string)) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			if p == "" {
				continue
			}
			text.WriteString(string(p))
			onDelta(string(p))
		case genai.FunctionCall:
			turn.ToolCalls = append(turn.ToolCalls, ToolCall{Name: p.Name, Args: p.Args})
		case *genai.FunctionCall:
			turn.ToolCalls = append(turn.ToolCalls, ToolCall{Name: p.Name, Args: p.Args})
		}
	}
}

func (g *GeminiModel) Generate(ctx context.Context, history []Message, onDelta func(string)) (*Turn, error) {
	contents := toContents(history)
	if len(contents) == 0 {
		return nil, errors.New("gemini: empty history")
	}

	cs := g.model.StartChat()
	cs.History = contents[:len(contents)-1]
	iter := cs.SendMessageStream(ctx, contents[len(contents)-1].Parts...)

	turn := &Turn{}
	var text strings.Builder
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gemini stream: %w", err)
		}
		collect(resp, &text, turn, onDelta)
	}
	turn.Text = text.String()
	return turn, nil
}
