package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	genai "google.golang.org/genai"

	"github.com/modelkit/toolcall/pkg/adapters/model"
	"github.com/modelkit/toolcall/pkg/schema"
	"github.com/modelkit/toolcall/pkg/tool"

	"github.com/google/uuid"
)

const defaultModel = "gemini-2.5-flash-lite"

type clientWrapper struct {
	client *genai.Client
	model  string
}

func (c *clientWrapper) Name() string { return "gemini" }

func (c *clientWrapper) Call(ctx context.Context, turns []model.Turn, tools []tool.Tool, opts map[string]any) (model.Reply, error) {
	modelName := c.model
	if v, ok := opts["model"].(string); ok && v != "" {
		modelName = v
	}

	// Function responses need the original tool name; collect it from the
	// echoed assistant calls.
	callNames := map[string]string{}
	for _, t := range turns {
		for _, call := range t.Calls {
			callNames[call.ID] = call.Function.Name
		}
	}

	var config *genai.GenerateContentConfig
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case "system":
			if config == nil {
				config = &genai.GenerateContentConfig{}
			}
			config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: t.Content}}}
		case "assistant":
			parts := make([]*genai.Part, 0, len(t.Calls)+1)
			if t.Content != "" {
				parts = append(parts, &genai.Part{Text: t.Content})
			}
			for _, call := range t.Calls {
				args, err := decodeArgs(call.Function.Arguments)
				if err != nil {
					return model.Reply{}, fmt.Errorf("gemini: call %s: %w", call.ID, err)
				}
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   call.ID,
					Name: call.Function.Name,
					Args: args,
				}})
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		case "tool":
			parts := make([]*genai.Part, 0, len(t.Results))
			for _, r := range t.Results {
				parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       r.ToolCallID,
					Name:     callNames[r.ToolCallID],
					Response: map[string]any{"content": r.Content},
				}})
			}
			contents = append(contents, &genai.Content{Role: "user", Parts: parts})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: t.Content}}})
		}
	}

	if len(tools) > 0 {
		if config == nil {
			config = &genai.GenerateContentConfig{}
		}
		decls := make([]*genai.FunctionDeclaration, 0, len(tools))
		for _, t := range tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  parametersSchema(t.Function.Parameters),
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	res, err := c.client.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return model.Reply{}, err
	}

	reply := model.Reply{Content: res.Text(), Model: modelName}
	if um := res.UsageMetadata; um != nil {
		reply.Usage = model.Usage{
			PromptTokens: int(um.PromptTokenCount),
			OutputTokens: int(um.CandidatesTokenCount),
			TotalTokens:  int(um.TotalTokenCount),
		}
	}
	for _, fc := range res.FunctionCalls() {
		id := fc.ID
		if id == "" {
			id = uuid.NewString()
		}
		args, err := json.Marshal(fc.Args)
		if err != nil {
			return model.Reply{}, fmt.Errorf("gemini: encode args for %s: %w", fc.Name, err)
		}
		reply.Calls = append(reply.Calls, tool.NewCall(id, fc.Name, string(args)))
	}
	return reply, nil
}

func decodeArgs(arguments string) (map[string]any, error) {
	if strings.TrimSpace(arguments) == "" {
		return nil, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %w", err)
	}
	return args, nil
}

// parametersSchema converts the wire parameters object to the SDK's schema.
func parametersSchema(ps tool.Parameters) *genai.Schema {
	out := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{},
		Required:   append([]string(nil), ps.Required...),
	}
	for name, p := range ps.Properties {
		s := tagSchema(p.Type)
		s.Description = p.Description
		if len(p.Enum) > 0 {
			s.Enum = append([]string(nil), p.Enum...)
		}
		out.Properties[name] = s
	}
	return out
}

func tagSchema(tag schema.Tag) *genai.Schema {
	switch tag {
	case schema.String:
		return &genai.Schema{Type: genai.TypeString}
	case schema.Number:
		return &genai.Schema{Type: genai.TypeNumber}
	case schema.Boolean:
		return &genai.Schema{Type: genai.TypeBoolean}
	}
	if elem, ok := strings.CutSuffix(string(tag), "[]"); ok {
		return &genai.Schema{Type: genai.TypeArray, Items: tagSchema(schema.Tag(elem))}
	}
	// Map<K, V> tags and anything else land on a generic object.
	return &genai.Schema{Type: genai.TypeObject}
}

// Factory builds a Gemini caller using GOOGLE_API_KEY by default.
func Factory(ctx context.Context, cfg map[string]any) (model.Caller, error) {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if v, ok := cfg["api_key"].(string); ok && v != "" {
		apiKey = v
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: missing API key; set GOOGLE_API_KEY or cfg.api_key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	modelName := defaultModel
	if v, ok := cfg["model"].(string); ok && v != "" {
		modelName = v
	}
	return &clientWrapper{client: client, model: modelName}, nil
}

func init() {
	_ = model.Register("gemini", Factory)
}
