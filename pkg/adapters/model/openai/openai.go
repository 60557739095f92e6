package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	oa "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/modelkit/toolcall/pkg/adapters/model"
	"github.com/modelkit/toolcall/pkg/tool"
)

const defaultModel = "gpt-5-nano"

type clientWrapper struct {
	client oa.Client
	model  string
}

func (c *clientWrapper) Name() string { return "openai" }

func (c *clientWrapper) Call(ctx context.Context, turns []model.Turn, tools []tool.Tool, opts map[string]any) (model.Reply, error) {
	modelName := c.model
	if v, ok := opts["model"].(string); ok && v != "" {
		modelName = v
	}

	mm := make([]oa.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case "system":
			mm = append(mm, oa.SystemMessage(t.Content))
		case "assistant":
			if len(t.Calls) > 0 {
				mm = append(mm, assistantMessage(t))
			} else {
				mm = append(mm, oa.AssistantMessage(t.Content))
			}
		case "tool":
			for _, r := range t.Results {
				mm = append(mm, oa.ToolMessage(r.Content, r.ToolCallID))
			}
		default:
			mm = append(mm, oa.UserMessage(t.Content))
		}
	}

	params := oa.ChatCompletionNewParams{
		Model:    shared.ChatModel(modelName),
		Messages: mm,
	}
	if len(tools) > 0 {
		ts, err := functionTools(tools)
		if err != nil {
			return model.Reply{}, err
		}
		params.Tools = ts
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.Reply{}, err
	}
	reply := model.Reply{
		Model: modelName,
		Usage: model.Usage{
			PromptTokens: int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:  int(resp.Usage.TotalTokens),
		},
	}
	if len(resp.Choices) > 0 {
		msg := resp.Choices[0].Message
		reply.Content = msg.Content
		for _, tc := range msg.ToolCalls {
			reply.Calls = append(reply.Calls, tool.NewCall(tc.ID, tc.Function.Name, tc.Function.Arguments))
		}
	}
	return reply, nil
}

// functionTools converts definitions to the SDK's function-tool params. The
// parameters object round-trips through JSON into the SDK's loose map shape.
func functionTools(tools []tool.Tool) ([]oa.ChatCompletionToolUnionParam, error) {
	out := make([]oa.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		raw, err := json.Marshal(t.Function.Parameters)
		if err != nil {
			return nil, fmt.Errorf("openai: marshal parameters for %q: %w", t.Function.Name, err)
		}
		var params shared.FunctionParameters
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, fmt.Errorf("openai: decode parameters for %q: %w", t.Function.Name, err)
		}
		out = append(out, oa.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        t.Function.Name,
			Description: oa.String(t.Function.Description),
			Parameters:  params,
		}))
	}
	return out, nil
}

// assistantMessage echoes an assistant turn that requested tool calls back
// into the conversation.
func assistantMessage(t model.Turn) oa.ChatCompletionMessageParamUnion {
	tcs := make([]oa.ChatCompletionMessageToolCallUnionParam, 0, len(t.Calls))
	for _, c := range t.Calls {
		tcs = append(tcs, oa.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &oa.ChatCompletionMessageFunctionToolCallParam{
				ID: c.ID,
				Function: oa.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      c.Function.Name,
					Arguments: c.Function.Arguments,
				},
			},
		})
	}
	msg := oa.ChatCompletionAssistantMessageParam{ToolCalls: tcs}
	if t.Content != "" {
		msg.Content = oa.ChatCompletionAssistantMessageParamContentUnion{OfString: oa.String(t.Content)}
	}
	return oa.ChatCompletionMessageParamUnion{OfAssistant: &msg}
}

// Factory builds the OpenAI caller; cfg keys: api_key, model.
func Factory(ctx context.Context, cfg map[string]any) (model.Caller, error) { // nolint: revive
	_ = ctx
	apiKey := os.Getenv("OPENAI_API_KEY")
	if v, ok := cfg["api_key"].(string); ok && v != "" {
		apiKey = v
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai: missing API key; set OPENAI_API_KEY or cfg.api_key")
	}
	modelName := defaultModel
	if v, ok := cfg["model"].(string); ok && v != "" {
		modelName = v
	}

	c := oa.NewClient(option.WithAPIKey(apiKey))
	return &clientWrapper{client: c, model: modelName}, nil
}

func init() {
	_ = model.Register("openai", Factory)
}
