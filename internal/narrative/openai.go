package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hyperengineering/snsreport/internal/types"
)

var _ Writer = (*OpenAI)(nil)

const systemPrompt = `You are an analyst writing the commentary of a social media performance report.
Reply with a single JSON object with three arrays of short sentences:
{"highlights": [...], "issues": [...], "proposals": [...]}.
Base every sentence on the figures provided. Use at most five items per array.`

// ChatCompletionsService defines the chat completion call used by OpenAI.
// This abstraction enables testing without calling the real OpenAI API.
type ChatCompletionsService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAI writes report commentary with an OpenAI chat model.
type OpenAI struct {
	completions ChatCompletionsService
	model       openai.ChatModel
	timeout     time.Duration
}

// NewOpenAI creates a new OpenAI narrative writer.
func NewOpenAI(apiKey, model string, timeout time.Duration) *OpenAI {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAI{
		completions: client.Chat.Completions,
		model:       openai.ChatModel(model),
		timeout:     timeout,
	}
}

// Write asks the model for commentary on brief.
func (o *OpenAI) Write(ctx context.Context, brief Brief) (types.Narrative, error) {
	payload, err := json.Marshal(brief)
	if err != nil {
		return types.Narrative{}, fmt.Errorf("encode brief: %w", err)
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	resp, err := o.completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(string(payload)),
		}),
		Model: openai.F(o.model),
	})
	if err != nil {
		return types.Narrative{}, fmt.Errorf("narrative generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return types.Narrative{}, fmt.Errorf("narrative generation failed: no choices returned")
	}

	return parseReply(resp.Choices[0].Message.Content)
}

// ModelName returns the chat model name.
func (o *OpenAI) ModelName() string {
	return string(o.model)
}

// parseReply decodes the model's JSON reply, tolerating a Markdown code fence.
func parseReply(content string) (types.Narrative, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	var n types.Narrative
	if err := json.Unmarshal([]byte(content), &n); err != nil {
		return types.Narrative{}, fmt.Errorf("decode narrative reply: %w", err)
	}

	n.Highlights = compact(n.Highlights)
	n.Issues = compact(n.Issues)
	n.Proposals = compact(n.Proposals)
	return n, nil
}

func compact(items []string) []string {
	var out []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
