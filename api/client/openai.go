package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aouyang1/pptmaker/api/models"
	"github.com/aouyang1/pptmaker/outline"
	openai "github.com/sashabaranov/go-openai"
)

const DefaultOpenAIModel = openai.GPT4oMini

// OpenAIOutliner produces outlines straight from a chat completion model.
// Rendering still goes through the backend.
type OpenAIOutliner struct {
	client *openai.Client
	model  string
}

func NewOpenAIOutliner(apiKey, model string) *OpenAIOutliner {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIOutliner{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// newOpenAIOutlinerWithBaseURL points the outliner at another server.
func newOpenAIOutlinerWithBaseURL(apiKey, model, baseURL string) *OpenAIOutliner {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &OpenAIOutliner{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (o *OpenAIOutliner) RequestOutline(ctx context.Context, req models.OutlineRequest) (*outline.Outline, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: outlineSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: outlinePrompt(req)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, &Error{Kind: KindServer, StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message, Err: err}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return nil, &Error{Kind: KindStatus, StatusCode: reqErr.HTTPStatusCode, Err: err}
		}
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &Error{Kind: KindDecode, Err: errors.New("no choices in completion")}
	}

	var out outline.Outline
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return nil, &Error{Kind: KindDecode, Err: err}
	}
	out.Renumber()
	return &out, nil
}

const outlineSystemPrompt = `You write presentation outlines. Reply with one JSON object:
{"presentation_title": string, "slides": [slide]}.
Each slide has "slide_number" (1-based), "type" and "title". By type:
title: "subtitle"; content: "bullet_points" (array of strings); section: nothing else;
quote: "quote_text", "quote_author"; two-column: "column_left_title", "column_left_points",
"column_right_title", "column_right_points". The first slide is a title slide.`

func outlinePrompt(req models.OutlineRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\nNumber of slides: %d\n", req.Topic, req.NumSlides)
	if req.Tone != nil {
		fmt.Fprintf(&b, "Tone: %s\n", *req.Tone)
	}
	if len(req.AllowedSlideTypes) > 0 {
		fmt.Fprintf(&b, "Besides the title slide, only use these slide types: %s\n", strings.Join(req.AllowedSlideTypes, ", "))
	}
	return b.String()
}
