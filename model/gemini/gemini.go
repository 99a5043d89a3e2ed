// Package gemini provides an implementation of model.Model using the Google
// Gemini API (including streaming + function calling). It adapts docent's
// normalized Request/Response structures into genai contents and back.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/hupe1980/docent/core"
	"github.com/hupe1980/docent/model"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash-lite"

// Options configure the Gemini model adapter. Temperature defaults to zero
// so repeated runs over identical history stay reproducible.
type Options struct {
	Model           string
	Temperature     float64
	MaxOutputTokens int32
	APIKey          string
}

// Model wraps the Gemini API behind the generic model.Model interface.
type Model struct {
	client *genai.Client
	opts   Options
}

// NewModel creates a new Gemini model using the official client. The API key
// is taken from Options or the GEMINI_API_KEY environment variable.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Model{client: client, opts: opts}, nil
}

// NewModelFromClient creates a new Gemini model from an existing client.
func NewModelFromClient(client *genai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:           DefaultModel,
		Temperature:     0,
		MaxOutputTokens: 4096,
	}
}

// Generate implements unified streaming / non-streaming generation.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		contents, systemInstruction := buildContents(req)
		config := m.buildConfig(req, systemInstruction)

		if req.Stream {
			m.handleStreaming(ctx, contents, config, out, errCh)
			return
		}
		m.handleNonStreaming(ctx, contents, config, out, errCh)
	}()

	return out, errCh
}

// buildContents converts normalized contents into Gemini contents. System
// text is lifted out into the system instruction; tool observations become
// user-role function response parts as the API expects.
func buildContents(req model.Request) ([]*genai.Content, string) {
	systemInstruction := req.Instructions
	var contents []*genai.Content

	for _, c := range req.Contents {
		switch c.Role {
		case core.RoleSystem:
			if text := c.Text(); text != "" {
				if systemInstruction != "" {
					systemInstruction += "\n\n" + text
				} else {
					systemInstruction = text
				}
			}
		case core.RoleUser:
			if text := c.Text(); text != "" {
				contents = append(contents, &genai.Content{
					Role:  "user",
					Parts: []*genai.Part{{Text: text}},
				})
			}
		case core.RoleAssistant:
			var parts []*genai.Part
			if text := c.Text(); text != "" {
				parts = append(parts, &genai.Part{Text: text})
			}
			for _, fc := range c.FunctionCalls() {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   fc.ID,
						Name: fc.Name,
						Args: parseArgs(fc.Arguments),
					},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: "model", Parts: parts})
			}
		case core.RoleTool:
			var parts []*genai.Part
			for _, fr := range c.FunctionResponses() {
				if fr.Name == "" {
					continue
				}
				parts = append(parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						ID:   fr.ID,
						Name: fr.Name,
						Response: map[string]any{
							"content":  fr.Response,
							"is_error": fr.Error != "",
						},
					},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: "user", Parts: parts})
			}
		}
	}

	return contents, systemInstruction
}

// parseArgs decodes the serialized argument payload; an unparseable payload
// is forwarded under a raw key so the call is not silently dropped.
func parseArgs(arguments string) map[string]any {
	if arguments == "" {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return map[string]any{"raw": arguments}
	}
	return args
}

func (m *Model) buildConfig(req model.Request, systemInstruction string) *genai.GenerateContentConfig {
	temperature := float32(m.opts.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: m.opts.MaxOutputTokens,
	}

	if systemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		}
	}

	if len(req.Tools) > 0 {
		declarations := make([]*genai.FunctionDeclaration, len(req.Tools))
		for i, tdef := range req.Tools {
			declarations[i] = &genai.FunctionDeclaration{
				Name:        tdef.Function.Name,
				Description: tdef.Function.Description,
				Parameters:  convertSchema(tdef.Function.Parameters),
			}
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
	}

	return config
}

// convertSchema recursively converts a JSON Schema map into Gemini's schema type.
func convertSchema(params map[string]interface{}) *genai.Schema {
	if params == nil {
		return nil
	}

	schema := &genai.Schema{}
	if desc, ok := params["description"].(string); ok {
		schema.Description = desc
	}

	typeName, _ := params["type"].(string)
	switch typeName {
	case "string":
		schema.Type = genai.TypeString
	case "number":
		schema.Type = genai.TypeNumber
	case "integer":
		schema.Type = genai.TypeInteger
	case "boolean":
		schema.Type = genai.TypeBoolean
	case "array":
		schema.Type = genai.TypeArray
		if items, ok := params["items"].(map[string]interface{}); ok {
			schema.Items = convertSchema(items)
		}
	case "object":
		schema.Type = genai.TypeObject
		if props, ok := params["properties"].(map[string]interface{}); ok {
			schema.Properties = make(map[string]*genai.Schema, len(props))
			for name, raw := range props {
				if child, ok := raw.(map[string]interface{}); ok {
					schema.Properties[name] = convertSchema(child)
				}
			}
		}
		switch required := params["required"].(type) {
		case []string:
			schema.Required = required
		case []interface{}:
			for _, r := range required {
				if s, ok := r.(string); ok {
					schema.Required = append(schema.Required, s)
				}
			}
		}
	default:
		schema.Type = genai.TypeString
	}

	if enum, ok := params["enum"].([]interface{}); ok {
		for _, e := range enum {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}

	return schema
}

// handleStreaming forwards partial text deltas and assembles the final
// response once the stream ends.
func (m *Model) handleStreaming(
	ctx context.Context,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
	out chan<- model.Response,
	errCh chan<- error,
) {
	var textBuilder strings.Builder
	var calls []core.FunctionCall
	finishReason := "stop"
	var usage *model.TokenUsage

	for resp, err := range m.client.Models.GenerateContentStream(ctx, m.opts.Model, contents, config) {
		if err != nil {
			errCh <- classifyErr(err)
			return
		}
		if text := resp.Text(); text != "" {
			textBuilder.WriteString(text)
			out <- model.Response{
				Partial: true,
				Content: core.Content{
					Role:  core.RoleAssistant,
					Parts: []core.Part{core.TextPart{Text: text}},
				},
			}
		}
		for _, fc := range resp.FunctionCalls() {
			calls = append(calls, convertFunctionCall(fc))
		}
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
			finishReason = strings.ToLower(string(resp.Candidates[0].FinishReason))
		}
		if resp.UsageMetadata != nil {
			usage = convertUsage(resp.UsageMetadata)
		}
	}

	out <- model.Response{
		Partial:      false,
		Content:      assembleContent(textBuilder.String(), calls),
		FinishReason: finishReason,
		Usage:        usage,
	}
}

// handleNonStreaming processes a normal (non-streaming) completion.
func (m *Model) handleNonStreaming(
	ctx context.Context,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
	out chan<- model.Response,
	errCh chan<- error,
) {
	result, err := m.client.Models.GenerateContent(ctx, m.opts.Model, contents, config)
	if err != nil {
		errCh <- classifyErr(err)
		return
	}
	if result == nil {
		errCh <- model.NewError(model.ErrorTypeUnknown, "empty response from gemini api")
		return
	}

	var calls []core.FunctionCall
	for _, fc := range result.FunctionCalls() {
		calls = append(calls, convertFunctionCall(fc))
	}

	finishReason := "stop"
	if len(result.Candidates) > 0 && result.Candidates[0].FinishReason != "" {
		finishReason = strings.ToLower(string(result.Candidates[0].FinishReason))
	}

	var usage *model.TokenUsage
	if result.UsageMetadata != nil {
		usage = convertUsage(result.UsageMetadata)
	}

	out <- model.Response{
		Partial:      false,
		Content:      assembleContent(result.Text(), calls),
		FinishReason: finishReason,
		Usage:        usage,
	}
}

func assembleContent(text string, calls []core.FunctionCall) core.Content {
	var parts []core.Part
	if text != "" {
		parts = append(parts, core.TextPart{Text: text})
	}
	for _, fc := range calls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: fc})
	}
	return core.Content{Role: core.RoleAssistant, Parts: parts}
}

// convertFunctionCall normalizes a Gemini function call. Calls without an id
// fall back to the function name so observations can still be correlated.
func convertFunctionCall(fc *genai.FunctionCall) core.FunctionCall {
	id := fc.ID
	if id == "" {
		id = fc.Name
	}
	args := ""
	if fc.Args != nil {
		if data, err := json.Marshal(fc.Args); err == nil {
			args = string(data)
		}
	}
	return core.FunctionCall{ID: id, Name: fc.Name, Arguments: args}
}

func convertUsage(meta *genai.GenerateContentResponseUsageMetadata) *model.TokenUsage {
	return &model.TokenUsage{
		PromptTokens:     int(meta.PromptTokenCount),
		CompletionTokens: int(meta.CandidatesTokenCount),
		TotalTokens:      int(meta.TotalTokenCount),
	}
}

// classifyErr maps Gemini API failures onto the shared error taxonomy using
// the provider's wire vocabulary.
func classifyErr(err error) error {
	text := err.Error()
	switch {
	case strings.Contains(text, "429") || strings.Contains(text, "RESOURCE_EXHAUSTED"):
		return model.NewErrorWithCause(model.ErrorTypeRateLimit, err, "gemini api rate limited")
	case strings.Contains(text, "401") || strings.Contains(text, "403") ||
		strings.Contains(text, "UNAUTHENTICATED") || strings.Contains(text, "PERMISSION_DENIED"):
		return model.NewErrorWithCause(model.ErrorTypeAuth, err, "gemini api auth failure")
	case strings.Contains(text, "INVALID_ARGUMENT") || strings.Contains(text, "400"):
		return model.NewErrorWithCause(model.ErrorTypeBadRequest, err, "gemini api rejected request")
	case strings.Contains(text, "500") || strings.Contains(text, "503") ||
		strings.Contains(text, "UNAVAILABLE") || strings.Contains(text, "INTERNAL"):
		return model.NewErrorWithCause(model.ErrorTypeTransient, err, "gemini api unavailable")
	default:
		return model.NewErrorWithCause(model.ErrorTypeUnknown, err, "gemini api call failed")
	}
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "gemini",
		SupportsTools: true,
	}
}
