package llm

import (
	"context"
	"fmt"
	"strings"

	"chemsafe-go/internal/config"

	"google.golang.org/genai"
)

type geminiClient struct {
	client *genai.Client
	model  string
}

func newGeminiClient(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &geminiClient{client: client, model: cfg.Model}, nil
}

func geminiContents(req Request) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, m := range req.History {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if req.Attachment != nil {
		// SDK 负责在请求体中做 base64 编码
		parts = append(parts, genai.NewPartFromBytes(req.Attachment.Data, req.Attachment.MIMEType))
	}
	return append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
}

func geminiConfig(p GenerationParams) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:      p.Temperature,
		TopP:             p.TopP,
		TopK:             p.TopK,
		MaxOutputTokens:  p.MaxOutputTokens,
		ResponseMIMEType: "text/plain",
	}
	if p.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

func toResponse(resp *genai.GenerateContentResponse, text string) *Response {
	out := &Response{Text: text}
	if resp == nil {
		return out
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		out.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = Usage{
			PromptTokens: u.PromptTokenCount,
			OutputTokens: u.CandidatesTokenCount,
			TotalTokens:  u.TotalTokenCount,
		}
	}
	return out
}

func (c *geminiClient) Generate(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, geminiContents(req), geminiConfig(req.Params))
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	return toResponse(resp, resp.Text()), nil
}

func (c *geminiClient) GenerateStream(ctx context.Context, req Request, onChunk func(chunk string) error) (*Response, error) {
	var (
		b    strings.Builder
		last *genai.GenerateContentResponse
	)
	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, geminiContents(req), geminiConfig(req.Params)) {
		if err != nil {
			return nil, fmt.Errorf("gemini stream: %w", err)
		}
		last = resp
		chunk := resp.Text()
		if chunk == "" {
			continue
		}
		b.WriteString(chunk)
		if err := onChunk(chunk); err != nil {
			return nil, err
		}
	}
	return toResponse(last, b.String()), nil
}
