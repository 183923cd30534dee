package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"chemsafe-go/internal/config"

	"github.com/sashabaranov/go-openai"
)

// openAIClient 对接任意 OpenAI 兼容的 /chat/completions 接口。
// 该协议没有 top-k 参数，TopK 会被忽略。
type openAIClient struct {
	client *openai.Client
	model  string
}

func newOpenAIClient(cfg config.LLMConfig) Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &openAIClient{client: openai.NewClientWithConfig(oc), model: cfg.Model}
}

// image_url 内容块只接受图片，PDF 等文件无法通过该协议发送。
func checkAttachment(a *Attachment) error {
	if a == nil || strings.HasPrefix(a.MIMEType, "image/") {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedAttachment, a.MIMEType)
}

func (c *openAIClient) request(req Request, stream bool) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.History)+1)
	for _, m := range req.History {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	last := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if req.Attachment != nil {
		dataURL := fmt.Sprintf("data:%s;base64,%s", req.Attachment.MIMEType, base64.StdEncoding.EncodeToString(req.Attachment.Data))
		last.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
		}
	} else {
		last.Content = req.Prompt
	}
	msgs = append(msgs, last)

	r := openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  msgs,
		MaxTokens: int(req.Params.MaxOutputTokens),
		Stream:    stream,
	}
	if req.Params.Temperature != nil {
		r.Temperature = *req.Params.Temperature
	}
	if req.Params.TopP != nil {
		r.TopP = *req.Params.TopP
	}
	if req.Params.JSON {
		r.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	return r
}

func (c *openAIClient) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := checkAttachment(req.Attachment); err != nil {
		return nil, err
	}
	resp, err := c.client.CreateChatCompletion(ctx, c.request(req, false))
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}
	return &Response{
		Text:         resp.Choices[0].Message.Content,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: Usage{
			PromptTokens: int32(resp.Usage.PromptTokens),
			OutputTokens: int32(resp.Usage.CompletionTokens),
			TotalTokens:  int32(resp.Usage.TotalTokens),
		},
	}, nil
}

func (c *openAIClient) GenerateStream(ctx context.Context, req Request, onChunk func(chunk string) error) (*Response, error) {
	if err := checkAttachment(req.Attachment); err != nil {
		return nil, err
	}
	stream, err := c.client.CreateChatCompletionStream(ctx, c.request(req, true))
	if err != nil {
		return nil, fmt.Errorf("chat completion stream: %w", err)
	}
	defer stream.Close()

	out := &Response{}
	var b strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read from stream: %w", err)
		}
		if resp.Usage != nil {
			out.Usage = Usage{
				PromptTokens: int32(resp.Usage.PromptTokens),
				OutputTokens: int32(resp.Usage.CompletionTokens),
				TotalTokens:  int32(resp.Usage.TotalTokens),
			}
		}
		for _, choice := range resp.Choices {
			if choice.FinishReason != "" {
				out.FinishReason = string(choice.FinishReason)
			}
			if choice.Delta.Content == "" {
				continue
			}
			b.WriteString(choice.Delta.Content)
			if err := onChunk(choice.Delta.Content); err != nil {
				return nil, err
			}
		}
	}
	out.Text = b.String()
	return out, nil
}
