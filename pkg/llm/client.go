// Package llm provides clients for the generative model backends.
package llm

import (
	"context"
	"errors"
	"fmt"

	"chemsafe-go/internal/config"
)

var (
	// ErrStreamAborted 表示 onChunk 回调返回了错误，流被调用方中止，与后端无关。
	ErrStreamAborted = errors.New("stream aborted by caller")
	// ErrUnsupportedAttachment 表示当前后端不接受该类型的附件。
	ErrUnsupportedAttachment = errors.New("unsupported attachment type")
)

// 消息角色
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message 表示一条历史消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Attachment 是随提示词一起发送的二进制内容（图片或 PDF）。
type Attachment struct {
	MIMEType string
	Data     []byte
}

// GenerationParams 控制生成行为。nil 指针表示使用后端默认值。
type GenerationParams struct {
	Temperature     *float32
	TopP            *float32
	TopK            *float32
	MaxOutputTokens int32
	// JSON 为 true 时要求后端只输出 JSON
	JSON bool
}

// Request 是一次生成请求。History 中的消息按时间顺序排列，Prompt 是本轮用户输入。
type Request struct {
	History    []Message
	Prompt     string
	Attachment *Attachment
	Params     GenerationParams
}

// Usage 记录 token 用量。
type Usage struct {
	PromptTokens int32
	OutputTokens int32
	TotalTokens  int32
}

// Response 是后端返回的原始文本及元数据。
type Response struct {
	Text         string
	FinishReason string
	Usage        Usage
}

// Client defines the interface for a generative backend.
type Client interface {
	// Generate 发送一次请求并返回完整文本。
	Generate(ctx context.Context, req Request) (*Response, error)
	// GenerateStream 以流式方式生成，每个文本分块回调一次 onChunk，返回拼接后的完整响应。
	GenerateStream(ctx context.Context, req Request, onChunk func(chunk string) error) (*Response, error)
}

// NewClient creates a client for the provider named in the config.
func NewClient(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "", "gemini":
		return newGeminiClient(ctx, cfg)
	case "openai":
		return newOpenAIClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

// ParamsFromConfig 由配置构造生成参数。
func ParamsFromConfig(gen config.LLMGenerationConfig, jsonOutput bool) GenerationParams {
	p := GenerationParams{MaxOutputTokens: gen.MaxOutputTokens, JSON: jsonOutput}
	if gen.Temperature != 0 {
		t := gen.Temperature
		p.Temperature = &t
	}
	if gen.TopP != 0 {
		v := gen.TopP
		p.TopP = &v
	}
	if gen.TopK != 0 {
		k := gen.TopK
		p.TopK = &k
	}
	return p
}
