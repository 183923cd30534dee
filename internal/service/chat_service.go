package service

import (
	"context"
	"strings"

	"chemsafe-go/internal/apperror"
	"chemsafe-go/internal/conversation"
	"chemsafe-go/internal/model"
	"chemsafe-go/pkg/llm"
)

// TextGenerator 以自由文本模式调用后端。
type TextGenerator interface {
	Complete(ctx context.Context, label string, req llm.Request) (*llm.Response, error)
	CompleteStream(ctx context.Context, label string, req llm.Request, onChunk func(string) error) (*llm.Response, error)
	TextParams() llm.GenerationParams
}

// ChatRequest 是一轮对话请求。
type ChatRequest struct {
	Message  string           `json:"message"`
	Language string           `json:"language"`
	History  []model.ChatTurn `json:"history"`
}

// ChatService 定义了聊天操作的接口。
type ChatService interface {
	Chat(ctx context.Context, req ChatRequest) (*model.GenerationReply, error)
	// StreamChat 每收到一个分块回调一次 onChunk，结束后返回拆分好的完整回复。
	StreamChat(ctx context.Context, req ChatRequest, onChunk func(string) error) (*model.GenerationReply, error)
}

type chatService struct {
	generator TextGenerator
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(gen TextGenerator) ChatService {
	return &chatService{generator: gen}
}

func (s *chatService) Chat(ctx context.Context, req ChatRequest) (*model.GenerationReply, error) {
	llmReq, err := s.buildRequest(req)
	if err != nil {
		return nil, err
	}
	resp, err := s.generator.Complete(ctx, "chat", llmReq)
	if err != nil {
		return nil, err
	}
	reply := conversation.SplitReply(resp.Text)
	return &reply, nil
}

func (s *chatService) StreamChat(ctx context.Context, req ChatRequest, onChunk func(string) error) (*model.GenerationReply, error) {
	llmReq, err := s.buildRequest(req)
	if err != nil {
		return nil, err
	}
	resp, err := s.generator.CompleteStream(ctx, "chat", llmReq, onChunk)
	if err != nil {
		return nil, err
	}
	reply := conversation.SplitReply(resp.Text)
	return &reply, nil
}

// buildRequest 修复历史记录，并在新对话的第一轮带上系统提示词。
func (s *chatService) buildRequest(req ChatRequest) (llm.Request, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return llm.Request{}, apperror.Validation("message is required")
	}
	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = "Turkish"
	}
	history := conversation.SanitizeHistory(req.History)
	return llm.Request{
		History: history,
		Prompt:  conversation.ComposePrompt(history, message, conversation.SystemPrompt(language)),
		Params:  s.generator.TextParams(),
	}, nil
}
