package service

import (
	"context"

	"chemsafe-go/internal/apperror"
	"chemsafe-go/internal/model"
)

// MetadataGenerator 为对话生成标题和图标，失败时返回默认值。
type MetadataGenerator interface {
	ChatMetadata(ctx context.Context, turns []model.ChatTurn) model.ChatMetadata
}

// ConversationService 定义了对话元数据的业务逻辑。
type ConversationService interface {
	GenerateMetadata(ctx context.Context, messages []model.ChatTurn) (model.ChatMetadata, error)
}

type conversationService struct {
	generator MetadataGenerator
}

// NewConversationService 创建一个新的 ConversationService。
func NewConversationService(gen MetadataGenerator) ConversationService {
	return &conversationService{generator: gen}
}

// GenerateMetadata 只有在消息为空时返回错误，其余失败都退化为默认元数据。
func (s *conversationService) GenerateMetadata(ctx context.Context, messages []model.ChatTurn) (model.ChatMetadata, error) {
	if len(messages) == 0 {
		return model.ChatMetadata{}, apperror.Validation("messages are required")
	}
	return s.generator.ChatMetadata(ctx, messages), nil
}
