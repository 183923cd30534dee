// Package conversation 负责对话历史的校验修复、提示词拼接以及模型回复的拆分。
// 所有函数都是纯函数，不保存任何状态。
package conversation

import (
	"strings"

	"chemsafe-go/internal/model"
	"chemsafe-go/pkg/llm"
)

// normalizeRole 把客户端传来的角色映射为 user/model，无法识别时返回空串。
func normalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "user":
		return model.RoleUser
	case "model", "assistant":
		return model.RoleModel
	}
	return ""
}

// SanitizeHistory 修复历史记录，保证：
//  1. 第一条是 user，之前的消息全部丢弃；
//  2. 相邻两条角色不同，与上一条保留消息角色相同的被丢弃；
//  3. 不以 user 结尾，因为本轮的新消息会紧接在后面。
//
// 角色无法识别或内容为空的消息直接丢弃。
func SanitizeHistory(turns []model.ChatTurn) []llm.Message {
	kept := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		role := normalizeRole(t.Role)
		text := t.Text()
		if role == "" || strings.TrimSpace(text) == "" {
			continue
		}
		if len(kept) == 0 {
			if role != model.RoleUser {
				continue
			}
		} else if kept[len(kept)-1].Role == role {
			continue
		}
		kept = append(kept, llm.Message{Role: role, Content: text})
	}
	if n := len(kept); n > 0 && kept[n-1].Role == model.RoleUser {
		kept = kept[:n-1]
	}
	return kept
}

// ComposePrompt 在新对话的第一轮把系统提示词放到用户消息前面，之后只发送消息本身。
func ComposePrompt(history []llm.Message, message, systemPrompt string) string {
	if len(history) == 0 {
		return systemPrompt + "\n\nUser Question: " + message
	}
	return message
}
