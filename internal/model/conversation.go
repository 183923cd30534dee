package model

import "strings"

// 对话角色
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// TextPart 兼容 {role, parts:[{text}]} 形式的历史消息。
type TextPart struct {
	Text string `json:"text"`
}

// ChatTurn 代表对话中的一轮消息。
type ChatTurn struct {
	Role    string     `json:"role"`
	Content string     `json:"content,omitempty"`
	Parts   []TextPart `json:"parts,omitempty"`
}

// Text 返回这一轮的文本内容，Content 为空时拼接 Parts。
func (t ChatTurn) Text() string {
	if t.Content != "" {
		return t.Content
	}
	var b strings.Builder
	for _, p := range t.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// GenerationReply 是拆分后的模型回复。
type GenerationReply struct {
	Content            string   `json:"content"`
	SuggestedQuestions []string `json:"suggestedQuestions"`
}

// ChatMetadata 是对话的标题和图标。
type ChatMetadata struct {
	Title string `json:"title"`
	Icon  string `json:"icon"`
}

// DefaultChatMetadata 在无法生成元数据时使用。
var DefaultChatMetadata = ChatMetadata{Title: "Kimya Konuşması", Icon: "science"}
