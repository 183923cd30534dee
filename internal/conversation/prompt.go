package conversation

import (
	"fmt"
	"strings"
)

// 推荐问题小节的标题，按语言区分。SplitReply 会识别表中所有标题。
var suggestionHeadings = map[string]string{
	"turkish": "İlgili Sorular",
	"english": "Related Questions",
}

const defaultHeadingLanguage = "turkish"

// MaxSuggestions 是推荐问题的上限。
const MaxSuggestions = 3

// HeadingFor 返回某语言对应的推荐问题标题，未知语言使用土耳其语。
func HeadingFor(language string) string {
	if h, ok := suggestionHeadings[strings.ToLower(strings.TrimSpace(language))]; ok {
		return h
	}
	return suggestionHeadings[defaultHeadingLanguage]
}

const systemPromptTemplate = `You are a professional chemical expert and lab assistant.
Your goal is to help users with chemical reactions, safety data, materials and experimental protocols.
Always put safety first. If a combination is dangerous, warn the user explicitly.
Give accurate, scientific information in a formal and professional tone.
Respond in %s.

IMPORTANT: After your main answer, suggest 2-3 relevant follow-up questions the user might want to ask.
Put them at the very end of your response in exactly this format:

---
**%s:**
- [Question 1]
- [Question 2]
- [Question 3]`

// SystemPrompt 返回对话的系统提示词。
func SystemPrompt(language string) string {
	if strings.TrimSpace(language) == "" {
		language = "Turkish"
	}
	return fmt.Sprintf(systemPromptTemplate, language, HeadingFor(language))
}
