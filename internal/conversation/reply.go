package conversation

import (
	"regexp"
	"strings"

	"chemsafe-go/internal/model"
)

var (
	// ---、*** 或 ___ 组成的分隔线
	horizontalRule = regexp.MustCompile(`^\s*([-*_])(\s*[-*_]){2,}\s*$`)
	// 列表项：- * • 或 1. 1)
	listItem = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.*)$`)
)

// headingText 去掉 Markdown 标题、加粗标记和结尾冒号后的文本。
func headingText(line string) string {
	s := strings.TrimLeft(line, "#*_ \t")
	return strings.TrimRight(s, "*_: \t\r")
}

func isSuggestionHeading(line string) bool {
	text := headingText(line)
	if text == "" {
		return false
	}
	for _, h := range suggestionHeadings {
		if strings.EqualFold(text, h) {
			return true
		}
	}
	return false
}

// SplitReply 把模型回复拆成正文和推荐问题。
// 从推荐问题标题（以及紧挨着它的分隔线）开始的内容都从正文中移除，
// 标题下的列表项成为推荐问题，跳过 [占位符] 形式的行，最多保留 MaxSuggestions 条。
func SplitReply(raw string) model.GenerationReply {
	lines := strings.Split(raw, "\n")

	heading := -1
	for i, line := range lines {
		if isSuggestionHeading(line) {
			heading = i
			break
		}
	}
	if heading < 0 {
		return model.GenerationReply{Content: strings.TrimSpace(raw), SuggestedQuestions: []string{}}
	}

	cut := heading
	for j := heading - 1; j >= 0; j-- {
		if strings.TrimSpace(lines[j]) == "" {
			continue
		}
		if horizontalRule.MatchString(lines[j]) {
			cut = j
		}
		break
	}

	questions := make([]string, 0, MaxSuggestions)
	for _, line := range lines[heading+1:] {
		if len(questions) == MaxSuggestions {
			break
		}
		m := listItem.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		q := strings.TrimSpace(m[1])
		if q == "" || strings.HasPrefix(q, "[") || strings.HasSuffix(q, "]") {
			continue
		}
		questions = append(questions, q)
	}

	return model.GenerationReply{
		Content:            strings.TrimSpace(strings.Join(lines[:cut], "\n")),
		SuggestedQuestions: questions,
	}
}
