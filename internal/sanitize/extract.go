// Package sanitize 从生成式后端返回的任意文本中恢复出合法的 JSON。
package sanitize

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"chemsafe-go/internal/apperror"
)

// 第一个 ``` 代码块，语言标记 json 可选
var fencedBlock = regexp.MustCompile("(?s)```(?:json|JSON)?[ \\t]*\\r?\\n?(.*?)```")

var errEmptyResponse = errors.New("empty response from backend")

// ExtractJSON 依次尝试：取代码块内容、截取最外层对象/数组、去掉多余的尾逗号，最后解析。
// 解析失败返回 MalformedResponse，不产生任何副作用。
func ExtractJSON(raw string) (json.RawMessage, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, apperror.Malformed("sanitize", len(raw), errEmptyResponse)
	}

	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	text = widestSpan(text)
	text = stripTrailingCommas(text)

	var v interface{}
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, apperror.Malformed("sanitize", len(raw), err)
	}
	return json.RawMessage(text), nil
}

// widestSpan 截取第一个 { 到最后一个 } 或第一个 [ 到最后一个 ] 之间的内容，取范围更大的一对。
func widestSpan(s string) string {
	objStart, objEnd := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}')
	arrStart, arrEnd := strings.IndexByte(s, '['), strings.LastIndexByte(s, ']')
	objOK := objStart >= 0 && objEnd > objStart
	arrOK := arrStart >= 0 && arrEnd > arrStart

	switch {
	case objOK && arrOK:
		if arrEnd-arrStart > objEnd-objStart {
			return s[arrStart : arrEnd+1]
		}
		return s[objStart : objEnd+1]
	case objOK:
		return s[objStart : objEnd+1]
	case arrOK:
		return s[arrStart : arrEnd+1]
	}
	return s
}

// stripTrailingCommas 删除紧跟在 } 或 ] 之前的逗号，字符串字面量内部保持不变。
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
		} else if c == ',' {
			j := i + 1
			for j < len(s) && isJSONSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
