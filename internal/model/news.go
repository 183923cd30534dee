package model

// NewsItem 是待翻译的原始新闻条目（来自 RSS）。
type NewsItem struct {
	Title          string `json:"title"`
	ContentSnippet string `json:"contentSnippet,omitempty"`
	Content        string `json:"content,omitempty"`
	Link           string `json:"link"`
}

// Summary 返回条目的摘要文本。
func (n NewsItem) Summary() string {
	if n.ContentSnippet != "" {
		return n.ContentSnippet
	}
	return n.Content
}

// TranslatedNews 是翻译并格式化后的新闻。
type TranslatedNews struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date,omitempty"`
	Source      string `json:"source,omitempty"`
	SourceLink  string `json:"sourceLink,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}
