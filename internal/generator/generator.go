// Package generator 负责调用生成式后端，把模型输出转换成经过校验的结构化文档。
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"chemsafe-go/internal/apperror"
	"chemsafe-go/internal/model"
	"chemsafe-go/internal/sanitize"
	"chemsafe-go/pkg/llm"
	"chemsafe-go/pkg/log"
	"chemsafe-go/pkg/metrics"
)

// MaxNewsItems 是一次翻译的新闻条数上限。
const MaxNewsItems = 10

// Request 描述一次文档生成。
type Request struct {
	Kind     model.DocumentKind
	Subject  string
	Language string
	// Attachment 只用于 file_analysis
	Attachment *llm.Attachment
	// News 只用于 news
	News []model.NewsItem
}

// Options 配置 Generator。
type Options struct {
	// DocumentParams 用于结构化文档，通常 JSON 为 true
	DocumentParams llm.GenerationParams
	// TextParams 用于对话和元数据
	TextParams llm.GenerationParams
	Timeout    time.Duration
	// Schemas 为 nil 时跳过形状校验
	Schemas *SchemaRegistry
}

// Generator 封装了提示词渲染、模型调用、JSON 恢复和形状校验。
type Generator struct {
	client    llm.Client
	sanitizer *sanitize.Sanitizer
	opts      Options
}

// New 创建一个 Generator。
func New(client llm.Client, sanitizer *sanitize.Sanitizer, opts Options) *Generator {
	if sanitizer == nil {
		sanitizer = sanitize.New(nil, 0)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 90 * time.Second
	}
	return &Generator{client: client, sanitizer: sanitizer, opts: opts}
}

// TextParams 返回对话使用的生成参数。
func (g *Generator) TextParams() llm.GenerationParams {
	return g.opts.TextParams
}

// Generate 生成一份结构化文档，返回经过清洗的 JSON。
func (g *Generator) Generate(ctx context.Context, req Request) (json.RawMessage, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	prompt, err := BuildPrompt(req.Kind, promptData{
		Subject:  strings.TrimSpace(req.Subject),
		Language: req.Language,
		News:     req.News,
	})
	if err != nil {
		return nil, err
	}

	resp, err := g.Complete(ctx, string(req.Kind), llm.Request{
		Prompt:     prompt,
		Attachment: req.Attachment,
		Params:     g.opts.DocumentParams,
	})
	if err != nil {
		return nil, err
	}

	doc, err := g.sanitizer.Extract(ctx, resp.Text)
	if err != nil {
		metrics.Generations.WithLabelValues(string(req.Kind), "malformed").Inc()
		log.Warnw("模型响应无法解析为 JSON", "kind", req.Kind, "length", len(resp.Text), "error", err)
		return nil, err
	}
	if req.Kind == model.KindNews {
		doc = wrapNewsList(doc)
	}
	if g.opts.Schemas != nil {
		if err := g.opts.Schemas.Validate(req.Kind, doc); err != nil {
			g.sanitizer.Persist(ctx, resp.Text)
			metrics.Generations.WithLabelValues(string(req.Kind), "malformed").Inc()
			log.Warnw("模型响应不符合文档结构", "kind", req.Kind, "error", err)
			return nil, apperror.Malformed("validate "+string(req.Kind), len(resp.Text), err)
		}
	}
	metrics.Generations.WithLabelValues(string(req.Kind), "ok").Inc()
	return doc, nil
}

func validateRequest(req Request) error {
	switch req.Kind {
	case model.KindSafety, model.KindTechnical, model.KindProduct, model.KindOCR:
		if strings.TrimSpace(req.Subject) == "" {
			return apperror.Validation("subject is required for %s", req.Kind)
		}
	case model.KindFileAnalysis:
		if req.Attachment == nil || len(req.Attachment.Data) == 0 {
			return apperror.Validation("file is required")
		}
	case model.KindNews:
		if len(req.News) == 0 {
			return apperror.Validation("news items are required")
		}
	default:
		return apperror.Validation("unknown document kind %q", req.Kind)
	}
	return nil
}

// Complete 在超时限制内调用一次后端，失败时返回 BackendError。label 用于日志和指标。
func (g *Generator) Complete(ctx context.Context, label string, req llm.Request) (*llm.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.Generate(ctx, req)
	return g.finish(ctx, label, start, resp, err)
}

// CompleteStream 与 Complete 相同，但以流式方式回调每个分块。
func (g *Generator) CompleteStream(ctx context.Context, label string, req llm.Request, onChunk func(string) error) (*llm.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	start := time.Now()
	var chunkErr error
	resp, err := g.client.GenerateStream(ctx, req, func(chunk string) error {
		if err := onChunk(chunk); err != nil {
			chunkErr = err
			return err
		}
		return nil
	})
	if chunkErr != nil {
		metrics.Generations.WithLabelValues(label, "aborted").Inc()
		log.Warnw("流式响应被调用方中止", "kind", label, "latency", time.Since(start), "error", chunkErr)
		return nil, fmt.Errorf("%w: %w", llm.ErrStreamAborted, chunkErr)
	}
	return g.finish(ctx, label, start, resp, err)
}

func (g *Generator) finish(ctx context.Context, label string, start time.Time, resp *llm.Response, err error) (*llm.Response, error) {
	elapsed := time.Since(start)
	metrics.GenerationSeconds.WithLabelValues(label).Observe(elapsed.Seconds())
	if errors.Is(err, llm.ErrUnsupportedAttachment) {
		metrics.Generations.WithLabelValues(label, "rejected").Inc()
		log.Warnw("后端不支持该附件类型", "kind", label, "error", err)
		return nil, apperror.Validation("%v", err)
	}
	if err != nil {
		metrics.Generations.WithLabelValues(label, "backend_error").Inc()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", g.opts.Timeout, err)
		}
		log.Errorw("调用生成式后端失败", "kind", label, "latency", elapsed, "error", err)
		return nil, apperror.Backend("generate "+label, err)
	}
	log.Infow("生成式后端调用完成",
		"kind", label,
		"latency", elapsed,
		"finishReason", resp.FinishReason,
		"promptTokens", resp.Usage.PromptTokens,
		"outputTokens", resp.Usage.OutputTokens,
		"responseLength", len(resp.Text),
	)
	return resp, nil
}

// TranslateNews 翻译至多 MaxNewsItems 条新闻，补全编号、日期和原始链接。
func (g *Generator) TranslateNews(ctx context.Context, items []model.NewsItem, language string) ([]model.TranslatedNews, error) {
	if len(items) > MaxNewsItems {
		items = items[:MaxNewsItems]
	}
	doc, err := g.Generate(ctx, Request{Kind: model.KindNews, Language: language, News: items})
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Items *[]model.TranslatedNews `json:"items"`
	}
	if err := json.Unmarshal(doc, &envelope); err != nil {
		return nil, apperror.Malformed("decode news", len(doc), err)
	}
	if envelope.Items == nil {
		return nil, apperror.Malformed("decode news", len(doc), errors.New("missing items"))
	}
	out := *envelope.Items
	today := time.Now().Format("2006-01-02")
	for i := range out {
		out[i].ID = i + 1
		if out[i].Date == "" {
			out[i].Date = today
		}
		if out[i].SourceLink == "" && i < len(items) {
			out[i].SourceLink = items[i].Link
		}
	}
	return out, nil
}

// wrapNewsList 把顶层数组包成 {"items": [...]}，其余内容原样返回。
func wrapNewsList(doc json.RawMessage) json.RawMessage {
	trimmed := strings.TrimSpace(string(doc))
	if !strings.HasPrefix(trimmed, "[") {
		return doc
	}
	return json.RawMessage(`{"items":` + trimmed + `}`)
}

// ChatMetadata 为对话生成标题和图标，任何失败都返回默认值。
func (g *Generator) ChatMetadata(ctx context.Context, turns []model.ChatTurn) model.ChatMetadata {
	if len(turns) == 0 {
		return model.DefaultChatMetadata
	}
	prompt, err := buildMetadataPrompt(turns)
	if err != nil {
		log.Warnw("渲染元数据提示词失败", "error", err)
		return model.DefaultChatMetadata
	}
	resp, err := g.Complete(ctx, "chat_metadata", llm.Request{Prompt: prompt, Params: g.opts.TextParams})
	if err != nil {
		return model.DefaultChatMetadata
	}
	return parseMetadata(resp.Text)
}

// parseMetadata 解析 {title, icon}，两个字段都必须是非空字符串。
func parseMetadata(raw string) model.ChatMetadata {
	doc, err := sanitize.ExtractJSON(raw)
	if err != nil {
		log.Warnw("元数据响应无法解析", "length", len(raw), "error", err)
		return model.DefaultChatMetadata
	}
	var md struct {
		Title any `json:"title"`
		Icon  any `json:"icon"`
	}
	if err := json.Unmarshal(doc, &md); err != nil {
		return model.DefaultChatMetadata
	}
	title, ok1 := md.Title.(string)
	icon, ok2 := md.Icon.(string)
	title, icon = strings.TrimSpace(title), strings.TrimSpace(icon)
	if !ok1 || !ok2 || title == "" || icon == "" {
		return model.DefaultChatMetadata
	}
	return model.ChatMetadata{Title: title, Icon: icon}
}
