// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"chemsafe-go/internal/apperror"
	"chemsafe-go/internal/cache"
	"chemsafe-go/internal/generator"
	"chemsafe-go/internal/model"
	"chemsafe-go/pkg/llm"
	"chemsafe-go/pkg/log"

	"golang.org/x/sync/singleflight"
)

// DocumentGenerator 生成一份结构化文档。
type DocumentGenerator interface {
	Generate(ctx context.Context, req generator.Request) (json.RawMessage, error)
}

// ResolveRequest 是一次文档解析请求。
type ResolveRequest struct {
	Kind     model.DocumentKind
	Subject  string
	Language string
	// UserID 非空时，缓存未命中并生成成功后会触发钩子（例如推送通知）
	UserID string
}

// DocumentResult 是解析结果，Cached 表示数据来自缓存。
type DocumentResult struct {
	Data   json.RawMessage `json:"data"`
	Cached bool            `json:"cached"`
}

// ResolvedEvent 描述一次新生成的文档，传给钩子。
type ResolvedEvent struct {
	Kind     model.DocumentKind
	Subject  string
	Language string
	UserID   string
	Data     json.RawMessage
}

// Hook 在缓存未命中并生成成功后异步执行，失败只能记录日志。
type Hook func(ctx context.Context, ev ResolvedEvent)

// DocumentService 接口定义了文档生成相关的业务操作。
type DocumentService interface {
	// Resolve 先查缓存，未命中时生成并写回缓存。
	Resolve(ctx context.Context, req ResolveRequest) (*DocumentResult, error)
	// IdentifyChemical 从 OCR 文本中识别化学品，不走缓存。
	IdentifyChemical(ctx context.Context, text, language string) (json.RawMessage, error)
	// AnalyzeFile 分析上传的图片或 PDF，不走缓存。
	AnalyzeFile(ctx context.Context, file llm.Attachment, language string) (json.RawMessage, error)
}

// DocumentServiceOptions 配置 DocumentService。
type DocumentServiceOptions struct {
	// CoalesceMisses 为 true 时，同一 key 的并发未命中只生成一次
	CoalesceMisses bool
	Hooks          []Hook
}

type documentService struct {
	store     cache.Store
	generator DocumentGenerator
	opts      DocumentServiceOptions
	group     singleflight.Group
}

// NewDocumentService 创建一个新的 DocumentService 实例。
func NewDocumentService(store cache.Store, gen DocumentGenerator, opts DocumentServiceOptions) DocumentService {
	return &documentService{store: store, generator: gen, opts: opts}
}

func (s *documentService) Resolve(ctx context.Context, req ResolveRequest) (*DocumentResult, error) {
	if !req.Kind.Cacheable() {
		return nil, apperror.Validation("document kind %q cannot be resolved", req.Kind)
	}
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, apperror.Validation("productName is required")
	}
	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = req.Kind.DefaultLanguage()
	}

	key := cache.NewKey(req.Kind, subject, language)
	if data, ok := s.store.Get(ctx, key); ok {
		log.Infow("文档缓存命中", "key", key.String())
		return &DocumentResult{Data: data, Cached: true}, nil
	}

	log.Infow("文档缓存未命中，开始生成", "key", key.String())
	data, err := s.generateMiss(ctx, key, subject, language)
	if err != nil {
		return nil, err
	}

	if req.UserID != "" {
		s.runHooks(ctx, ResolvedEvent{Kind: req.Kind, Subject: subject, Language: language, UserID: req.UserID, Data: data})
	}
	return &DocumentResult{Data: data, Cached: false}, nil
}

func (s *documentService) generateMiss(ctx context.Context, key model.CacheKey, subject, language string) (json.RawMessage, error) {
	if !s.opts.CoalesceMisses {
		return s.generateAndStore(ctx, key, subject, language)
	}

	// 共享的生成不受单个调用方取消的影响，后端调用本身仍有超时
	ch := s.group.DoChan(key.String(), func() (interface{}, error) {
		return s.generateAndStore(context.WithoutCancel(ctx), key, subject, language)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			log.Debugw("并发未命中已合并", "key", key.String())
		}
		return res.Val.(json.RawMessage), nil
	case <-ctx.Done():
		return nil, apperror.Backend("resolve "+string(key.Kind), ctx.Err())
	}
}

func (s *documentService) generateAndStore(ctx context.Context, key model.CacheKey, subject, language string) (json.RawMessage, error) {
	data, err := s.generator.Generate(ctx, generator.Request{Kind: key.Kind, Subject: subject, Language: language})
	if err != nil {
		return nil, err
	}
	s.store.Put(ctx, key, data)
	return data, nil
}

func (s *documentService) runHooks(ctx context.Context, ev ResolvedEvent) {
	detached := context.WithoutCancel(ctx)
	for _, hook := range s.opts.Hooks {
		hook := hook
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("文档钩子 panic: %v", r)
				}
			}()
			hook(detached, ev)
		}()
	}
}

func (s *documentService) IdentifyChemical(ctx context.Context, text, language string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.Validation("text is required")
	}
	if strings.TrimSpace(language) == "" {
		language = model.KindOCR.DefaultLanguage()
	}
	return s.generator.Generate(ctx, generator.Request{Kind: model.KindOCR, Subject: text, Language: language})
}

func (s *documentService) AnalyzeFile(ctx context.Context, file llm.Attachment, language string) (json.RawMessage, error) {
	if len(file.Data) == 0 {
		return nil, apperror.Validation("file is required")
	}
	if strings.TrimSpace(language) == "" {
		language = model.KindFileAnalysis.DefaultLanguage()
	}
	data, err := s.generator.Generate(ctx, generator.Request{Kind: model.KindFileAnalysis, Language: language, Attachment: &file})
	if err != nil {
		return nil, fmt.Errorf("analyze %s (%d bytes): %w", file.MIMEType, len(file.Data), err)
	}
	return data, nil
}
