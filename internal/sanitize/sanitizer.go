package sanitize

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chemsafe-go/pkg/log"

	"github.com/google/uuid"
)

// Sanitizer 在 ExtractJSON 的基础上，把无法解析的原始响应保存为诊断文件。
type Sanitizer struct {
	sink    DiagnosticSink
	timeout time.Duration
}

// New 创建一个 Sanitizer，sink 为 nil 时不保存诊断文件。
func New(sink DiagnosticSink, timeout time.Duration) *Sanitizer {
	if sink == nil {
		sink = NopSink{}
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Sanitizer{sink: sink, timeout: timeout}
}

// Extract 从原始响应中恢复 JSON；失败时保存原文并返回 MalformedResponse。
func (s *Sanitizer) Extract(ctx context.Context, raw string) (json.RawMessage, error) {
	v, err := ExtractJSON(raw)
	if err != nil {
		s.Persist(ctx, raw)
		return nil, err
	}
	return v, nil
}

// Persist 保存一份原始响应供离线分析，返回文件名。保存失败只记录日志。
func (s *Sanitizer) Persist(ctx context.Context, raw string) string {
	name := fmt.Sprintf("error_response_%d_%s.txt", time.Now().UnixMilli(), uuid.NewString()[:8])

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if err := s.sink.Save(ctx, name, []byte(raw)); err != nil {
		log.Warnw("保存诊断文件失败", "name", name, "length", len(raw), "error", err)
		return ""
	}
	log.Infow("无法解析的模型响应已保存", "name", name, "length", len(raw))
	return name
}
