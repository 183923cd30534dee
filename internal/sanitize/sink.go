package sanitize

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
)

// DiagnosticSink 保存诊断文件。
type DiagnosticSink interface {
	Save(ctx context.Context, name string, data []byte) error
}

// NopSink 丢弃所有诊断文件。
type NopSink struct{}

func (NopSink) Save(context.Context, string, []byte) error { return nil }

// FileSink 把诊断文件写到本地目录。
type FileSink struct {
	dir string
}

// NewFileSink 创建 FileSink，目录不存在时在首次写入时创建。
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

func (f *FileSink) Save(_ context.Context, name string, data []byte) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create diagnostics dir: %w", err)
	}
	return os.WriteFile(filepath.Join(f.dir, name), data, 0o644)
}

// MinioSink 把诊断文件上传到对象存储。
type MinioSink struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioSink 创建 MinioSink，对象名为 prefix+name。
func NewMinioSink(client *minio.Client, bucket, prefix string) *MinioSink {
	return &MinioSink{client: client, bucket: bucket, prefix: prefix}
}

func (m *MinioSink) Save(ctx context.Context, name string, data []byte) error {
	_, err := m.client.PutObject(ctx, m.bucket, m.prefix+name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return nil
}
