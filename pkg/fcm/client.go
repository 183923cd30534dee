// Package fcm provides a client for the Firebase Cloud Messaging HTTP v1 API.
package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"chemsafe-go/internal/config"
	"chemsafe-go/pkg/log"
	"chemsafe-go/pkg/tasks"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/errgroup"
)

const messagingScope = "https://www.googleapis.com/auth/firebase.messaging"

// BatchSize 是一批发送的最大 token 数。
const BatchSize = 500

// ErrNoTarget 表示消息既没有 token 也没有 topic。
var ErrNoTarget = errors.New("fcm: message has neither token nor topic")

// Message 是一条推送消息，Token 和 Topic 二选一。
type Message struct {
	Token string
	Topic string
	Title string
	Body  string
	Data  map[string]string
}

// Client 通过 HTTP v1 接口发送推送。
type Client struct {
	httpClient *http.Client
	endpoint   string
	projectID  string
}

// NewClient 读取服务账号凭据并创建带 OAuth2 认证的客户端。
func NewClient(ctx context.Context, cfg config.NotificationConfig) (*Client, error) {
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read fcm credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, messagingScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fcm credentials: %w", err)
	}
	projectID := cfg.ProjectID
	if projectID == "" {
		projectID = creds.ProjectID
	}
	if projectID == "" {
		return nil, errors.New("fcm: project id is not configured")
	}
	return NewClientWithHTTP(oauth2.NewClient(ctx, creds.TokenSource), cfg.Endpoint, projectID), nil
}

// NewClientWithHTTP 使用给定的 http.Client 创建客户端，认证由调用方负责。
func NewClientWithHTTP(httpClient *http.Client, endpoint, projectID string) *Client {
	if endpoint == "" {
		endpoint = "https://fcm.googleapis.com"
	}
	return &Client{
		httpClient: httpClient,
		endpoint:   strings.TrimRight(endpoint, "/"),
		projectID:  projectID,
	}
}

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type wireMessage struct {
	Token        string            `json:"token,omitempty"`
	Topic        string            `json:"topic,omitempty"`
	Notification notification      `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type sendRequest struct {
	Message wireMessage `json:"message"`
}

type sendResponse struct {
	Name string `json:"name"`
}

// Send 发送一条消息，返回 FCM 分配的消息名。
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	if msg.Token == "" && msg.Topic == "" {
		return "", ErrNoTarget
	}
	reqBytes, err := json.Marshal(sendRequest{Message: wireMessage{
		Token:        msg.Token,
		Topic:        msg.Topic,
		Notification: notification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
	}})
	if err != nil {
		return "", fmt.Errorf("failed to marshal fcm request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/projects/%s/messages:send", c.endpoint, c.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create fcm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call fcm api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("fcm api returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode fcm response: %w", err)
	}
	return out.Name, nil
}

// BatchResult 汇总批量发送的结果。
type BatchResult struct {
	SuccessCount int
	FailureCount int
	Errors       []error
}

// SendEach 把同一条通知发给多个 token，每批最多 BatchSize 个，批内并发发送。
func (c *Client) SendEach(ctx context.Context, tokens []string, title, body string, data map[string]string) BatchResult {
	var result BatchResult
	for start := 0; start < len(tokens); start += BatchSize {
		end := start + BatchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]
		errs := make([]error, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(16)
		for i, tok := range batch {
			i, tok := i, tok
			g.Go(func() error {
				_, errs[i] = c.Send(gctx, Message{Token: tok, Title: title, Body: body, Data: data})
				return nil
			})
		}
		_ = g.Wait()

		for _, err := range errs {
			if err != nil {
				result.FailureCount++
				result.Errors = append(result.Errors, err)
				continue
			}
			result.SuccessCount++
		}
	}
	log.Infof("[FCM] 批量发送完成, 成功: %d, 失败: %d", result.SuccessCount, result.FailureCount)
	return result
}

// Process 发送一个通知任务，满足 Kafka 消费者的 TaskProcessor 接口。
func (c *Client) Process(ctx context.Context, task tasks.NotificationTask) error {
	name, err := c.Send(ctx, Message{Token: task.Token, Title: task.Title, Body: task.Body, Data: task.Data})
	if err != nil {
		return err
	}
	log.Infow("[FCM] 推送发送成功", "task", task.ID, "message", name)
	return nil
}

// Dispatch 同步发送通知，用于不经过 Kafka 的直接模式。
func (c *Client) Dispatch(ctx context.Context, task tasks.NotificationTask) error {
	return c.Process(ctx, task)
}
