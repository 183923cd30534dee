// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// NotificationTask 是一条待发送的推送通知。ID 用于失败重试计数。
type NotificationTask struct {
	ID    string            `json:"id"`
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}
