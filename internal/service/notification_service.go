package service

import (
	"context"
	"errors"
	"time"

	"chemsafe-go/internal/model"
	"chemsafe-go/internal/repository"
	"chemsafe-go/pkg/log"
	"chemsafe-go/pkg/metrics"
	"chemsafe-go/pkg/tasks"

	"github.com/google/uuid"
)

// Dispatcher 投递一个通知任务（写入 Kafka 或直接调用 FCM）。
type Dispatcher interface {
	Dispatch(ctx context.Context, task tasks.NotificationTask) error
}

// NotificationFor 返回某类文档完成时的通知标题和正文，不需要通知时 ok 为 false。
func NotificationFor(kind model.DocumentKind, subject string) (title, body string, ok bool) {
	switch kind {
	case model.KindSafety:
		return "SDS Belgeniz Hazır ✅", subject + " için talep ettiğiniz Güvenlik Bilgi Formu AI tarafından oluşturuldu.", true
	case model.KindTechnical:
		return "TDS Belgeniz Hazır 📄", subject + " için Teknik Bilgi Formu analizi tamamlandı.", true
	}
	return "", "", false
}

// NotificationService 在文档生成完成后通知用户。
type NotificationService struct {
	profiles   repository.ProfileRepository
	dispatcher Dispatcher
	timeout    time.Duration
}

// NewNotificationService 创建一个新的 NotificationService 实例。
func NewNotificationService(profiles repository.ProfileRepository, dispatcher Dispatcher) *NotificationService {
	return &NotificationService{profiles: profiles, dispatcher: dispatcher, timeout: 10 * time.Second}
}

// OnDocumentResolved 满足 Hook 签名，只记录失败，不返回错误。
func (s *NotificationService) OnDocumentResolved(ctx context.Context, ev ResolvedEvent) {
	title, body, ok := NotificationFor(ev.Kind, ev.Subject)
	if !ok || ev.UserID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fcmToken, err := s.profiles.FindFCMToken(ctx, ev.UserID)
	if errors.Is(err, repository.ErrNoPushToken) {
		metrics.Notifications.WithLabelValues("no_token").Inc()
		log.Infow("用户没有推送令牌，跳过通知", "userId", ev.UserID)
		return
	}
	if err != nil {
		metrics.Notifications.WithLabelValues("error").Inc()
		log.Warnw("读取推送令牌失败", "userId", ev.UserID, "error", err)
		return
	}

	task := tasks.NotificationTask{
		ID:    uuid.NewString(),
		Token: fcmToken,
		Title: title,
		Body:  body,
		Data:  map[string]string{"type": string(ev.Kind), "productName": ev.Subject},
	}
	if err := s.dispatcher.Dispatch(ctx, task); err != nil {
		metrics.Notifications.WithLabelValues("error").Inc()
		log.Warnw("投递通知失败", "userId", ev.UserID, "task", task.ID, "error", err)
		return
	}
	metrics.Notifications.WithLabelValues("dispatched").Inc()
	log.Infow("通知已投递", "userId", ev.UserID, "kind", ev.Kind, "task", task.ID)
}
