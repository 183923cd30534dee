package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"chemsafe-go/internal/model"
	"chemsafe-go/internal/service"
	"chemsafe-go/pkg/llm"
	"chemsafe-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 跨域由 CORS 中间件控制
	},
}

// 流式接口下发的消息类型
const (
	frameChunk      = "chunk"
	frameCompletion = "completion"
	frameError      = "error"
)

// streamFrame 是 WebSocket 下发的一条 chunk 或 error 消息。
type streamFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
}

// completionFrame 是一轮对话结束时下发的消息，suggestedQuestions 总是存在。
type completionFrame struct {
	Type               string   `json:"type"`
	Content            string   `json:"content"`
	SuggestedQuestions []string `json:"suggestedQuestions"`
}

// ChatHandler 负责处理聊天请求。
type ChatHandler struct {
	chatService         service.ChatService
	conversationService service.ConversationService
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService, conversationService service.ConversationService) *ChatHandler {
	return &ChatHandler{chatService: chatService, conversationService: conversationService}
}

// Chat 处理一轮对话，返回正文和推荐问题。
func (h *ChatHandler) Chat(c *gin.Context) {
	var req service.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	reply, err := h.chatService.Chat(c.Request.Context(), req)
	if err != nil {
		fail(c, "Chat", err)
		return
	}
	success(c, reply)
}

// GenerateMetadataRequest 是生成对话元数据的请求体。
type GenerateMetadataRequest struct {
	Messages []model.ChatTurn `json:"messages"`
}

// GenerateMetadata 为对话生成标题和图标。
func (h *ChatHandler) GenerateMetadata(c *gin.Context) {
	var req GenerateMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	md, err := h.conversationService.GenerateMetadata(c.Request.Context(), req.Messages)
	if err != nil {
		fail(c, "GenerateMetadata", err)
		return
	}
	success(c, md)
}

// Stream 处理一个 WebSocket 连接，每条客户端消息都是一次对话请求。
func (h *ChatHandler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	log.Infof("WebSocket 连接已建立: %s", c.ClientIP())

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("从 WebSocket 读取消息失败: %v", err)
			}
			return
		}

		var req service.ChatRequest
		if err := json.Unmarshal(message, &req); err != nil {
			if writeFrame(conn, streamFrame{Type: frameError, Message: "无效的请求负载"}) != nil {
				return
			}
			continue
		}

		reply, err := h.chatService.StreamChat(ctx, req, func(chunk string) error {
			return writeFrame(conn, streamFrame{Type: frameChunk, Content: chunk})
		})
		if errors.Is(err, llm.ErrStreamAborted) {
			// 写入失败说明连接已不可用
			log.Infof("WebSocket 连接中断: %s", c.ClientIP())
			return
		}
		if err != nil {
			log.Errorf("处理流式响应失败: %v", err)
			if writeFrame(conn, streamFrame{Type: frameError, Message: publicMessage(err)}) != nil {
				return
			}
			continue
		}
		if err := writeFrame(conn, completionFrame{
			Type:               frameCompletion,
			Content:            reply.Content,
			SuggestedQuestions: reply.SuggestedQuestions,
		}); err != nil {
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, f interface{}) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}
