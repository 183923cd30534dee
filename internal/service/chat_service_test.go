package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"chemsafe-go/internal/apperror"
	"chemsafe-go/internal/model"
	"chemsafe-go/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTextGenerator struct {
	reply  string
	err    error
	params llm.GenerationParams
	last   llm.Request
	labels []string
}

func (f *fakeTextGenerator) Complete(_ context.Context, label string, req llm.Request) (*llm.Response, error) {
	f.last = req
	f.labels = append(f.labels, label)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Text: f.reply}, nil
}

func (f *fakeTextGenerator) CompleteStream(ctx context.Context, label string, req llm.Request, onChunk func(string) error) (*llm.Response, error) {
	resp, err := f.Complete(ctx, label, req)
	if err != nil {
		return nil, err
	}
	for _, line := range strings.SplitAfter(resp.Text, "\n") {
		if err := onChunk(line); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (f *fakeTextGenerator) TextParams() llm.GenerationParams { return f.params }

const chatReply = "Aseton yanıcıdır.\n\n---\n**İlgili Sorular:**\n- Nasıl depolanır?\n- Parlama noktası nedir?"

func TestChat_FirstTurnCarriesSystemPrompt(t *testing.T) {
	temp := float32(0.7)
	gen := &fakeTextGenerator{reply: chatReply, params: llm.GenerationParams{Temperature: &temp}}
	svc := NewChatService(gen)

	reply, err := svc.Chat(context.Background(), ChatRequest{Message: "Aseton yanıcı mı?"})
	require.NoError(t, err)
	assert.Equal(t, "Aseton yanıcıdır.", reply.Content)
	assert.Equal(t, []string{"Nasıl depolanır?", "Parlama noktası nedir?"}, reply.SuggestedQuestions)

	assert.Empty(t, gen.last.History)
	assert.Contains(t, gen.last.Prompt, "Respond in Turkish.")
	assert.True(t, strings.HasSuffix(gen.last.Prompt, "User Question: Aseton yanıcı mı?"))
	assert.Equal(t, &temp, gen.last.Params.Temperature)
	assert.Equal(t, []string{"chat"}, gen.labels)
}

func TestChat_FollowUpSendsSanitizedHistory(t *testing.T) {
	gen := &fakeTextGenerator{reply: "Evet."}
	svc := NewChatService(gen)

	history := []model.ChatTurn{
		{Role: "model", Content: "Merhaba!"},
		{Role: "user", Content: "Aseton yanıcı mı?"},
		{Role: "assistant", Content: "Evet, çok yanıcıdır."},
		{Role: "user", Content: "yarım kalmış mesaj"},
	}
	reply, err := svc.Chat(context.Background(), ChatRequest{Message: "Peki ya etanol?", Language: "English", History: history})
	require.NoError(t, err)
	assert.Equal(t, "Evet.", reply.Content)
	assert.Equal(t, []string{}, reply.SuggestedQuestions)

	assert.Equal(t, []llm.Message{
		{Role: "user", Content: "Aseton yanıcı mı?"},
		{Role: "model", Content: "Evet, çok yanıcıdır."},
	}, gen.last.History)
	assert.Equal(t, "Peki ya etanol?", gen.last.Prompt)
}

func TestChat_Errors(t *testing.T) {
	gen := &fakeTextGenerator{err: apperror.Backend("generate chat", errors.New("down"))}
	svc := NewChatService(gen)

	_, err := svc.Chat(context.Background(), ChatRequest{Message: "   "})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.Empty(t, gen.labels)

	_, err = svc.Chat(context.Background(), ChatRequest{Message: "hi"})
	assert.True(t, errors.Is(err, apperror.ErrBackend))
}

func TestStreamChat(t *testing.T) {
	gen := &fakeTextGenerator{reply: chatReply}
	svc := NewChatService(gen)

	var chunks []string
	reply, err := svc.StreamChat(context.Background(), ChatRequest{Message: "Aseton?"}, func(s string) error {
		chunks = append(chunks, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, chatReply, strings.Join(chunks, ""))
	assert.Equal(t, "Aseton yanıcıdır.", reply.Content)
	assert.Len(t, reply.SuggestedQuestions, 2)
}

func TestStreamChat_ChunkErrorAborts(t *testing.T) {
	gen := &fakeTextGenerator{reply: chatReply}
	svc := NewChatService(gen)

	sendErr := errors.New("connection closed")
	_, err := svc.StreamChat(context.Background(), ChatRequest{Message: "Aseton?"}, func(string) error {
		return sendErr
	})
	assert.ErrorIs(t, err, sendErr)
}

type fakeMetadataGenerator struct {
	calls int
}

func (f *fakeMetadataGenerator) ChatMetadata(context.Context, []model.ChatTurn) model.ChatMetadata {
	f.calls++
	return model.ChatMetadata{Title: "Aseton Güvenliği", Icon: "warning"}
}

func TestGenerateMetadata(t *testing.T) {
	gen := &fakeMetadataGenerator{}
	svc := NewConversationService(gen)

	_, err := svc.GenerateMetadata(context.Background(), nil)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.Equal(t, 0, gen.calls)

	md, err := svc.GenerateMetadata(context.Background(), []model.ChatTurn{{Role: "user", Content: "Aseton"}})
	require.NoError(t, err)
	assert.Equal(t, model.ChatMetadata{Title: "Aseton Güvenliği", Icon: "warning"}, md)
}
