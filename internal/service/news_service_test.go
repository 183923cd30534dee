package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"chemsafe-go/internal/apperror"
	"chemsafe-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranslator struct {
	out      []model.TranslatedNews
	err      error
	language string
}

func (f *fakeTranslator) TranslateNews(_ context.Context, _ []model.NewsItem, language string) ([]model.TranslatedNews, error) {
	f.language = language
	return f.out, f.err
}

func newsItems(n int) []model.NewsItem {
	items := make([]model.NewsItem, n)
	for i := range items {
		items[i] = model.NewsItem{
			Title:          fmt.Sprintf("Headline %d", i+1),
			ContentSnippet: fmt.Sprintf("Snippet %d", i+1),
			Link:           fmt.Sprintf("https://news.example/%d", i+1),
		}
	}
	return items
}

func TestTranslate_Success(t *testing.T) {
	tr := &fakeTranslator{out: []model.TranslatedNews{{ID: 1, Title: "Başlık", Description: "Özet"}}}
	svc := NewNewsService(tr)

	out, err := svc.Translate(context.Background(), newsItems(1), "")
	require.NoError(t, err)
	assert.Equal(t, tr.out, out)
	assert.Equal(t, "Turkish", tr.language)
}

func TestTranslate_FallsBackToOriginals(t *testing.T) {
	for _, cause := range []error{
		apperror.Backend("generate news", errors.New("down")),
		apperror.Malformed("sanitize", 3, errors.New("bad")),
	} {
		svc := NewNewsService(&fakeTranslator{err: cause})

		items := newsItems(8)
		items[1].Title = ""
		items[2].ContentSnippet = ""

		out, err := svc.Translate(context.Background(), items, "English")
		require.NoError(t, err)
		require.Len(t, out, 5)

		today := time.Now().Format("2006-01-02")
		for i, n := range out {
			assert.Equal(t, i+1, n.ID)
			assert.Equal(t, today, n.Date)
			assert.Equal(t, items[i].Link, n.SourceLink)
		}
		assert.Equal(t, "Headline 1", out[0].Title)
		assert.Equal(t, "News 2", out[1].Title)
		assert.Equal(t, "No description", out[2].Description)
		assert.Equal(t, "Snippet 4", out[3].Description)
	}
}

func TestTranslate_Errors(t *testing.T) {
	svc := NewNewsService(&fakeTranslator{})
	_, err := svc.Translate(context.Background(), nil, "Turkish")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	other := errors.New("unexpected")
	svc = NewNewsService(&fakeTranslator{err: other})
	_, err = svc.Translate(context.Background(), newsItems(2), "Turkish")
	assert.ErrorIs(t, err, other)
}
