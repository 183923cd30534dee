package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chemsafe-go/internal/apperror"
	"chemsafe-go/internal/model"
	"chemsafe-go/internal/service"
	"chemsafe-go/pkg/llm"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeDocumentService struct {
	result   *service.DocumentResult
	err      error
	resolved []service.ResolveRequest
	file     *llm.Attachment
}

func (f *fakeDocumentService) Resolve(_ context.Context, req service.ResolveRequest) (*service.DocumentResult, error) {
	f.resolved = append(f.resolved, req)
	return f.result, f.err
}

func (f *fakeDocumentService) IdentifyChemical(_ context.Context, text, _ string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"chemicalName":"` + text + `"}`), nil
}

func (f *fakeDocumentService) AnalyzeFile(_ context.Context, file llm.Attachment, _ string) (json.RawMessage, error) {
	f.file = &file
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"chemicalName":"Acetone","summary":"ok"}`), nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Cached  *bool           `json:"cached"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestResolveHandler(t *testing.T) {
	svc := &fakeDocumentService{result: &service.DocumentResult{Data: json.RawMessage(`{"chemicalName":"Acetone"}`), Cached: true}}
	r := gin.New()
	r.POST("/safety-data", NewDocumentHandler(svc, 0).Resolve(model.KindSafety))

	w := postJSON(r, "/safety-data", `{"productName":"Acetone","language":"English","userId":"u-1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	env := decode(t, w)
	assert.Equal(t, 200, env.Code)
	assert.Equal(t, "success", env.Message)
	assert.JSONEq(t, `{"chemicalName":"Acetone"}`, string(env.Data))
	require.NotNil(t, env.Cached)
	assert.True(t, *env.Cached)

	require.Len(t, svc.resolved, 1)
	assert.Equal(t, service.ResolveRequest{Kind: model.KindSafety, Subject: "Acetone", Language: "English", UserID: "u-1"}, svc.resolved[0])
}

func TestResolveHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "validation", err: apperror.Validation("productName is required"), status: http.StatusBadRequest, message: "productName is required"},
		{name: "backend", err: apperror.Backend("generate safety", errors.New("quota")), status: http.StatusBadGateway, message: "AI 服务暂时不可用，请稍后重试"},
		{name: "malformed", err: apperror.Malformed("sanitize", 12, errors.New("eof")), status: http.StatusInternalServerError, message: "AI 响应格式无效"},
		{name: "unknown", err: errors.New("boom"), status: http.StatusInternalServerError, message: "服务器内部错误"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/tds-data", NewDocumentHandler(&fakeDocumentService{err: tt.err}, 0).Resolve(model.KindTechnical))

			w := postJSON(r, "/tds-data", `{"productName":"Epoxy"}`)
			assert.Equal(t, tt.status, w.Code)
			env := decode(t, w)
			assert.Equal(t, tt.status, env.Code)
			assert.Equal(t, tt.message, env.Message)
			assert.Equal(t, "null", string(env.Data))
		})
	}
}

func TestResolveHandler_BadPayload(t *testing.T) {
	svc := &fakeDocumentService{}
	r := gin.New()
	r.POST("/raw-material-details", NewDocumentHandler(svc, 0).Resolve(model.KindProduct))

	w := postJSON(r, "/raw-material-details", `{"productName":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.resolved)
}

func TestIdentifyChemicalHandler(t *testing.T) {
	r := gin.New()
	r.POST("/identify-chemical", NewDocumentHandler(&fakeDocumentService{}, 0).IdentifyChemical)

	w := postJSON(r, "/identify-chemical", `{"text":"ACETONE"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"chemicalName":"ACETONE"}`, string(decode(t, w).Data))
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.WriteField("language", "English"))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAnalyzeSDSHandler(t *testing.T) {
	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF")

	tests := []struct {
		name     string
		field    string
		content  []byte
		maxBytes int64
		status   int
		mime     string
	}{
		{name: "pdf accepted", field: "file", content: pdf, status: http.StatusOK, mime: "application/pdf"},
		{name: "png accepted", field: "file", content: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), status: http.StatusOK, mime: "image/png"},
		{name: "text rejected", field: "file", content: []byte("just some text"), status: http.StatusBadRequest},
		{name: "missing file", field: "", status: http.StatusBadRequest},
		{name: "too large", field: "file", content: pdf, maxBytes: 8, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeDocumentService{}
			r := gin.New()
			r.POST("/analyze-sds", NewDocumentHandler(svc, tt.maxBytes).AnalyzeSDS)

			body, contentType := multipartBody(t, tt.field, "upload.bin", tt.content)
			req := httptest.NewRequest(http.MethodPost, "/analyze-sds", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status == http.StatusOK {
				require.NotNil(t, svc.file)
				assert.Equal(t, tt.mime, svc.file.MIMEType)
				assert.Equal(t, tt.content, svc.file.Data)
			} else {
				assert.Nil(t, svc.file)
			}
		})
	}
}

type fakeNewsService struct {
	err error
}

func (f *fakeNewsService) Translate(_ context.Context, items []model.NewsItem, _ string) ([]model.TranslatedNews, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []model.TranslatedNews{{ID: 1, Title: items[0].Title, Description: "d"}}, nil
}

func TestNewsHandler(t *testing.T) {
	r := gin.New()
	r.POST("/news/translate", NewNewsHandler(&fakeNewsService{}).Translate)

	w := postJSON(r, "/news/translate", `{"items":[{"title":"New catalyst","link":"https://a.example"}],"language":"Turkish"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":1,"title":"New catalyst","description":"d"}]`, string(decode(t, w).Data))

	r = gin.New()
	r.POST("/news/translate", NewNewsHandler(&fakeNewsService{err: apperror.Validation("items are required")}).Translate)
	w = postJSON(r, "/news/translate", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type fakeAdminService struct {
	kinds []model.DocumentKind
}

func (f *fakeAdminService) ClearCache(_ context.Context, kind model.DocumentKind) (int64, error) {
	if !kind.Cacheable() {
		return 0, apperror.Validation("document kind %q has no cache", kind)
	}
	f.kinds = append(f.kinds, kind)
	return 4, nil
}

func TestAdminHandler_ClearCache(t *testing.T) {
	svc := &fakeAdminService{}
	r := gin.New()
	r.DELETE("/cache/:kind", NewAdminHandler(svc).ClearCache)

	req := httptest.NewRequest(http.MethodDelete, "/cache/safety", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"kind":"safety","deleted":4}`, string(decode(t, w).Data))
	assert.Equal(t, []model.DocumentKind{model.KindSafety}, svc.kinds)

	for _, kind := range []string{"recipes", "news"} {
		req = httptest.NewRequest(http.MethodDelete, "/cache/"+kind, nil)
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, kind)
	}
}

func TestPublicMessageHidesInternals(t *testing.T) {
	err := apperror.Backend("generate safety", errors.New("api key AIza... rejected"))
	assert.NotContains(t, publicMessage(err), "AIza")
	assert.Equal(t, http.StatusBadGateway, statusFor(err))
}
