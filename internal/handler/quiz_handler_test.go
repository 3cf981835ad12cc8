package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"sop-quiz/internal/config"
	"sop-quiz/internal/domain"
	"sop-quiz/internal/dto"
	"sop-quiz/internal/handler"
	"sop-quiz/internal/logger"
	"sop-quiz/internal/middleware"
	"sop-quiz/internal/prompt"
	"sop-quiz/internal/quiztoken"
	"sop-quiz/internal/service"
	"sop-quiz/web"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(config.LoggerConfig{Level: "error", Env: "test"}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// --- Manual Mocks ---

type MockExtractor struct {
	ExtractFunc func(ctx context.Context, data []byte) (string, error)
}

func (m *MockExtractor) Extract(ctx context.Context, r io.ReaderAt, size int64) (string, error) {
	if m.ExtractFunc == nil {
		panic("MockExtractor.ExtractFunc not implemented")
	}
	data := make([]byte, size)
	if _, err := r.ReadAt(data, 0); err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return m.ExtractFunc(ctx, data)
}

type MockGenerator struct {
	GenerateFunc func(ctx context.Context, req service.GenerateRequest) (*domain.QuizBatch, error)
}

func (m *MockGenerator) Generate(ctx context.Context, req service.GenerateRequest) (*domain.QuizBatch, error) {
	if m.GenerateFunc == nil {
		panic("MockGenerator.GenerateFunc not implemented")
	}
	return m.GenerateFunc(ctx, req)
}

// --- Fixtures ---

const pdfBytes = "%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"

func testBatch() *domain.QuizBatch {
	return &domain.QuizBatch{
		ID: "01HZXTESTBATCH",
		Items: []domain.QuizItem{
			{
				Question:     "When are gloves put on?",
				Options:      [domain.OptionCount]string{"After gowning", "Before hand wash", "Never", "At lunch"},
				CorrectIndex: 0,
				Reasons:      [domain.OptionCount]string{"Gloves go on last.", "Hands are washed first.", "Gloves are required.", "Unrelated."},
			},
			{
				Question:     "Who signs the batch record?",
				Options:      [domain.OptionCount]string{"Anyone", "The operator", "QA", "Nobody"},
				CorrectIndex: 2,
				Reasons:      [domain.OptionCount]string{"Not allowed.", "Operators record, QA signs.", "QA releases the record.", "A signature is mandatory."},
			},
		},
		Raw:         "raw completion text",
		GeneratedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

type testServer struct {
	app       *fiber.App
	signer    *quiztoken.Signer
	extractor *MockExtractor
	generator *MockGenerator
	cache     *failingCache
}

type failingCache struct {
	domain.Cache
	pingErr error
}

func (f *failingCache) Ping(context.Context) error { return f.pingErr }

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	signer, err := quiztoken.NewSigner("test-secret", time.Hour)
	require.NoError(t, err)

	ts := &testServer{
		signer: signer,
		extractor: &MockExtractor{ExtractFunc: func(ctx context.Context, data []byte) (string, error) {
			return "1. Wash hands. 2. Put on gloves.", nil
		}},
		generator: &MockGenerator{GenerateFunc: func(ctx context.Context, req service.GenerateRequest) (*domain.QuizBatch, error) {
			return testBatch(), nil
		}},
		cache: &failingCache{},
	}

	quizHandler := handler.NewQuizHandler(
		ts.extractor,
		ts.generator,
		service.NewPresenterService(nil),
		service.NewExportService(),
		signer,
		config.QuizConfig{DefaultDifficulty: "medium", Variant: "standard"},
	)

	ts.app = fiber.New(fiber.Config{
		Views:        web.NewViews(),
		ErrorHandler: middleware.ErrorHandler(),
	})
	handler.RegisterRoutes(ts.app, handler.Routes{
		Quiz:           quizHandler,
		Health:         handler.NewHealthHandler(ts.cache),
		Tokens:         signer,
		MaxUploadBytes: 1 << 20,
	})
	return ts
}

func (ts *testServer) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func uploadRequest(t *testing.T, target string, fields map[string]string, document string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if document != "" {
		part, err := w.CreateFormFile("document", "sop.pdf")
		require.NoError(t, err)
		_, err = part.Write([]byte(document))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, target string, body interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	return req
}

// --- Tests ---

func TestIndex(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `action="/quiz"`)
	assert.Contains(t, string(body), `name="document"`)
	assert.Contains(t, string(body), `value="medium"`)
}

func TestCreateQuiz_JSON(t *testing.T) {
	ts := newTestServer(t)

	var gotText string
	ts.extractor.ExtractFunc = func(ctx context.Context, data []byte) (string, error) {
		assert.Equal(t, pdfBytes, string(data))
		return "SOP text", nil
	}
	var gotReq service.GenerateRequest
	ts.generator.GenerateFunc = func(ctx context.Context, req service.GenerateRequest) (*domain.QuizBatch, error) {
		gotReq = req
		gotText = req.Text
		return testBatch(), nil
	}

	req := uploadRequest(t, "/api/quizzes", map[string]string{"count": "5", "fresh": "on", "variant": "labelled"}, pdfBytes)
	resp, body := ts.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	assert.Equal(t, "SOP text", gotText)
	assert.Equal(t, prompt.Params{Count: "5", Difficulty: "medium", Variant: prompt.VariantLabelled}, gotReq.Params)
	assert.True(t, gotReq.Fresh)

	var out dto.GenerateQuizResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "01HZXTESTBATCH", out.BatchID)
	require.Len(t, out.Items, 2)
	assert.Equal(t, 1, out.Items[1].Index)
	assert.Equal(t, []string{"Anyone", "The operator", "QA", "Nobody"}, out.Items[1].Options)
	assert.NotContains(t, string(body), "QA releases the record", "rationales stay out of the quiz listing")

	verified, err := ts.signer.Verify(out.Token)
	require.NoError(t, err)
	assert.Equal(t, testBatch().Items, verified.Items)
}

func TestCreateQuiz_Failures(t *testing.T) {
	tests := []struct {
		name     string
		document string
		genErr   error
		extErr   error
		want     int
		code     string
	}{
		{"missing document", "", nil, nil, http.StatusBadRequest, string(domain.CodeValidation)},
		{"not a pdf", "just some notes", nil, nil, http.StatusUnsupportedMediaType, string(domain.CodeUnsupportedDocument)},
		{"unreadable pdf", pdfBytes, nil, domain.NewInvalidDocumentError(errors.New("xref")), http.StatusBadRequest, string(domain.CodeInvalidDocument)},
		{"retries exhausted", pdfBytes, domain.NewExhaustedRetriesError(3, errors.New("line 1")), nil, http.StatusBadGateway, string(domain.CodeExhaustedRetries)},
		{"llm down", pdfBytes, domain.NewLLMServiceError(errors.New("dial tcp")), nil, http.StatusServiceUnavailable, string(domain.CodeLLMServiceError)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.extractor.ExtractFunc = func(context.Context, []byte) (string, error) { return "text", tt.extErr }
			ts.generator.GenerateFunc = func(context.Context, service.GenerateRequest) (*domain.QuizBatch, error) {
				if tt.genErr != nil {
					return nil, tt.genErr
				}
				return testBatch(), nil
			}

			resp, body := ts.do(t, uploadRequest(t, "/api/quizzes", nil, tt.document))
			assert.Equal(t, tt.want, resp.StatusCode)

			var out struct {
				Code string `json:"code"`
			}
			require.NoError(t, json.Unmarshal(body, &out))
			assert.Equal(t, tt.code, out.Code)
		})
	}
}

func TestCreateQuizPage(t *testing.T) {
	ts := newTestServer(t)

	req := uploadRequest(t, "/quiz", map[string]string{"count": "2"}, pdfBytes)
	req.Header.Set("Accept", "text/html")
	resp, body := ts.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	page := string(body)
	assert.Contains(t, page, "When are gloves put on?")
	assert.Contains(t, page, `name="q1"`)
	assert.Contains(t, page, `id="r-1-3"`)
	assert.Contains(t, page, "QA releases the record.")
	assert.Contains(t, page, `action="/api/quizzes/export"`)
}

func TestCreateQuizPage_ErrorPage(t *testing.T) {
	ts := newTestServer(t)
	ts.generator.GenerateFunc = func(context.Context, service.GenerateRequest) (*domain.QuizBatch, error) {
		return nil, domain.NewExhaustedRetriesError(3, errors.New("line 1"))
	}

	req := uploadRequest(t, "/quiz", nil, pdfBytes)
	req.Header.Set("Accept", "text/html")
	resp, body := ts.do(t, req)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, string(body), "Could not generate a valid quiz after 3 attempts")
	assert.Contains(t, string(body), "Back to upload")
}

func TestCheckAnswer(t *testing.T) {
	ts := newTestServer(t)
	token, err := ts.signer.Sign(testBatch())
	require.NoError(t, err)

	tests := []struct {
		name      string
		selected  int
		correct   bool
		rationale string
	}{
		{"correct pick shows its own reason", 2, true, "QA releases the record."},
		{"wrong pick shows the picked reason", 1, false, "Operators record, QA signs."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := ts.do(t, jsonRequest(t, "/api/quizzes/check", dto.CheckAnswerRequest{Token: token, Item: 1, Selected: tt.selected}))
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

			var out dto.RevealResponse
			require.NoError(t, json.Unmarshal(body, &out))
			assert.Equal(t, tt.correct, out.Correct)
			assert.Equal(t, 2, out.CorrectIndex)
			assert.Equal(t, tt.rationale, out.Rationale)
		})
	}
}

func TestCheckAnswer_Rejections(t *testing.T) {
	ts := newTestServer(t)
	token, err := ts.signer.Sign(testBatch())
	require.NoError(t, err)

	resp, _ := ts.do(t, jsonRequest(t, "/api/quizzes/check", dto.CheckAnswerRequest{Token: token, Item: 2, Selected: 0}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "item past the end")

	resp, _ = ts.do(t, jsonRequest(t, "/api/quizzes/check", dto.CheckAnswerRequest{Token: token, Item: 0, Selected: 4}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "option past the end")

	other, err := quiztoken.NewSigner("another-secret", time.Hour)
	require.NoError(t, err)
	forged, err := other.Sign(testBatch())
	require.NoError(t, err)
	resp, body := ts.do(t, jsonRequest(t, "/api/quizzes/check", dto.CheckAnswerRequest{Token: forged}))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), string(domain.CodeInvalidQuizToken))
}

func TestExport(t *testing.T) {
	ts := newTestServer(t)
	token, err := ts.signer.Sign(testBatch())
	require.NoError(t, err)

	form := url.Values{"token": {token}, "format": {"xlsx"}}
	req := httptest.NewRequest(http.MethodPost, "/api/quizzes/export", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	resp, body := ts.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "quiz-01HZXTESTBATCH.xlsx")
	assert.True(t, bytes.HasPrefix(body, []byte("PK")), "xlsx is a zip container")

	resp, body = ts.do(t, jsonRequest(t, "/api/quizzes/export", dto.ExportRequest{Token: token}))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "quiz-01HZXTESTBATCH.docx")

	resp, _ = ts.do(t, jsonRequest(t, "/api/quizzes/export", dto.ExportRequest{Token: token, Format: "pdf"}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","cache":"ok"}`, string(body))

	ts.cache.pingErr = errors.New("connection refused")
	resp, body = ts.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.JSONEq(t, `{"status":"degraded","cache":"unavailable"}`, string(body))
}
