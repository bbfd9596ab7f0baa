package sessions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"ayuv-backend/internal/llm"
)

func setupRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, _, _ := newTestService(t)
	handler := NewHandler(svc)

	r := gin.New()
	api := r.Group("/api/v1")
	handler.RegisterRoutes(api)
	return r, svc
}

func multipartIntake(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	fw, err := w.CreateFormFile("report", "report.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("%PDF-1.4 fake")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func createSessionViaHTTP(t *testing.T, r *gin.Engine) string {
	t.Helper()
	body, contentType := multipartIntake(t, map[string]string{
		"name": "Asha", "age": "34", "height": "170", "weight": "65",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		SessionID string `json:"sessionId"`
		Status    string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.SessionID == "" || created.Status != string(StatusReceived) {
		t.Fatalf("unexpected create response: %+v", created)
	}
	return created.SessionID
}

func postJSON(r *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestCreateSessionRequiresFile(t *testing.T) {
	r, _ := setupRouter(t)

	body, contentType := func() (*bytes.Buffer, string) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		_ = w.WriteField("name", "Asha")
		_ = w.Close()
		return &buf, w.FormDataContentType()
	}()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCreateSessionRejectsBadNumbers(t *testing.T) {
	r, _ := setupRouter(t)

	body, contentType := multipartIntake(t, map[string]string{"age": "not-a-number"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestFullFlowOverHTTP(t *testing.T) {
	r, _ := setupRouter(t)
	sessionID := createSessionViaHTTP(t, r)

	resp := postJSON(r, "/api/v1/analysis/start", map[string]string{"sessionId": sessionID})
	if resp.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var started startResponse
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		t.Fatalf("decode start: %v", err)
	}
	if !started.Success || started.Status != StatusQuestionsReady || len(started.Questions) == 0 {
		t.Fatalf("unexpected start response: %+v", started)
	}

	answers := map[string]string{}
	for _, q := range started.Questions {
		answers[q] = "An answer."
	}
	resp = postJSON(r, "/api/v1/analysis/report", map[string]any{
		"sessionId":   sessionID,
		"userAnswers": answers,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("report: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var reported reportResponse
	if err := json.NewDecoder(resp.Body).Decode(&reported); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if !reported.Success || reported.Status != StatusReportReady || reported.Report == "" {
		t.Fatalf("unexpected report response: %+v", reported)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/report?sessionId="+sessionID, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("fetch report: expected 200, got %d", rec.Code)
	}
	var fetched struct {
		SessionID     string         `json:"sessionId"`
		Status        Status         `json:"status"`
		FinalReport   string         `json:"finalReport"`
		ExtractedText *ExtractedText `json:"extractedText"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&fetched); err != nil {
		t.Fatalf("decode fetched report: %v", err)
	}
	if fetched.Status != StatusReportReady || !strings.Contains(fetched.FinalReport, "Report") {
		t.Fatalf("unexpected fetched report: %+v", fetched)
	}
	if fetched.ExtractedText == nil || fetched.ExtractedText.KeyValuePairs["Hemoglobin"] == "" {
		t.Fatalf("expected extraction artifact alongside the report, got %+v", fetched.ExtractedText)
	}
}

func TestStartUnknownSession(t *testing.T) {
	r, _ := setupRouter(t)

	resp := postJSON(r, "/api/v1/analysis/start", map[string]string{"sessionId": "missing"})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestStartTwiceConflicts(t *testing.T) {
	r, _ := setupRouter(t)
	sessionID := createSessionViaHTTP(t, r)

	if resp := postJSON(r, "/api/v1/analysis/start", map[string]string{"sessionId": sessionID}); resp.Code != http.StatusOK {
		t.Fatalf("first start: expected 200, got %d", resp.Code)
	}
	resp := postJSON(r, "/api/v1/analysis/start", map[string]string{"sessionId": sessionID})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestStartPipelineFailureReturnsFailedPayload(t *testing.T) {
	r, svc := setupRouter(t)
	svc.Generator = stubGenerator{err: fmt.Errorf("dialogue model call: %w", llm.ErrTransport)}
	sessionID := createSessionViaHTTP(t, r)

	resp := postJSON(r, "/api/v1/analysis/start", map[string]string{"sessionId": sessionID})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with failure payload, got %d", resp.Code)
	}
	var started startResponse
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if started.Success || started.Status != StatusFailed || started.Message == "" {
		t.Fatalf("unexpected failure payload: %+v", started)
	}

	// The poller sees the same terminal state with the stored message.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/status?sessionId="+sessionID, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: expected 200, got %d", rec.Code)
	}
	var status statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Status != StatusFailed || status.ErrorMessage != started.Message {
		t.Fatalf("unexpected status payload: %+v", status)
	}
}

func TestReportRejectsIncompleteAnswers(t *testing.T) {
	r, _ := setupRouter(t)
	sessionID := createSessionViaHTTP(t, r)

	if resp := postJSON(r, "/api/v1/analysis/start", map[string]string{"sessionId": sessionID}); resp.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d", resp.Code)
	}

	resp := postJSON(r, "/api/v1/analysis/report", map[string]any{
		"sessionId":   sessionID,
		"userAnswers": map[string]string{"Do you feel fatigued?": "Yes"},
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "answers_incomplete") {
		t.Fatalf("expected answers_incomplete code, got %s", resp.Body.String())
	}
}

func TestReportFetchBeforeReady(t *testing.T) {
	r, _ := setupRouter(t)
	sessionID := createSessionViaHTTP(t, r)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/report?sessionId="+sessionID, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestStatusUnknownSession(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/status?sessionId=missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStatusRequiresSessionID(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/status", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStatusPollLimiter(t *testing.T) {
	r, _ := setupRouter(t)
	sessionID := createSessionViaHTTP(t, r)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/status?sessionId="+sessionID, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first poll: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analysis/status?sessionId="+sessionID, nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second immediate poll: expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestStatusOmitsAbsentArtifacts(t *testing.T) {
	r, _ := setupRouter(t)
	sessionID := createSessionViaHTTP(t, r)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/status?sessionId="+sessionID, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var status statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != StatusReceived || len(status.Questions) != 0 ||
		status.ExtractedText != nil || status.FinalReport != "" {
		t.Fatalf("unexpected payload before the pipeline ran: %+v", status)
	}
}

func TestStatusSurfacesPopulatedArtifacts(t *testing.T) {
	r, svc := setupRouter(t)
	sessionID := createSessionViaHTTP(t, r)

	if _, err := svc.StartPipeline(context.Background(), sessionID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.SubmitAnswers(context.Background(), sessionID, map[string]string{
		"Do you feel fatigued?": "Yes",
		"How is your diet?":     "Balanced",
	}); err != nil {
		t.Fatalf("submit answers: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/status?sessionId="+sessionID, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: expected 200, got %d", rec.Code)
	}

	var status statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != StatusReportReady {
		t.Fatalf("expected REPORT_READY, got %s", status.Status)
	}
	if status.ExtractedText == nil || status.ExtractedText.KeyValuePairs["Hemoglobin"] == "" {
		t.Fatalf("expected extraction artifact in poll, got %+v", status.ExtractedText)
	}
	if len(status.Questions) == 0 {
		t.Fatalf("populated questions must stay visible in the poll")
	}
	if status.FinalReport == "" {
		t.Fatalf("expected final report in poll once populated")
	}
}
