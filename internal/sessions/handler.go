package sessions

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ayuv-backend/internal/profile"
	"ayuv-backend/internal/shared/server/respond"
)

const maxUploadBytes = 20 << 20

// Handler wires HTTP handlers to the sessions service.
type Handler struct {
	Svc     *Service
	limiter *pollLimiter
}

// NewHandler constructs a Handler with the default poll limit window.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, limiter: newPollLimiter(0, nil)}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.createSession)
	rg.POST("/analysis/start", h.startAnalysis)
	rg.POST("/analysis/report", h.generateReport)
	rg.GET("/analysis/status", h.getStatus)
	rg.GET("/analysis/report", h.getReport)
}

// createSession accepts the multipart intake: profile fields plus the lab
// report file under "report".
func (h *Handler) createSession(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fileHeader, err := c.FormFile("report")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "report file is required", nil)
		return
	}

	p, details := profileFromForm(c)
	if len(details) > 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid profile fields", details)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "could not read report file", nil)
		return
	}
	defer file.Close()

	session, err := h.Svc.CreateIntake(c.Request.Context(), p, fileHeader.Filename, file)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create session", nil)
		return
	}

	respond.JSON(c, http.StatusCreated, gin.H{
		"sessionId": session.ID,
		"status":    session.Status,
	})
}

// startAnalysis runs extraction and question generation synchronously. A
// pipeline failure still answers 200: the session is FAILED and the response
// carries success=false with the causing message.
func (h *Handler) startAnalysis(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "sessionId is required", nil)
		return
	}
	c.Set("sessionId", req.SessionID)

	session, err := h.Svc.StartPipeline(c.Request.Context(), req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		case errors.Is(err, ErrInvalidState):
			respond.Error(c, http.StatusConflict, "invalid_state", err.Error(), nil)
		default:
			respond.OK(c, startResponse{
				Success:   false,
				SessionID: req.SessionID,
				Status:    StatusFailed,
				Message:   err.Error(),
			})
		}
		return
	}

	respond.OK(c, startResponse{
		Success:           true,
		SessionID:         session.ID,
		Status:            session.Status,
		Questions:         session.Questions,
		QuestionsDegraded: session.QuestionsDegraded,
	})
}

// generateReport submits answers and synthesizes the final report
// synchronously.
func (h *Handler) generateReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "sessionId and userAnswers are required", nil)
		return
	}
	c.Set("sessionId", req.SessionID)

	session, err := h.Svc.SubmitAnswers(c.Request.Context(), req.SessionID, req.UserAnswers)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		case errors.Is(err, ErrInvalidState):
			respond.Error(c, http.StatusConflict, "invalid_state", err.Error(), nil)
		case errors.Is(err, ErrAnswersIncomplete):
			respond.Error(c, http.StatusBadRequest, "answers_incomplete", err.Error(), nil)
		default:
			respond.OK(c, reportResponse{
				Success:   false,
				SessionID: req.SessionID,
				Status:    StatusFailed,
				Message:   err.Error(),
			})
		}
		return
	}

	respond.OK(c, reportResponse{
		Success:   true,
		SessionID: session.ID,
		Status:    session.Status,
		Report:    session.FinalReport,
	})
}

// getStatus is the poll endpoint: status plus whichever artifacts are already
// populated. A FAILED session answers 200 with the stored error message; only
// an unknown id is 404.
func (h *Handler) getStatus(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "sessionId is required", nil)
		return
	}
	c.Set("sessionId", sessionID)

	if !h.limiter.Allow(sessionID) {
		c.Header("Retry-After", strconv.Itoa(h.limiter.RetryAfterSeconds()))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "polling too frequently", nil)
		return
	}

	session, err := h.Svc.Get(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch session", nil)
		}
		return
	}

	respond.OK(c, statusResponse{
		SessionID:     session.ID,
		Status:        session.Status,
		ExtractedText: session.Extracted,
		Questions:     session.Questions,
		FinalReport:   session.FinalReport,
		ErrorMessage:  session.ErrorMessage,
	})
}

// getReport returns the final report, alongside the extraction artifact it
// was built from, once the session is REPORT_READY.
func (h *Handler) getReport(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "sessionId is required", nil)
		return
	}
	c.Set("sessionId", sessionID)

	session, err := h.Svc.Get(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch session", nil)
		}
		return
	}

	if session.Status != StatusReportReady {
		respond.Error(c, http.StatusConflict, "report_not_ready", "report is not ready for this session", gin.H{
			"status": session.Status,
		})
		return
	}

	respond.OK(c, gin.H{
		"sessionId":     session.ID,
		"status":        session.Status,
		"finalReport":   session.FinalReport,
		"extractedText": session.Extracted,
	})
}

// profileFromForm reads the intake profile from multipart form fields.
// Numeric fields are optional; when present they must parse.
func profileFromForm(c *gin.Context) (profile.Profile, []map[string]string) {
	p := profile.Profile{
		Name:        c.PostForm("name"),
		Gender:      c.PostForm("gender"),
		UnitSystem:  c.PostForm("unitSystem"),
		Language:    c.PostForm("language"),
		Diet:        c.PostForm("diet"),
		Occupation:  c.PostForm("occupation"),
		SleepHabits: c.PostForm("sleepHabits"),
	}

	var details []map[string]string
	if v := c.PostForm("age"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			details = append(details, map[string]string{"field": "age", "issue": "must be an integer"})
		} else {
			p.Age = n
		}
	}
	if v := c.PostForm("height"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			details = append(details, map[string]string{"field": "height", "issue": "must be a number"})
		} else {
			p.Height = f
		}
	}
	if v := c.PostForm("weight"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			details = append(details, map[string]string{"field": "weight", "issue": "must be a number"})
		} else {
			p.Weight = f
		}
	}
	return p, details
}
