package web

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// reloadTimeout bounds an administrative index reload.
const reloadTimeout = 2 * time.Minute

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the success body of POST /chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status         string            `json:"status"`
	EmbeddingModel string            `json:"embedding_model,omitempty"`
	LLMModel       string            `json:"llm_model,omitempty"`
	Index          *domain.IndexInfo `json:"index,omitempty"`
}

func (s *Server) chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No message provided"})
		return
	}

	answer, err := s.query.Ask(c.Request.Context(), req.Message)
	if err != nil {
		var qe *domain.QueryError
		if errors.As(err, &qe) && qe.RequestID != "" {
			c.Header("X-Request-ID", qe.RequestID)
		}
		kind, message := errorBody(err)
		status := statusFor(kind)
		log.Warn("chat failed: kind=%s status=%d: %v", kind, status, err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	if answer.RequestID != "" {
		c.Header("X-Request-ID", answer.RequestID)
	}
	c.JSON(http.StatusOK, ChatResponse{Response: answer.Text})
}

func (s *Server) health(c *gin.Context) {
	resp := HealthResponse{
		Status:         "healthy",
		EmbeddingModel: s.cfg.EmbeddingModel,
		LLMModel:       s.cfg.LLMModel,
	}
	if s.index != nil {
		info, ok := s.index.Info()
		if !ok {
			resp.Status = "unavailable"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		resp.Index = &info
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) reload(c *gin.Context) {
	if s.index == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Index reload is not available"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), reloadTimeout)
	defer cancel()

	if err := s.index.Reload(ctx); err != nil {
		kind := domain.KindOf(err)
		log.Error("index reload failed: %v", err)
		status := statusFor(kind)
		if status < http.StatusInternalServerError {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": "Index reload failed", "kind": kind})
		return
	}

	info, _ := s.index.Info()
	log.Info("index reloaded: %d chunks", info.Count)
	c.JSON(http.StatusOK, gin.H{"status": "reloaded", "index": info})
}

// home serves the chat page.
func (s *Server) home(c *gin.Context) {
	page, err := fs.ReadFile(s.static, "index.html")
	if err != nil {
		c.String(http.StatusNotFound, "chat page not found")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// assets serves the remaining static files. Anything else is a JSON 404.
func (s *Server) assets(c *gin.Context) {
	name := strings.TrimPrefix(c.Request.URL.Path, "/")
	if c.Request.Method == http.MethodGet && name != "" {
		if _, err := fs.Stat(s.static, name); err == nil {
			c.FileFromFS(name, http.FS(s.static))
			return
		} else if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("static %s: %v", name, err)
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}
