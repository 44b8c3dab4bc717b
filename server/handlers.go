package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scalisek3/CareCompanionAIWebsite/assistant"
	"github.com/scalisek3/CareCompanionAIWebsite/model"
	"github.com/scalisek3/CareCompanionAIWebsite/tool"
)

// chatRequest is the body of POST /chat-with-tools.
type chatRequest struct {
	Messages []model.Message `json:"messages"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: expected {\"messages\": [...]}"})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages must not be empty"})
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	reply, err := s.cfg.Assistant.Handle(ctx, assistant.Conversation(req.Messages))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (s *Server) handleProviderDirectory(c *gin.Context) {
	city := c.Query("city")
	state := c.Query("state")
	if city == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "city and state query parameters are required"})
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	records, err := s.cfg.Providers.Search(ctx, city, state, c.Query("keyword"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": records})
}

func (s *Server) handleHealthTopic(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	summary, err := s.cfg.Topics.Lookup(ctx, q)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleDrugLabel(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	records, err := s.cfg.Labels.Lookup(ctx, q)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": records})
}

func (s *Server) handleClinicalTrials(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	records, err := s.cfg.Trials.Search(ctx, q)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trials": records})
}

// handleCoverageCheck forwards the opaque payload and echoes the upstream
// body back unmodified.
func (s *Server) handleCoverageCheck(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read request body"})
		return
	}
	if !json.Valid(payload) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be valid JSON"})
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	result, err := s.cfg.Coverage.Check(ctx, payload)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", result)
}

// requestContext bounds one request's upstream work and propagates client
// disconnects so an in-flight upstream call is aborted.
func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
}

// respondError is the single taxonomy-to-status translation shared by every
// route. Caller input problems map to 400, everything else to 500; no other
// status codes exist on the error path.
func (s *Server) respondError(c *gin.Context, err error) {
	var terr *tool.Error
	if !errors.As(err, &terr) {
		s.logger.Error("http.unclassified_error", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	if terr.Kind == tool.KindInvalidArguments {
		status = http.StatusBadRequest
	}

	s.logger.Warn("http.request_failed",
		"kind", terr.Kind.String(),
		"tool", terr.Tool,
		"status", status,
		"error", terr.Message,
	)
	c.JSON(status, gin.H{"error": terr.Message})
}
