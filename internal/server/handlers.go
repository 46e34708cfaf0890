package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amethystkombucha/chatbot/internal/chat"
	"github.com/amethystkombucha/chatbot/internal/eventlog"
)

type classifyRequest struct {
	Text string `json:"text" binding:"required"`
	// Hosted asks the language model instead of the local classifier.
	Hosted bool `json:"hosted"`
}

type recommendRequest struct {
	Preferences []string `json:"preferences" binding:"required,min=1,dive,required"`
}

func (srv *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readyCheck reports ready once the classifier has a trained model.
func (srv *Server) readyCheck(c *gin.Context) {
	if !srv.classifier.Trained() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "training"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (srv *Server) handleChat(c *gin.Context) {
	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrorMessage, "detail": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ReplyTimeout)
	defer cancel()
	reply, err := srv.chat.Handle(ctx, req)
	if err != nil {
		if errors.Is(err, chat.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": ErrorMessage, "detail": err.Error()})
			return
		}
		srv.log.Error("Chat request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrorMessage})
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (srv *Server) handleClassify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Hosted {
		if srv.hosted == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "hosted model disabled"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), ReplyTimeout)
		defer cancel()
		c.JSON(http.StatusOK, srv.hosted.ClassifyIntent(ctx, req.Text))
		return
	}
	c.JSON(http.StatusOK, srv.classifier.Classify(req.Text))
}

func (srv *Server) handleRecommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if srv.hosted == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "hosted model disabled"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), ReplyTimeout)
	defer cancel()
	c.JSON(http.StatusOK, gin.H{"recommendation": srv.hosted.Recommend(ctx, req.Preferences)})
}

func (srv *Server) handleStats(c *gin.Context) {
	if srv.events == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event log disabled"})
		return
	}
	stats, err := srv.events.Stats()
	if err != nil {
		srv.log.Error("Cannot compute stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (srv *Server) handleSession(c *gin.Context) {
	if srv.events == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event log disabled"})
		return
	}
	events, err := srv.events.Session(c.Param("id"))
	if errors.Is(err, eventlog.ErrInvalidSession) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		srv.log.Error("Cannot read session", "session", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if events == nil {
		events = []eventlog.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": c.Param("id"), "events": events})
}
