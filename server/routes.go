package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skywise-ai/skywise/engine/policy"
	"github.com/skywise-ai/skywise/engine/policy/uc"
	"github.com/skywise-ai/skywise/pkg/logger"
)

// AskRequest is the /ask request body.
type AskRequest struct {
	Question string `json:"question" binding:"required"`
	Airline  string `json:"airline" binding:"required"`
	Category string `json:"category"`
	TopK     int    `json:"top_k" binding:"omitempty,gt=0"`
}

// AskResponse is the /ask response body.
type AskResponse struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Context  string   `json:"context"`
	Sources  []string `json:"sources,omitempty"`
}

const unavailableMessage = "I apologize, but I'm unable to process your question right now. Please try again later."

// RegisterRoutes mounts the API on router.
func RegisterRoutes(router *gin.Engine, ask *uc.Ask) {
	router.GET("/healthz", healthHandler)
	router.POST("/ask", askHandler(ask))
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func askHandler(ask *uc.Ask) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		output, err := ask.Execute(c.Request.Context(), uc.AskInput{
			Question: req.Question,
			Airline:  req.Airline,
			Category: req.Category,
			TopK:     req.TopK,
		})
		if err != nil {
			handleAskError(c, err)
			return
		}
		c.JSON(http.StatusOK, AskResponse{
			Question: output.Question,
			Answer:   output.Answer,
			Context:  output.Context,
			Sources:  output.Sources,
		})
	}
}

func handleAskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, policy.ErrInvalidFilter):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, policy.ErrGeneration):
		logger.Error("generation failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": unavailableMessage})
	default:
		logger.Error("ask pipeline failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
