package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mindguard/internal/detector"
)

type LexiconHandler interface {
	GetLexicon(c *gin.Context)
}

type lexiconHandler struct {
	engine *detector.Engine
}

func NewLexiconHandler(engine *detector.Engine) LexiconHandler {
	return &lexiconHandler{engine: engine}
}

// GetLexicon handles GET /api/lexicon. It exposes metadata only, never
// the signal terms themselves.
func (h *lexiconHandler) GetLexicon(c *gin.Context) {
	lex := h.engine.Lexicon()
	c.JSON(http.StatusOK, gin.H{
		"version":      lex.Version(),
		"signal_count": lex.SignalCount(),
		"categories":   lex.Categories(),
		"damping":      lex.Damping(),
		"thresholds":   lex.Thresholds(),
	})
}
