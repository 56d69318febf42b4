package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/curio/internal/pkg/response"
	"github.com/xxxsen/curio/internal/service"
)

type SuggestionHandler struct {
	suggestions *service.SuggestionService
}

func NewSuggestionHandler(suggestions *service.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{suggestions: suggestions}
}

func (h *SuggestionHandler) List(c *gin.Context) {
	response.Success(c, gin.H{"items": h.suggestions.Suggest(c.Query("q"))})
}
