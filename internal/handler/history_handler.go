package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/curio/internal/citation"
	"github.com/xxxsen/curio/internal/model"
	"github.com/xxxsen/curio/internal/pkg/errcode"
	"github.com/xxxsen/curio/internal/pkg/response"
	"github.com/xxxsen/curio/internal/pkg/timeutil"
	"github.com/xxxsen/curio/internal/service"
)

type HistoryHandler struct {
	answers  *service.AnswerService
	renderer *citation.Renderer
}

func NewHistoryHandler(answers *service.AnswerService, renderer *citation.Renderer) *HistoryHandler {
	return &HistoryHandler{answers: answers, renderer: renderer}
}

type historyItem struct {
	model.QueryResult
	RelativeTime string `json:"relative_time"`
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
}

func (h *HistoryHandler) List(c *gin.Context) {
	now := nowFunc()
	items := h.answers.History()
	out := make([]historyItem, 0, len(items))
	for _, item := range items {
		out = append(out, historyItem{QueryResult: item, RelativeTime: timeutil.FormatRelative(item.Timestamp, now)})
	}
	response.Success(c, gin.H{"items": out})
}

func (h *HistoryHandler) Get(c *gin.Context) {
	result, err := h.answers.Select(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"result": result, "segments": citation.Parse(result.Answer)})
}

func (h *HistoryHandler) Feedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	fb, ok := model.ParseFeedback(req.Feedback)
	if !ok || fb == model.FeedbackNone {
		response.Error(c, errcode.ErrInvalid, "feedback must be upvote or downvote")
		return
	}
	result, err := h.answers.ToggleFeedback(c.Request.Context(), c.Param("id"), fb)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"result": result})
}

func (h *HistoryHandler) Render(c *gin.Context) {
	result, err := h.answers.Result(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	rendered, err := h.renderer.Render(result)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, rendered)
}
