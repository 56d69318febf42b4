package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/curio/internal/citation"
	"github.com/xxxsen/curio/internal/model"
	"github.com/xxxsen/curio/internal/pkg/errcode"
	"github.com/xxxsen/curio/internal/pkg/response"
	"github.com/xxxsen/curio/internal/service"
)

const failedMessage = "Could not process your search request. Please try again."

type QueryHandler struct {
	answers *service.AnswerService
}

func NewQueryHandler(answers *service.AnswerService) *QueryHandler {
	return &QueryHandler{answers: answers}
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Result   model.QueryResult  `json:"result"`
	Segments []citation.Segment `json:"segments"`
	Failed   bool               `json:"failed"`
	Message  string             `json:"message,omitempty"`
}

type currentResponse struct {
	Result   *model.QueryResult `json:"result"`
	Segments []citation.Segment `json:"segments"`
	Loading  bool               `json:"loading"`
	Runs     []service.Run      `json:"runs"`
}

func (h *QueryHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		response.Error(c, errcode.ErrInvalid, "question required")
		return
	}
	// A run always completes, even if the client goes away.
	out := h.answers.Answer(context.WithoutCancel(c.Request.Context()), question)
	resp := askResponse{
		Result:   out.Result,
		Segments: citation.Parse(out.Result.Answer),
		Failed:   out.Failed,
	}
	if out.Failed {
		resp.Message = failedMessage
	}
	response.Success(c, resp)
}

func (h *QueryHandler) Current(c *gin.Context) {
	resp := currentResponse{
		Segments: []citation.Segment{},
		Loading:  h.answers.Loading(),
		Runs:     h.answers.Runs(),
	}
	if cur, ok := h.answers.Current(); ok {
		resp.Result = &cur
		resp.Segments = citation.Parse(cur.Answer)
	}
	response.Success(c, resp)
}

func (h *QueryHandler) Reset(c *gin.Context) {
	h.answers.Reset()
	response.Success(c, gin.H{})
}
