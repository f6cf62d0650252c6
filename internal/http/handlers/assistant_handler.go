// Assistant HTTP handlers.
//
// This file exposes the conversational features as REST endpoints:
//   - POST /assistant/chat      (inventory-aware question answering)
//   - GET  /assistant/messages  (session transcript)
//   - POST /advisor             (photo in, buy-or-skip advice out)
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ownly/go-vault-backend/internal/domain"
	"github.com/ownly/go-vault-backend/internal/services"
)

// AssistantService defines the conversational operations consumed by HTTP
// handlers.
//
// Implementations must be safe for concurrent use and must honor the
// provided context: both operations call an external model.
type AssistantService interface {
	// Chat answers a free-text question grounded in the saved inventory.
	Chat(ctx context.Context, query string) (string, error)
	// Advise looks at a product photo and the inventory and recommends
	// whether buying it makes sense.
	Advise(ctx context.Context, photo io.Reader) (string, error)
	// Transcript returns the session's conversation so far.
	Transcript() []domain.ChatMessage
}

//
// DTOs
//

// ChatRequest is the JSON payload for asking the assistant a question.
type ChatRequest struct {
	Message string `json:"message" binding:"required" example:"Where did I put the drill?"`
}

// ChatResponse carries the assistant's reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// TranscriptResponse wraps the session transcript.
type TranscriptResponse struct {
	Messages []domain.ChatMessage `json:"messages"`
}

// AdviceResponse carries the shopping advisor's recommendation.
type AdviceResponse struct {
	Advice string `json:"advice"`
}

//
// Handlers
//

// Chat godoc
// @ID          assistantChat
// @Summary     Ask the inventory assistant
// @Description Answers a question using the saved catalog as grounding context.
// @Tags        Assistant
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.ChatRequest  true  "Question"
// @Success     200  {object}  handlers.ChatResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Empty message"
// @Failure     502  {object}  handlers.ErrorResponse  "Model unreachable"
// @Router      /assistant/chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	reply, err := h.assistantSvc.Chat(c.Request.Context(), strings.TrimSpace(req.Message))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyQuery):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message must not be empty")
		case services.IsRetryable(err):
			fail(c, http.StatusBadGateway, ErrCodeChatFailed, "assistant unavailable, please try again")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeChatFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, ChatResponse{Reply: reply})
}

// Transcript godoc
// @ID          assistantTranscript
// @Summary     Get the session transcript
// @Tags        Assistant
// @Produce     json
// @Success     200  {object}  handlers.TranscriptResponse
// @Router      /assistant/messages [get]
func (h *Handlers) Transcript(c *gin.Context) {
	ok(c, http.StatusOK, TranscriptResponse{Messages: h.assistantSvc.Transcript()})
}

// Advise godoc
// @ID          advisorAdvise
// @Summary     Get shopping advice for a product photo
// @Description Compares the photographed product against the saved inventory and recommends whether to buy.
// @Tags        Assistant
// @Accept      multipart/form-data
// @Produce     json
// @Param       photo  formData  file  true  "Product photo (JPEG or PNG)"
// @Success     200  {object}  handlers.AdviceResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing or undecodable photo"
// @Failure     502  {object}  handlers.ErrorResponse  "Model unreachable"
// @Router      /advisor [post]
func (h *Handlers) Advise(c *gin.Context) {
	file, _, err := c.Request.FormFile("photo")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "missing photo upload")
		return
	}
	defer file.Close()

	advice, err := h.assistantSvc.Advise(c.Request.Context(), file)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadImage):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "photo could not be decoded")
		case services.IsRetryable(err):
			fail(c, http.StatusBadGateway, ErrCodeAdviceFailed, "advisor unavailable, please try again")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeAdviceFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, AdviceResponse{Advice: advice})
}
