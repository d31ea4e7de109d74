package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/response"
	"github.com/stemsi/schoolhub-backend/internal/service"
	"github.com/stemsi/schoolhub-backend/internal/validator"
)

// FamilyMessagingHandler handles parent/child messaging over HTTP.
type FamilyMessagingHandler struct {
	messagingService *service.FamilyMessagingService
}

// NewFamilyMessagingHandler creates a new FamilyMessagingHandler.
func NewFamilyMessagingHandler(messagingService *service.FamilyMessagingService) *FamilyMessagingHandler {
	return &FamilyMessagingHandler{messagingService: messagingService}
}

// Overview godoc
// GET /api/v1/family-messaging
// Returns conversations, linked family members and the caller's role.
func (h *FamilyMessagingHandler) Overview(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	overview, err := h.messagingService.Overview(c.Request.Context(), a)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, overview)
}

// StartConversation godoc
// POST /api/v1/family-messaging/conversations
func (h *FamilyMessagingHandler) StartConversation(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req model.StartConversationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	conv, err := h.messagingService.StartConversation(c.Request.Context(), a, req.ParticipantID)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"conversation": conv})
}

// ListMessages godoc
// GET /api/v1/family-messaging/conversations/:id/messages?after=
// Returns the recent message window, optionally only messages after a known id.
func (h *FamilyMessagingHandler) ListMessages(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var after *uuid.UUID
	if raw := c.Query("after"); raw != "" {
		afterID, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		after = &afterID
	}

	msgs, err := h.messagingService.Messages(c.Request.Context(), a, id, after)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"messages": msgs})
}

// SendMessage godoc
// POST /api/v1/family-messaging/messages
func (h *FamilyMessagingHandler) SendMessage(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req model.SendMessageRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	msg, err := h.messagingService.Send(c.Request.Context(), a, &req)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"message": msg})
}

// MarkRead godoc
// PATCH /api/v1/family-messaging/messages/read
func (h *FamilyMessagingHandler) MarkRead(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req model.MarkReadRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	n, err := h.messagingService.MarkRead(c.Request.Context(), a, req.MessageIDs)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": n})
}
