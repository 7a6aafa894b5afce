package handler

import (
	"Courier/internal/api/dto"
	"Courier/internal/pkg/response"
	"Courier/internal/pkg/util"
	"Courier/internal/service"

	"github.com/gin-gonic/gin"
)

type IMHandler struct {
	conversationService service.ConversationService
	messageService      service.MessageService
}

func NewIMHandler(conversationService service.ConversationService, messageService service.MessageService) *IMHandler {
	return &IMHandler{
		conversationService: conversationService,
		messageService:      messageService,
	}
}

// ListConversations 会话列表
func (s *IMHandler) ListConversations(c *gin.Context) {
	res, err := s.conversationService.ListConversations(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// ListMessages 会话消息分页
func (s *IMHandler) ListMessages(c *gin.Context) {
	var query dto.ListMessagesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := util.ValidateDTO(&query); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}

	res, err := s.conversationService.ListMessages(c.Request.Context(), c.Param("key"), &query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// MarkRead 会话标记已读
func (s *IMHandler) MarkRead(c *gin.Context) {
	res, err := s.conversationService.MarkConversationRead(c.Request.Context(), c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// SendMessage 本地用户发送消息
func (s *IMHandler) SendMessage(c *gin.Context) {
	var req dto.SendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}

	res, err := s.messageService.SendLocalMessage(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *IMHandler) DeleteMessage(c *gin.Context) {
	res, err := s.messageService.DeleteMessage(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *IMHandler) ToggleStar(c *gin.Context) {
	res, err := s.messageService.ToggleStar(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Search 消息全文检索
func (s *IMHandler) Search(c *gin.Context) {
	var query dto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := util.ValidateDTO(&query); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}

	res, err := s.messageService.Search(c.Request.Context(), &query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
