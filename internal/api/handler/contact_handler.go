package handler

import (
	"Courier/internal/api/dto"
	"Courier/internal/pkg/response"
	"Courier/internal/pkg/util"
	"Courier/internal/service"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	contactService service.ContactService
}

func NewContactHandler(contactService service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

func (s *ContactHandler) ListContacts(c *gin.Context) {
	var query dto.ListContactsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := util.ValidateDTO(&query); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}

	res, err := s.contactService.ListContacts(c.Request.Context(), &query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *ContactHandler) GetContact(c *gin.Context) {
	res, err := s.contactService.GetContact(c.Request.Context(), c.Param("wa_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
