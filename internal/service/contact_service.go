package service

import (
	"Courier/internal/api/dto"
	"Courier/internal/repository"
	"context"
	log "log/slog"
	"strings"

	"github.com/jinzhu/copier"
)

type ContactService interface {
	ListContacts(ctx context.Context, query *dto.ListContactsQuery) ([]*dto.ContactDTO, error)
	GetContact(ctx context.Context, waID string) (*dto.ContactDTO, error)
}

type contactServiceImpl struct {
	contactRepo repository.ContactRepo
}

func NewContactService(contactRepo repository.ContactRepo) ContactService {
	return &contactServiceImpl{contactRepo: contactRepo}
}

func (s *contactServiceImpl) ListContacts(ctx context.Context, query *dto.ListContactsQuery) ([]*dto.ContactDTO, error) {
	page, size := query.Page, query.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}

	contacts, err := s.contactRepo.List(ctx, (page-1)*size, size)
	if err != nil {
		log.ErrorContext(ctx, "list contacts failed", "err", err)
		return nil, UnExpectedError
	}
	res := make([]*dto.ContactDTO, 0, len(contacts))
	if err = copier.Copy(&res, &contacts); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *contactServiceImpl) GetContact(ctx context.Context, waID string) (*dto.ContactDTO, error) {
	waID = strings.TrimSpace(waID)
	if waID == "" {
		return nil, ErrParamInvalid
	}
	contact, err := s.contactRepo.GetByWaID(ctx, waID)
	if err != nil {
		log.ErrorContext(ctx, "get contact failed", "waId", waID, "err", err)
		return nil, UnExpectedError
	}
	if contact == nil {
		return nil, ErrContactNotFound
	}
	res := &dto.ContactDTO{}
	if err = copier.Copy(res, contact); err != nil {
		return nil, err
	}
	return res, nil
}
