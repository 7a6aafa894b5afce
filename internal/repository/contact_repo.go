package repository

import (
	"Courier/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContactRepo interface {
	Upsert(ctx context.Context, contacts []*model.Contact) error
	GetByWaID(ctx context.Context, waID string) (*model.Contact, error)
	List(ctx context.Context, offset, limit int) ([]*model.Contact, error)
}

type contactRepoImpl struct {
	db *gorm.DB
}

func NewContactRepo(db *gorm.DB) ContactRepo {
	return &contactRepoImpl{db: db}
}

// Upsert 按 wa_id 合并，非空字段覆盖旧值
func (s *contactRepoImpl) Upsert(ctx context.Context, contacts []*model.Contact) error {
	if len(contacts) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "wa_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"name":       gorm.Expr("IF(VALUES(name) = '', name, VALUES(name))"),
			"phone":      gorm.Expr("IF(VALUES(phone) = '', phone, VALUES(phone))"),
			"updated_at": gorm.Expr("VALUES(updated_at)"),
		}),
	}).Create(&contacts).Error
}

func (s *contactRepoImpl) GetByWaID(ctx context.Context, waID string) (*model.Contact, error) {
	var contact model.Contact
	err := s.db.WithContext(ctx).Where("wa_id = ?", waID).First(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contact, nil
}

func (s *contactRepoImpl) List(ctx context.Context, offset, limit int) ([]*model.Contact, error) {
	contacts := make([]*model.Contact, 0)
	err := s.db.WithContext(ctx).
		Order("updated_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&contacts).Error
	return contacts, err
}
