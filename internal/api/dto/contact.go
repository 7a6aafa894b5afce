package dto

import "time"

type ContactDTO struct {
	WaID      string    `json:"waId"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ListContactsQuery struct {
	Page     int `form:"page" validate:"omitempty,min=1"`
	PageSize int `form:"pageSize" validate:"omitempty,min=1,max=200"`
}
