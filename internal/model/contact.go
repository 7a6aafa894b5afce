package model

import "time"

// Contact 联系人资料，来源于 contacts 类负载
type Contact struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	WaID      string    `gorm:"uniqueIndex;type:varchar(64);not null" json:"waId"`
	Name      string    `gorm:"type:varchar(128)" json:"name"`
	Phone     string    `gorm:"type:varchar(32)" json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Contact) TableName() string { return "contacts" }
