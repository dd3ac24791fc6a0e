package model

// Section 小组表 — 对应 sections
type Section struct {
	SectionID   string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"section_id"`
	Name        string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Description string  `gorm:"type:text"                                      json:"description,omitempty"`
	HeadID      *string `gorm:"type:uuid"                                      json:"head_id,omitempty"`
	IsActive    bool    `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联
	Head *User `gorm:"foreignKey:HeadID;references:UserID" json:"head,omitempty"`
}

// TableName 指定表名
func (Section) TableName() string { return "sections" }
