package dto

// ── 小组模块 DTO ──

// CreateSectionRequest 创建小组请求
type CreateSectionRequest struct {
	Name        string `json:"name"        binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

// UpdateSectionRequest 更新小组请求
type UpdateSectionRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=2,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active"`
}

// SetSectionHeadRequest 设置组长请求
type SetSectionHeadRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// SectionListRequest 小组列表查询参数
type SectionListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// SectionBrief 小组简要信息
type SectionBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SectionResponse 小组详细信息响应
type SectionResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Head        *UserBrief `json:"head,omitempty"`
	IsActive    bool       `json:"is_active"`
	MemberCount int64      `json:"member_count"`
	CreatedAt   string     `json:"created_at"`
	UpdatedAt   string     `json:"updated_at"`
}
