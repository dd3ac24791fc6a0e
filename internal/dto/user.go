package dto

// ── 用户模块 DTO ──

// CreateUserRequest 管理员创建用户
type CreateUserRequest struct {
	Name      string `json:"name"       binding:"required,min=2,max=100"`
	Email     string `json:"email"      binding:"required,email"`
	Role      string `json:"role"       binding:"omitempty,oneof=admin head member"`
	SectionID string `json:"section_id" binding:"omitempty,uuid"`
}

// CreateUserResponse 创建用户响应，临时密码仅返回一次
type CreateUserResponse struct {
	User         UserResponse `json:"user"`
	TempPassword string       `json:"temp_password"`
}

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	SectionID string `form:"section_id" binding:"omitempty,uuid"`
	Role      string `form:"role"       binding:"omitempty,oneof=admin head member"`
	Keyword   string `form:"keyword"    binding:"omitempty,max=50"`
}

// UpdateUserRequest 管理员更新用户
type UpdateUserRequest struct {
	Name      *string `json:"name"       binding:"omitempty,min=2,max=100"`
	Email     *string `json:"email"      binding:"omitempty,email"`
	SectionID *string `json:"section_id" binding:"omitempty"` // 空字符串表示移出小组
	IsActive  *bool   `json:"is_active"`
}

// UpdateProfileRequest 用户更新自己的资料
type UpdateProfileRequest struct {
	Name        *string `json:"name"         binding:"omitempty,min=2,max=100"`
	BankAccount *string `json:"bank_account" binding:"omitempty,max=40"` // [prefix-]number/bank，空字符串清除
}

// AssignRoleRequest 分配角色请求
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin head member"`
}

// ResetPasswordResponse 重置密码响应
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Email              string        `json:"email"`
	Role               string        `json:"role"`
	Section            *SectionBrief `json:"section,omitempty"`
	BankAccount        string        `json:"bank_account,omitempty"`
	IBAN               string        `json:"iban,omitempty"`
	IsActive           bool          `json:"is_active"`
	MustChangePassword bool          `json:"must_change_password"`
	CreatedAt          string        `json:"created_at,omitempty"`
}

// UserBrief 用户简要信息
type UserBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ImportUserResponse 批量导入用户响应
type ImportUserResponse struct {
	Total   int               `json:"total"`
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Errors  []ImportUserError `json:"errors,omitempty"`
	Created []ImportedUser    `json:"created,omitempty"`
}

// ImportUserError 导入错误详情
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportedUser 导入成功的用户及其临时密码
type ImportedUser struct {
	Email        string `json:"email"`
	TempPassword string `json:"temp_password"`
}
