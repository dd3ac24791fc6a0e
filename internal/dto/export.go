package dto

// ── 导出模块 DTO ──

// ExportRequest 导出查询参数
type ExportRequest struct {
	Semester string `form:"semester" binding:"omitempty,max=4"`
	Format   string `form:"format"   binding:"omitempty,oneof=csv xlsx"`
}

// GetFormat 导出格式，默认 csv
func (r *ExportRequest) GetFormat() string {
	if r.Format == "" {
		return "csv"
	}
	return r.Format
}
