package dto

// ── 学期模块 DTO ──

// SemesterResponse 学期及其时间范围
type SemesterResponse struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Current bool   `json:"current"`
}

// SemesterListResponse 学期列表（最新在前）
type SemesterListResponse struct {
	Current string             `json:"current"`
	List    []SemesterResponse `json:"list"`
}
