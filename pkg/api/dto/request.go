package dto

// AcquireRequest 发起采集请求
type AcquireRequest struct {
	Source         string                 `json:"source" binding:"required"`
	Params         map[string]interface{} `json:"params" binding:"omitempty"`
	Table          string                 `json:"table" binding:"omitempty"`
	Mode           string                 `json:"mode" binding:"omitempty,oneof=ignore plain upsert"`
	UniqueKeys     []string               `json:"unique_keys" binding:"omitempty"`
	TimeoutSeconds int                    `json:"timeout_seconds" binding:"omitempty,min=1,max=3600"`
	BatchSize      int                    `json:"batch_size" binding:"omitempty,min=1,max=100000"`
	FailOnEmpty    bool                   `json:"fail_on_empty"`
	Async          bool                   `json:"async"`
}

// ListExecutionsRequest 执行记录查询请求
type ListExecutionsRequest struct {
	Source string `form:"source" binding:"omitempty"`
	Status string `form:"status" binding:"omitempty,oneof=pending running completed failed timeout"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=1000"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

// StatsQueryRequest 统计查询请求
type StatsQueryRequest struct {
	Days int `form:"days" binding:"omitempty,min=1,max=365"`
}

// GetDefaultLimit 获取默认limit
func (r *ListExecutionsRequest) GetDefaultLimit() int {
	if r.Limit <= 0 {
		return 20
	}
	return r.Limit
}

// GetDefaultDays 获取默认统计天数
func (r *StatsQueryRequest) GetDefaultDays() int {
	if r.Days <= 0 {
		return 7
	}
	return r.Days
}
