package dto

// BatchIssue 单条记录的处理失败原因
type BatchIssue struct {
	Index int    `json:"index"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// BatchResult 一次 ingest 的汇总计数
type BatchResult struct {
	Inserted   int `json:"inserted"`
	Updated    int `json:"updated"`
	Duplicates int `json:"duplicates"`
	// Statuses 处理的状态回执条数，Matched 为命中的消息数
	Statuses  int `json:"statuses"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
	Contacts  int `json:"contacts"`
	Errors    int `json:"errors"`

	Issues []BatchIssue `json:"issues,omitempty"`
}

// AddIssue 记录失败并计数
func (r *BatchResult) AddIssue(index int, kind string, err error) {
	r.Errors++
	r.Issues = append(r.Issues, BatchIssue{Index: index, Kind: kind, Error: err.Error()})
}

// NothingMatched 负载只包含状态回执且一条消息都未命中
func (r *BatchResult) NothingMatched() bool {
	return r.Statuses > 0 && r.Matched == 0 &&
		r.Inserted == 0 && r.Duplicates == 0 && r.Contacts == 0
}
