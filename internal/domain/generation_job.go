package domain

import "time"

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

type GenerationParameters struct {
	PopulationSize int32   `json:"populationSize"`
	MaxGenerations int32   `json:"maxGenerations"`
	CrossoverRate  float64 `json:"crossoverRate"`
	MutationRate   float64 `json:"mutationRate"`
	EliteCount     int32   `json:"eliteCount"`
	Seed           *int64  `json:"seed,omitempty"` // 为空时随机生成，0 也是合法的种子
}

// GenerationJob 既是投递到 timetable_queue 的消息体，也是保存在 redis 中的任务状态
type GenerationJob struct {
	ID             string               `json:"id"`
	DomainConfigID int64                `json:"domainConfigID"`
	Parameters     GenerationParameters `json:"parameters"`
	Status         JobStatus            `json:"status"`
	ResultID       *int64               `json:"resultID"`
	Error          string               `json:"error,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}
