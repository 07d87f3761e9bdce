package domain

import "time"

type Lesson struct {
	Subject string `json:"subject"`
	Teacher string `json:"teacher"`
	Room    string `json:"room"`
}

// TimetableGrid 按 [班级][天][课时] 索引
type TimetableGrid [][][]Lesson

type TimetableResult struct {
	ID             int64         `json:"id"`
	DomainConfigID int64         `json:"domainConfigID"`
	JobID          *string       `json:"jobID,omitempty"` // 同步生成时为空
	Grid           TimetableGrid `json:"grid"`
	Fitness        int           `json:"fitness"`
	InitialFitness int           `json:"initialFitness"`
	FitnessHistory []int         `json:"fitnessHistory"`
	PopulationSize int32         `json:"populationSize"`
	MaxGenerations int32         `json:"maxGenerations"`
	CrossoverRate  float64       `json:"crossoverRate"`
	MutationRate   float64       `json:"mutationRate"`
	EliteCount     int32         `json:"eliteCount"`
	Seed           int64         `json:"seed"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// TimetableResultMeta 不包含课表本身，用于列表展示
type TimetableResultMeta struct {
	ID             int64     `json:"id"`
	DomainConfigID int64     `json:"domainConfigID"`
	Fitness        int       `json:"fitness"`
	InitialFitness int       `json:"initialFitness"`
	MaxGenerations int32     `json:"maxGenerations"`
	Seed           int64     `json:"seed"`
	CreatedAt      time.Time `json:"createdAt"`
}
