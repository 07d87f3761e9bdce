package scheduler

import "github.com/sysu-ecnc-dev/timetable/backend/internal/domain"

// Timetable: 一个候选课表，即一条染色体
// grid 按 [班级][天][课时] 索引，任何时候每个格子都有课
type Timetable struct {
	grid    domain.TimetableGrid
	fitness int // 冲突数，越小越好
}

// 遗传算法参数
type Parameters struct {
	PopulationSize int32   // 种群大小
	MaxGenerations int32   // 迭代次数
	CrossoverRate  float64 // 交叉概率
	MutationRate   float64 // 变异概率（针对每个后代，而不是每个格子）
	EliteCount     int32   // 精英数量
}

func DefaultParameters() *Parameters {
	return &Parameters{
		PopulationSize: 100,
		MaxGenerations: 300,
		CrossoverRate:  0.7,
		MutationRate:   0.01,
		EliteCount:     20,
	}
}

// ParametersFrom 从生成请求中取出算法参数，种子不属于算法参数
func ParametersFrom(p domain.GenerationParameters) *Parameters {
	return &Parameters{
		PopulationSize: p.PopulationSize,
		MaxGenerations: p.MaxGenerations,
		CrossoverRate:  p.CrossoverRate,
		MutationRate:   p.MutationRate,
		EliteCount:     p.EliteCount,
	}
}

// clone 深拷贝课表，保证交叉和变异不会影响种群中的其他个体
func (t *Timetable) clone() *Timetable {
	grid := make(domain.TimetableGrid, len(t.grid))
	for c, classSchedule := range t.grid {
		grid[c] = make([][]domain.Lesson, len(classSchedule))
		for d, daySchedule := range classSchedule {
			grid[c][d] = make([]domain.Lesson, len(daySchedule))
			copy(grid[c][d], daySchedule)
		}
	}

	return &Timetable{
		grid:    grid,
		fitness: t.fitness,
	}
}
