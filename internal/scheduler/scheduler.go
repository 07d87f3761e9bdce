package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/utils"
)

var ErrInvalidParameters = errors.New("遗传算法参数不合法")

// 父本只从排名前 parentPoolSize 的个体中选择
const parentPoolSize = 50

type Scheduler struct {
	parameters *Parameters
	input      *domain.TimetableInput
	rng        *rand.Rand // 所有随机性都来自这里，便于复现
}

func New(parameters *Parameters, input *domain.TimetableInput, rng *rand.Rand) (*Scheduler, error) {
	if err := ValidateParameters(parameters); err != nil {
		return nil, err
	}
	if err := utils.ValidateTimetableInput(input); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: 随机数生成器未初始化", ErrInvalidParameters)
	}

	// 复制一份输入，运行期间外部的修改不会影响算法
	in := &domain.TimetableInput{
		Classes:  input.Classes,
		Teachers: append([]string{}, input.Teachers...),
		Subjects: append([]string{}, input.Subjects...),
		Rooms:    append([]string{}, input.Rooms...),
		Days:     input.Days,
		Lessons:  input.Lessons,
	}

	return &Scheduler{
		parameters: parameters,
		input:      in,
		rng:        rng,
	}, nil
}

func ValidateParameters(p *Parameters) error {
	if p == nil {
		return fmt.Errorf("%w: 参数为空", ErrInvalidParameters)
	}
	if p.PopulationSize < 2 {
		return fmt.Errorf("%w: 种群大小必须不小于 2（当前为 %d）", ErrInvalidParameters, p.PopulationSize)
	}
	if p.MaxGenerations < 0 {
		return fmt.Errorf("%w: 迭代次数不能为负数（当前为 %d）", ErrInvalidParameters, p.MaxGenerations)
	}
	if p.EliteCount < 0 || p.EliteCount > p.PopulationSize {
		return fmt.Errorf("%w: 精英数量必须在 [0, %d] 之间（当前为 %d）", ErrInvalidParameters, p.PopulationSize, p.EliteCount)
	}
	if p.CrossoverRate < 0 || p.CrossoverRate > 1 {
		return fmt.Errorf("%w: 交叉概率必须在 [0, 1] 之间（当前为 %f）", ErrInvalidParameters, p.CrossoverRate)
	}
	if p.MutationRate < 0 || p.MutationRate > 1 {
		return fmt.Errorf("%w: 变异概率必须在 [0, 1] 之间（当前为 %f）", ErrInvalidParameters, p.MutationRate)
	}
	return nil
}

func (s *Scheduler) Schedule() (*domain.TimetableResult, error) {
	populationSize := int(s.parameters.PopulationSize)
	eliteCount := int(s.parameters.EliteCount)

	// 生成初始种群
	pop := make([]*Timetable, populationSize)
	for i := range pop {
		pop[i] = s.randomInitTimetable()
		s.calcFitness(pop[i])
	}
	sortByFitness(pop)

	initialFitness := pop[0].fitness
	history := make([]int, 0, s.parameters.MaxGenerations)

	for gen := 0; gen < int(s.parameters.MaxGenerations); gen++ {
		newPop := make([]*Timetable, 0, populationSize)

		// 保留精英，精英本身不会被修改，因此不需要拷贝
		newPop = append(newPop, pop[:eliteCount]...)

		poolSize := min(parentPoolSize, len(pop))
		if poolSize < 2 {
			return nil, fmt.Errorf("%w: 可供选择的父本不足 2 个", ErrInvalidParameters)
		}

		// 繁殖
		for len(newPop) < populationSize {
			i, j := s.selectParents(poolSize)

			// 父本先拷贝再交叉，避免破坏种群中的原个体
			c1 := pop[i].clone()
			c2 := pop[j].clone()

			s.singlePointCrossover(c1, c2)

			s.mutate(c1)
			s.repair(c1)
			s.calcFitness(c1)
			newPop = append(newPop, c1)

			if len(newPop) < populationSize {
				s.mutate(c2)
				s.repair(c2)
				s.calcFitness(c2)
				newPop = append(newPop, c2)
			}
		}

		sortByFitness(newPop)
		pop = newPop
		history = append(history, pop[0].fitness)

		slog.Debug("完成一代迭代", "generation", gen+1, "bestFitness", pop[0].fitness)
	}

	best := pop[0]
	slog.Info("课表生成完成", "initialFitness", initialFitness, "fitness", best.fitness, "generations", s.parameters.MaxGenerations)

	return &domain.TimetableResult{
		Grid:           best.grid,
		Fitness:        best.fitness,
		InitialFitness: initialFitness,
		FitnessHistory: history,
		PopulationSize: s.parameters.PopulationSize,
		MaxGenerations: s.parameters.MaxGenerations,
		CrossoverRate:  s.parameters.CrossoverRate,
		MutationRate:   s.parameters.MutationRate,
		EliteCount:     s.parameters.EliteCount,
	}, nil
}

// selectParents 从前 poolSize 个个体中等概率地选出两个不同的下标
func (s *Scheduler) selectParents(poolSize int) (int, int) {
	i := s.rng.Intn(poolSize)
	j := s.rng.Intn(poolSize - 1)
	if j >= i {
		j++
	}
	return i, j
}

func sortByFitness(pop []*Timetable) {
	sort.SliceStable(pop, func(i, j int) bool {
		return pop[i].fitness < pop[j].fitness
	})
}
