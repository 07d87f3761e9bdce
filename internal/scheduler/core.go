package scheduler

import (
	"slices"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

// randomInitTimetable 随机初始化一个课表，每个格子独立地随机选择科目、教师和教室
func (s *Scheduler) randomInitTimetable() *Timetable {
	grid := make(domain.TimetableGrid, s.input.Classes)

	for c := range grid {
		grid[c] = make([][]domain.Lesson, s.input.Days)
		for d := range grid[c] {
			grid[c][d] = make([]domain.Lesson, s.input.Lessons)
			for l := range grid[c][d] {
				grid[c][d][l] = domain.Lesson{
					Subject: s.input.Subjects[s.rng.Intn(len(s.input.Subjects))],
					Teacher: s.input.Teachers[s.rng.Intn(len(s.input.Teachers))],
					Room:    s.input.Rooms[s.rng.Intn(len(s.input.Rooms))],
				}
			}
		}
	}

	return &Timetable{
		grid: grid,
	}
}

/**
 * 计算课表的冲突数
 * fitness = sum(dayPenalty) + sum(classPenalty)
 * 其中:
 * 		1. dayPenalty 为某个班级某一天违反的规则数（专用教室、普通教室、教师/科目/教室重复）
 * 		2. classPenalty 为某个班级一周内缺少主要任课教师时的惩罚
 */
func Fitness(grid domain.TimetableGrid) int {
	score := 0

	for _, classSchedule := range grid {
		for _, daySchedule := range classSchedule {
			score += dayPenalty(daySchedule)
		}
		score += classPenalty(classSchedule)
	}

	return score
}

func (s *Scheduler) calcFitness(t *Timetable) {
	t.fitness = Fitness(t.grid)
}

// dayPenalty 只看当天出现过哪些科目和教室，不要求科目和教室出现在同一节课上
func dayPenalty(daySchedule []domain.Lesson) int {
	teachers := make([]string, 0, len(daySchedule))
	subjects := make([]string, 0, len(daySchedule))
	rooms := make([]string, 0, len(daySchedule))

	for _, lesson := range daySchedule {
		teachers = append(teachers, lesson.Teacher)
		subjects = append(subjects, lesson.Subject)
		rooms = append(rooms, lesson.Room)
	}

	penalty := 0

	for subject, room := range domain.DedicatedRooms {
		if slices.Contains(subjects, subject) && !slices.Contains(rooms, room) {
			penalty++
		}
	}

	// 每个出现的文化课各自计一次
	for _, subject := range domain.AcademicSubjects {
		if slices.Contains(subjects, subject) && !containsAny(rooms, domain.ClassRooms) {
			penalty++
		}
	}

	if hasDuplicate(teachers) {
		penalty++
	}
	if hasDuplicate(subjects) {
		penalty++
	}
	if hasDuplicate(rooms) {
		penalty++
	}

	return penalty
}

// classPenalty 要求出现次数最多的教师至少承担该班一半（向下取整）的课
func classPenalty(classSchedule [][]domain.Lesson) int {
	teacherCnt := make(map[string]int)
	total := 0

	for _, daySchedule := range classSchedule {
		for _, lesson := range daySchedule {
			teacherCnt[lesson.Teacher]++
			total++
		}
	}

	maxCnt := 0
	for _, cnt := range teacherCnt {
		maxCnt = max(maxCnt, cnt)
	}

	if maxCnt < total/2 {
		return 1
	}
	return 0
}

// 单点交叉
// 在班级维度上选一个位置，交换两个课表在该位置及之后的所有班级
func (s *Scheduler) singlePointCrossover(t1 *Timetable, t2 *Timetable) bool {
	if s.rng.Float64() >= s.parameters.CrossoverRate {
		return false
	}

	length1 := len(t1.grid)
	length2 := len(t2.grid)

	if length1 != length2 || length1 == 0 {
		// 同一次运行中的课表尺寸一定相同，这里只是以防万一
		return false
	}

	point := s.rng.Intn(length1)

	for i := point; i < length1; i++ {
		t1.grid[i], t2.grid[i] = t2.grid[i], t1.grid[i]
	}

	return true
}

// 变异
// 随机选一个格子，用随机科目、按科目选出的教室和随机教师覆盖它
func (s *Scheduler) mutate(t *Timetable) bool {
	if s.rng.Float64() >= s.parameters.MutationRate {
		return false
	}

	day := s.rng.Intn(int(s.input.Days))
	lesson := s.rng.Intn(int(s.input.Lessons))
	class := s.rng.Intn(int(s.input.Classes))

	subject := s.input.Subjects[s.rng.Intn(len(s.input.Subjects))]
	room := s.affinityRoom(subject)
	teacher := s.input.Teachers[s.rng.Intn(len(s.input.Teachers))]

	t.grid[class][day][lesson] = domain.Lesson{
		Subject: subject,
		Teacher: teacher,
		Room:    room,
	}

	return true
}

// repair 修正明显不合理的教室，只改教室，不改科目和教师
// 修正结果直接写回课表中的格子
func (s *Scheduler) repair(t *Timetable) {
	for c := range t.grid {
		for d := range t.grid[c] {
			for l := range t.grid[c][d] {
				lesson := &t.grid[c][d][l]

				if room, ok := domain.DedicatedRooms[lesson.Subject]; ok {
					lesson.Room = room
					continue
				}

				if isAcademicSubject(lesson.Subject) && !slices.Contains(domain.ClassRooms, lesson.Room) {
					lesson.Room = domain.ClassRooms[s.rng.Intn(len(domain.ClassRooms))]
				}
			}
		}
	}
}
