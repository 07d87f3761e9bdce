package scheduler

import (
	"slices"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func isAcademicSubject(subject string) bool {
	return slices.Contains(domain.AcademicSubjects, subject)
}

// affinityRoom 按科目和教室的对应关系选出教室，变异和修复都依赖它
func (s *Scheduler) affinityRoom(subject string) string {
	if room, ok := domain.DedicatedRooms[subject]; ok {
		return room
	}
	if isAcademicSubject(subject) {
		return domain.ClassRooms[s.rng.Intn(len(domain.ClassRooms))]
	}
	return s.input.Rooms[s.rng.Intn(len(s.input.Rooms))]
}

func containsAny(items []string, candidates []string) bool {
	for _, candidate := range candidates {
		if slices.Contains(items, candidate) {
			return true
		}
	}
	return false
}

func hasDuplicate(items []string) bool {
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if seen[item] {
			return true
		}
		seen[item] = true
	}
	return false
}
