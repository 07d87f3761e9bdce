package utils

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

var (
	ErrInvalidTimetableInput = errors.New("课表输入不合法")
	ErrInvalidTimetableGrid  = errors.New("课表与输入不一致")
)

func ValidateTimetableInput(input *domain.TimetableInput) error {
	if input == nil {
		return fmt.Errorf("%w: 输入为空", ErrInvalidTimetableInput)
	}
	if input.Classes <= 0 {
		return fmt.Errorf("%w: 班级数量必须大于 0", ErrInvalidTimetableInput)
	}
	if input.Days <= 0 {
		return fmt.Errorf("%w: 天数必须大于 0", ErrInvalidTimetableInput)
	}
	if input.Lessons <= 0 {
		return fmt.Errorf("%w: 每天的课时数必须大于 0", ErrInvalidTimetableInput)
	}
	if len(input.Teachers) == 0 {
		return fmt.Errorf("%w: 教师列表不能为空", ErrInvalidTimetableInput)
	}
	if len(input.Subjects) == 0 {
		return fmt.Errorf("%w: 科目列表不能为空", ErrInvalidTimetableInput)
	}
	if len(input.Rooms) == 0 {
		return fmt.Errorf("%w: 教室列表不能为空", ErrInvalidTimetableInput)
	}

	// 列表中出现空字符串或重复项时，随机抽样的分布会被扭曲
	lists := []struct {
		name  string
		items []string
	}{
		{"教师", input.Teachers},
		{"科目", input.Subjects},
		{"教室", input.Rooms},
	}
	for _, list := range lists {
		seen := make(map[string]bool)
		for _, item := range list.items {
			if item == "" {
				return fmt.Errorf("%w: %s列表中存在空名称", ErrInvalidTimetableInput, list.name)
			}
			if seen[item] {
				return fmt.Errorf("%w: %s列表中存在重复项 %q", ErrInvalidTimetableInput, list.name, item)
			}
			seen[item] = true
		}
	}

	return nil
}

// ValidateTimetableGrid 检查课表的尺寸是否与输入一致，并且每个格子都来自输入中的集合
func ValidateTimetableGrid(grid domain.TimetableGrid, input *domain.TimetableInput) error {
	if len(grid) != int(input.Classes) {
		return fmt.Errorf("%w: 课表中的班级数量 %d 与输入中的 %d 不一致", ErrInvalidTimetableGrid, len(grid), input.Classes)
	}

	for c, classSchedule := range grid {
		if len(classSchedule) != int(input.Days) {
			return fmt.Errorf("%w: 班级 %d 的天数 %d 与输入中的 %d 不一致", ErrInvalidTimetableGrid, c+1, len(classSchedule), input.Days)
		}
		for d, daySchedule := range classSchedule {
			if len(daySchedule) != int(input.Lessons) {
				return fmt.Errorf("%w: 班级 %d 第 %d 天的课时数 %d 与输入中的 %d 不一致", ErrInvalidTimetableGrid, c+1, d+1, len(daySchedule), input.Lessons)
			}
			for l, lesson := range daySchedule {
				if !slices.Contains(input.Subjects, lesson.Subject) {
					return fmt.Errorf("%w: 班级 %d 第 %d 天第 %d 节的科目 %q 不存在", ErrInvalidTimetableGrid, c+1, d+1, l+1, lesson.Subject)
				}
				if !slices.Contains(input.Teachers, lesson.Teacher) {
					return fmt.Errorf("%w: 班级 %d 第 %d 天第 %d 节的教师 %q 不存在", ErrInvalidTimetableGrid, c+1, d+1, l+1, lesson.Teacher)
				}
				// 固定教室（如 Room 1）可以不在输入的教室列表中，这里只检查非空
				if lesson.Room == "" {
					return fmt.Errorf("%w: 班级 %d 第 %d 天第 %d 节没有教室", ErrInvalidTimetableGrid, c+1, d+1, l+1)
				}
			}
		}
	}

	return nil
}
