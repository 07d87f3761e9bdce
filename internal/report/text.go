package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func DayName(day int) string {
	if day >= 0 && day < len(weekdays) {
		return weekdays[day]
	}
	return fmt.Sprintf("Day %d", day+1)
}

func ClassName(class int) string {
	return fmt.Sprintf("Class %d", class+1)
}

// WriteTimetable 按班级、天逐节输出课表
func WriteTimetable(w io.Writer, grid domain.TimetableGrid) error {
	for c, classSchedule := range grid {
		if _, err := fmt.Fprintf(w, "===== %s =====\n", ClassName(c)); err != nil {
			return err
		}
		for d, daySchedule := range classSchedule {
			if _, err := fmt.Fprintf(w, "----- %s -----\n", DayName(d)); err != nil {
				return err
			}
			for _, lesson := range daySchedule {
				if _, err := fmt.Fprintf(w, "Subject: %s, teacher: %s, classroom: %s\n", lesson.Subject, lesson.Teacher, lesson.Room); err != nil {
					return err
				}
			}
		}
		if _, err := fmt.Fprint(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// TeacherCode 返回教师姓名的简写
// 中文姓名取拼音首字母，其他姓名取每个单词的首字母，数字保留
func TeacherCode(name string) string {
	args := pinyin.NewArgs()
	args.Style = pinyin.FirstLetter
	if initials := pinyin.LazyPinyin(name, args); len(initials) > 0 {
		return strings.ToUpper(strings.Join(initials, ""))
	}

	code := ""
	for _, field := range strings.Fields(name) {
		runes := []rune(field)
		if unicode.IsDigit(runes[0]) {
			code += field
			continue
		}
		code += string(unicode.ToUpper(runes[0]))
	}
	return code
}

// WriteCompactTimetable 每个班级输出一张表，行为课时，列为天
func WriteCompactTimetable(w io.Writer, grid domain.TimetableGrid) error {
	for c, classSchedule := range grid {
		if _, err := fmt.Fprintf(w, "%s\n", ClassName(c)); err != nil {
			return err
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

		header := []string{"#"}
		for d := range classSchedule {
			header = append(header, DayName(d))
		}
		fmt.Fprintln(tw, strings.Join(header, "\t"))

		lessons := 0
		if len(classSchedule) > 0 {
			lessons = len(classSchedule[0])
		}
		for l := 0; l < lessons; l++ {
			row := []string{fmt.Sprintf("%d", l+1)}
			for _, daySchedule := range classSchedule {
				lesson := daySchedule[l]
				row = append(row, fmt.Sprintf("%s/%s/%s", lesson.Subject, TeacherCode(lesson.Teacher), lesson.Room))
			}
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}

		if err := tw.Flush(); err != nil {
			return err
		}
		if _, err := fmt.Fprint(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}
