package utils

import (
	"fmt"
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

var optionalSubjects = []string{"Biology", "Chemistry", "Physics", "Art", "Literature"}
var optionalRooms = []string{"Lab", "Library", "Art studio", "Room 4", "Room 5"}

func GenerateRandomChineseName(rng *rand.Rand) string {
	surname := commonSurnames[rng.Intn(len(commonSurnames))]
	nameLength := rng.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rng.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
var digits = "0123456789"

func GenerateRandomID(rng *rand.Rand, letterLength int, digitLength int) string {
	randomID := make([]rune, letterLength+digitLength)
	for i := range randomID {
		if i < letterLength {
			randomID[i] = letters[rng.Intn(len(letters))]
		} else {
			randomID[i] = rune(digits[rng.Intn(len(digits))])
		}
	}
	return string(randomID)
}

// GenerateRandomTeachers 生成 n 个不重复的教师姓名
func GenerateRandomTeachers(rng *rand.Rand, n int) []string {
	teachers := make([]string, 0, n)
	seen := make(map[string]bool)

	for len(teachers) < n {
		name := GenerateRandomChineseName(rng)
		if seen[name] {
			// 重名时在后面补上拼音首字母和编号，保证唯一
			args := pinyin.NewArgs()
			args.Style = pinyin.FirstLetter
			initials := ""
			for _, p := range pinyin.LazyPinyin(name, args) {
				initials += p
			}
			name = fmt.Sprintf("%s(%s%d)", name, initials, len(teachers)+1)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		teachers = append(teachers, name)
	}

	return teachers
}

// GenerateRandomTimetableInput 在固定的核心科目和教室之上随机追加一些可选项
func GenerateRandomTimetableInput(rng *rand.Rand) *domain.TimetableInput {
	subjects := []string{
		domain.SubjectMath, domain.SubjectEnglish, domain.SubjectHistory, domain.SubjectGeography,
		domain.SubjectPhysicalEducation, domain.SubjectChoreography, domain.SubjectMusic,
	}
	rooms := []string{
		domain.RoomOne, domain.RoomTwo, domain.RoomThree,
		domain.RoomGym, domain.RoomDance, domain.RoomMusic,
	}

	subjects = append(subjects, GenerateRandomSubset(rng, optionalSubjects)...)
	rooms = append(rooms, GenerateRandomSubset(rng, optionalRooms)...)

	return &domain.TimetableInput{
		Classes:  int32(rng.Intn(4) + 1),
		Teachers: GenerateRandomTeachers(rng, rng.Intn(6)+3),
		Subjects: subjects,
		Rooms:    rooms,
		Days:     int32(rng.Intn(2) + 5),
		Lessons:  int32(rng.Intn(4) + 4),
	}
}

// 使用 Fisher-Yates 洗牌算法来生成一个随机子集（可能为空）
func GenerateRandomSubset(rng *rand.Rand, arr []string) []string {
	arrCopy := append([]string{}, arr...) // 复制数组，避免修改原数组

	for i := 0; i < len(arrCopy)-1; i++ {
		j := rng.Intn(len(arrCopy)-i) + i
		arrCopy[i], arrCopy[j] = arrCopy[j], arrCopy[i]
	}

	l := rng.Intn(len(arrCopy) + 1)
	return arrCopy[:l]
}
