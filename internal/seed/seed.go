package seed

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/repository"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/utils"
)

var (
	ErrReadInputFile  = errors.New("无法读取课表输入文件")
	ErrWriteInputFile = errors.New("无法写入课表输入文件")
)

const DefaultConfigName = "默认课表配置"

// DefaultInput 返回内置的示例输入：3 个班级，每周 5 天，每天 5 节课
func DefaultInput() *domain.TimetableInput {
	return &domain.TimetableInput{
		Classes:  3,
		Teachers: []string{"Teacher 1", "Teacher 2", "Teacher 3", "Teacher 4"},
		Subjects: []string{
			domain.SubjectMath,
			domain.SubjectEnglish,
			domain.SubjectHistory,
			domain.SubjectGeography,
			domain.SubjectPhysicalEducation,
			domain.SubjectChoreography,
			domain.SubjectMusic,
		},
		Rooms: []string{
			domain.RoomOne,
			domain.RoomTwo,
			domain.RoomThree,
			domain.RoomGym,
			domain.RoomDance,
			domain.RoomMusic,
		},
		Days:    5,
		Lessons: 5,
	}
}

// SaveInput 将输入写成 JSON 文件，文件中只有输入本身的六个字段
func SaveInput(input *domain.TimetableInput, path string) error {
	data, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteInputFile, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteInputFile, err)
	}

	return nil
}

// LoadInput 读取并校验 JSON 输入文件
func LoadInput(path string) (*domain.TimetableInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadInputFile, err)
	}

	input := &domain.TimetableInput{}
	if err := json.Unmarshal(data, input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadInputFile, err)
	}

	if err := utils.ValidateTimetableInput(input); err != nil {
		return nil, err
	}

	return input, nil
}

func SeedDefaultConfig(r *repository.Repository) (*domain.DomainConfig, error) {
	dc := &domain.DomainConfig{
		Name:           DefaultConfigName,
		TimetableInput: *DefaultInput(),
	}

	if err := r.CreateDomainConfig(dc); err != nil {
		return nil, err
	}

	slog.Info("插入默认课表配置成功", slog.Int64("id", dc.ID))
	return dc, nil
}

// SeedRandomConfigs 插入 n 个随机配置，返回成功插入的数量
func SeedRandomConfigs(r *repository.Repository, rng *rand.Rand, n int) int {
	cnt := 0
	for i := 0; i < n; i++ {
		dc := &domain.DomainConfig{
			Name:           "课表配置" + utils.GenerateRandomID(rng, 3, 3),
			TimetableInput: *utils.GenerateRandomTimetableInput(rng),
		}

		if err := r.CreateDomainConfig(dc); err != nil {
			slog.Error("无法插入课表配置", slog.String("error", err.Error()))
			continue
		}

		cnt++
	}

	return cnt
}

func ImportInput(r *repository.Repository, path string, name string) (*domain.DomainConfig, error) {
	input, err := LoadInput(path)
	if err != nil {
		return nil, err
	}

	dc := &domain.DomainConfig{
		Name:           name,
		TimetableInput: *input,
	}

	if err := r.CreateDomainConfig(dc); err != nil {
		return nil, err
	}

	return dc, nil
}

func ExportInput(r *repository.Repository, id int64, path string) error {
	dc, err := r.GetDomainConfig(id)
	if err != nil {
		return err
	}

	return SaveInput(&dc.TimetableInput, path)
}
