package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func validInput() *domain.TimetableInput {
	return &domain.TimetableInput{
		Classes:  1,
		Teachers: []string{"T1", "T2"},
		Subjects: []string{"Math", "Music"},
		Rooms:    []string{"Room 1", "Music room"},
		Days:     2,
		Lessons:  2,
	}
}

func TestValidateTimetableInput(t *testing.T) {
	tests := []struct {
		name   string
		modify func(in *domain.TimetableInput)
		ok     bool
	}{
		{name: "valid", modify: func(in *domain.TimetableInput) {}, ok: true},
		{name: "zero classes", modify: func(in *domain.TimetableInput) { in.Classes = 0 }},
		{name: "zero days", modify: func(in *domain.TimetableInput) { in.Days = 0 }},
		{name: "zero lessons", modify: func(in *domain.TimetableInput) { in.Lessons = 0 }},
		{name: "empty teachers", modify: func(in *domain.TimetableInput) { in.Teachers = nil }},
		{name: "empty subjects", modify: func(in *domain.TimetableInput) { in.Subjects = nil }},
		{name: "empty rooms", modify: func(in *domain.TimetableInput) { in.Rooms = nil }},
		{name: "blank teacher", modify: func(in *domain.TimetableInput) { in.Teachers = []string{"T1", ""} }},
		{name: "duplicate room", modify: func(in *domain.TimetableInput) { in.Rooms = []string{"Gym", "Gym"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.modify(in)

			err := ValidateTimetableInput(in)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTimetableInput)
			}
		})
	}

	assert.ErrorIs(t, ValidateTimetableInput(nil), ErrInvalidTimetableInput)
}

func TestValidateTimetableGrid(t *testing.T) {
	in := validInput()
	good := domain.TimetableGrid{
		{
			{{Subject: "Math", Teacher: "T1", Room: "Room 1"}, {Subject: "Music", Teacher: "T2", Room: "Music room"}},
			{{Subject: "Math", Teacher: "T1", Room: "Room 2"}, {Subject: "Music", Teacher: "T2", Room: "Music room"}},
		},
	}
	assert.NoError(t, ValidateTimetableGrid(good, in))

	wrongClasses := domain.TimetableGrid{}
	assert.ErrorIs(t, ValidateTimetableGrid(wrongClasses, in), ErrInvalidTimetableGrid)

	wrongDays := domain.TimetableGrid{good[0][:1]}
	assert.ErrorIs(t, ValidateTimetableGrid(wrongDays, in), ErrInvalidTimetableGrid)

	unknownTeacher := domain.TimetableGrid{
		{
			{{Subject: "Math", Teacher: "T9", Room: "Room 1"}, {Subject: "Music", Teacher: "T2", Room: "Music room"}},
			good[0][1],
		},
	}
	assert.ErrorIs(t, ValidateTimetableGrid(unknownTeacher, in), ErrInvalidTimetableGrid)

	emptyRoom := domain.TimetableGrid{
		{
			{{Subject: "Math", Teacher: "T1", Room: ""}, {Subject: "Music", Teacher: "T2", Room: "Music room"}},
			good[0][1],
		},
	}
	assert.ErrorIs(t, ValidateTimetableGrid(emptyRoom, in), ErrInvalidTimetableGrid)
}
