package domain

const (
	SubjectMath              = "Math"
	SubjectEnglish           = "English"
	SubjectHistory           = "History"
	SubjectGeography         = "Geography"
	SubjectPhysicalEducation = "Physical Education"
	SubjectChoreography      = "Choreography"
	SubjectMusic             = "Music"
)

const (
	RoomOne   = "Room 1"
	RoomTwo   = "Room 2"
	RoomThree = "Room 3"
	RoomGym   = "Gym"
	RoomDance = "Dance room"
	RoomMusic = "Music room"
)

// AcademicSubjects 只能安排在普通教室 ClassRooms 中
var AcademicSubjects = []string{SubjectMath, SubjectEnglish, SubjectHistory, SubjectGeography}

var ClassRooms = []string{RoomOne, RoomTwo, RoomThree}

// DedicatedRooms 记录必须在专用教室上的科目
var DedicatedRooms = map[string]string{
	SubjectPhysicalEducation: RoomGym,
	SubjectChoreography:      RoomDance,
	SubjectMusic:             RoomMusic,
}
