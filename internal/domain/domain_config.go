package domain

import "time"

// TimetableInput 是生成课表所需的全部静态输入，也是导入导出文件的格式
type TimetableInput struct {
	Classes  int32    `json:"classes"`
	Teachers []string `json:"teachers"`
	Subjects []string `json:"subjects"`
	Rooms    []string `json:"rooms"`
	Days     int32    `json:"days"`
	Lessons  int32    `json:"lessons"` // 每天的课时数
}

type DomainConfig struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	TimetableInput
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}
