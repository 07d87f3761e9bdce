package domain

const (
	MailTypeTimetableGenerated = "timetable_generated"
	MailTypeTimetableFailed    = "timetable_failed"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type TimetableGeneratedMailData struct {
	JobID            string `json:"jobID"`
	DomainConfigName string `json:"domainConfigName"`
	ResultID         int64  `json:"resultID"`
	Fitness          int    `json:"fitness"`
	InitialFitness   int    `json:"initialFitness"`
	Generations      int32  `json:"generations"`
}

type TimetableFailedMailData struct {
	JobID            string `json:"jobID"`
	DomainConfigName string `json:"domainConfigName"`
	Error            string `json:"error"`
}
