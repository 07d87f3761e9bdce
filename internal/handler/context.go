package handler

type ContextKey string

var (
	RoleCtxKey         ContextKey = "role"
	SubCtxKey          ContextKey = "sub"
	DomainConfigCtx    ContextKey = "domainConfig"
	TimetableResultCtx ContextKey = "timetableResult"
)
