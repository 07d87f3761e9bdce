package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/utils"
)

func (h *Handler) handleDomainConfigWriteError(w http.ResponseWriter, r *http.Request, err error) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.ConstraintName {
		case "domain_configs_name_key":
			h.errorResponse(w, r, "课表配置名称已存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		h.errorResponse(w, r, "请重试")
	default:
		h.internalServerError(w, r, err)
	}
}

func (h *Handler) CreateDomainConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string   `json:"name" validate:"required"`
		Classes  int32    `json:"classes" validate:"required,min=1"`
		Teachers []string `json:"teachers" validate:"required,min=1,dive,required"`
		Subjects []string `json:"subjects" validate:"required,min=1,dive,required"`
		Rooms    []string `json:"rooms" validate:"required,min=1,dive,required"`
		Days     int32    `json:"days" validate:"required,min=1"`
		Lessons  int32    `json:"lessons" validate:"required,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	dc := &domain.DomainConfig{
		Name: req.Name,
		TimetableInput: domain.TimetableInput{
			Classes:  req.Classes,
			Teachers: req.Teachers,
			Subjects: req.Subjects,
			Rooms:    req.Rooms,
			Days:     req.Days,
			Lessons:  req.Lessons,
		},
	}

	// 重复的教师、科目、教室在 validator 中不好表达，交给 utils 检查
	if err := utils.ValidateTimetableInput(&dc.TimetableInput); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateDomainConfig(dc); err != nil {
		h.handleDomainConfigWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建课表配置成功", dc)
}

func (h *Handler) GetAllDomainConfigs(w http.ResponseWriter, r *http.Request) {
	dcs, err := h.repository.GetAllDomainConfigs()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取课表配置成功", dcs)
}

func (h *Handler) GetDomainConfig(w http.ResponseWriter, r *http.Request) {
	dc := r.Context().Value(DomainConfigCtx).(*domain.DomainConfig)

	h.successResponse(w, r, "获取课表配置成功", dc)
}

func (h *Handler) UpdateDomainConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     *string  `json:"name" validate:"omitempty,min=1"`
		Classes  *int32   `json:"classes" validate:"omitempty,min=1"`
		Teachers []string `json:"teachers" validate:"omitempty,min=1,dive,required"`
		Subjects []string `json:"subjects" validate:"omitempty,min=1,dive,required"`
		Rooms    []string `json:"rooms" validate:"omitempty,min=1,dive,required"`
		Days     *int32   `json:"days" validate:"omitempty,min=1"`
		Lessons  *int32   `json:"lessons" validate:"omitempty,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	dc := r.Context().Value(DomainConfigCtx).(*domain.DomainConfig)

	if req.Name != nil {
		dc.Name = *req.Name
	}
	if req.Classes != nil {
		dc.Classes = *req.Classes
	}
	if req.Teachers != nil {
		dc.Teachers = req.Teachers
	}
	if req.Subjects != nil {
		dc.Subjects = req.Subjects
	}
	if req.Rooms != nil {
		dc.Rooms = req.Rooms
	}
	if req.Days != nil {
		dc.Days = *req.Days
	}
	if req.Lessons != nil {
		dc.Lessons = *req.Lessons
	}

	if err := utils.ValidateTimetableInput(&dc.TimetableInput); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.UpdateDomainConfig(dc); err != nil {
		h.handleDomainConfigWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新课表配置成功", dc)
}

func (h *Handler) DeleteDomainConfig(w http.ResponseWriter, r *http.Request) {
	dc := r.Context().Value(DomainConfigCtx).(*domain.DomainConfig)

	if err := h.repository.DeleteDomainConfig(dc.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除课表配置成功", nil)
}
