package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/generator"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/report"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/utils"
)

// readGenerationParameters 读取生成参数，没有给出的字段使用配置中的默认值
func (h *Handler) readGenerationParameters(r *http.Request) (domain.GenerationParameters, error) {
	var req struct {
		PopulationSize *int32   `json:"populationSize" validate:"omitempty,min=2"`
		MaxGenerations *int32   `json:"maxGenerations" validate:"omitempty,min=0"`
		CrossoverRate  *float64 `json:"crossoverRate" validate:"omitempty,min=0,max=1"`
		MutationRate   *float64 `json:"mutationRate" validate:"omitempty,min=0,max=1"`
		EliteCount     *int32   `json:"eliteCount" validate:"omitempty,min=0"`
		Seed           *int64   `json:"seed"`
	}

	params := domain.GenerationParameters{
		PopulationSize: h.config.Scheduler.PopulationSize,
		MaxGenerations: h.config.Scheduler.MaxGenerations,
		CrossoverRate:  h.config.Scheduler.CrossoverRate,
		MutationRate:   h.config.Scheduler.MutationRate,
		EliteCount:     h.config.Scheduler.EliteCount,
	}

	// 请求体可以为空，此时全部使用默认参数
	if err := h.readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		return params, err
	}
	if err := h.validate.Struct(req); err != nil {
		return params, err
	}

	if req.PopulationSize != nil {
		params.PopulationSize = *req.PopulationSize
	}
	if req.MaxGenerations != nil {
		params.MaxGenerations = *req.MaxGenerations
	}
	if req.CrossoverRate != nil {
		params.CrossoverRate = *req.CrossoverRate
	}
	if req.MutationRate != nil {
		params.MutationRate = *req.MutationRate
	}
	if req.EliteCount != nil {
		params.EliteCount = *req.EliteCount
	}
	params.Seed = req.Seed

	// 精英数量不能超过种群大小之类的组合约束
	if err := scheduler.ValidateParameters(scheduler.ParametersFrom(params)); err != nil {
		return params, err
	}

	return params, nil
}

func (h *Handler) GenerateTimetable(w http.ResponseWriter, r *http.Request) {
	params, err := h.readGenerationParameters(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	dc := r.Context().Value(DomainConfigCtx).(*domain.DomainConfig)

	result, err := h.generator.Generate(dc, generator.WithSeed(params))
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrInvalidParameters), errors.Is(err, utils.ErrInvalidTimetableInput):
			h.badRequest(w, r, err)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "生成课表成功", result)
}

func (h *Handler) EnqueueTimetableGeneration(w http.ResponseWriter, r *http.Request) {
	params, err := h.readGenerationParameters(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	dc := r.Context().Value(DomainConfigCtx).(*domain.DomainConfig)

	job := generator.NewJob(dc.ID, params)
	if err := h.generator.Enqueue(r.Context(), job); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "生成任务已提交", job)
}

func (h *Handler) GetGenerationJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.generator.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, generator.ErrJobNotFound):
			h.errorResponse(w, r, "任务不存在或已过期")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取任务成功", job)
}

func (h *Handler) GetDomainConfigTimetables(w http.ResponseWriter, r *http.Request) {
	dc := r.Context().Value(DomainConfigCtx).(*domain.DomainConfig)

	results, err := h.repository.GetTimetableResultsByDomainConfigID(dc.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取课表列表成功", results)
}

func (h *Handler) GetTimetable(w http.ResponseWriter, r *http.Request) {
	result := r.Context().Value(TimetableResultCtx).(*domain.TimetableResult)

	h.successResponse(w, r, "获取课表成功", result)
}

func (h *Handler) GetTimetableText(w http.ResponseWriter, r *http.Request) {
	result := r.Context().Value(TimetableResultCtx).(*domain.TimetableResult)

	var sb strings.Builder
	var err error
	switch r.URL.Query().Get("format") {
	case "compact":
		err = report.WriteCompactTimetable(&sb, result.Grid)
	case "", "full":
		err = report.WriteTimetable(&sb, result.Grid)
	default:
		h.errorResponse(w, r, "无效的格式")
		return
	}
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeFile(w, r, "text/plain; charset=utf-8", strings.NewReader(sb.String()))
}

func (h *Handler) GetTimetableFitnessPlot(w http.ResponseWriter, r *http.Request) {
	result := r.Context().Value(TimetableResultCtx).(*domain.TimetableResult)

	wt, err := report.FitnessPlot(result.FitnessHistory, h.config.Plot.Width, h.config.Plot.Height)
	if err != nil {
		switch {
		case errors.Is(err, report.ErrEmptyHistory):
			h.errorResponse(w, r, "该课表没有适应度记录")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.writeFile(w, r, "image/png", wt)
}

func (h *Handler) DeleteTimetable(w http.ResponseWriter, r *http.Request) {
	result := r.Context().Value(TimetableResultCtx).(*domain.TimetableResult)

	if err := h.repository.DeleteTimetableResult(result.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除课表成功", nil)
}
