package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/generator"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	validate          *validator.Validate
	config            *config.Config
	repository        *repository.Repository
	generator         *generator.Generator
	translator        ut.Translator
	adminPasswordHash []byte

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, gen *generator.Generator) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	// 管理员密码只在内存中保存哈希
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdmin.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &Handler{
		validate:          validate,
		config:            cfg,
		repository:        repo,
		generator:         gen,
		translator:        trans,
		adminPasswordHash: passwordHash,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/domain-configs", func(r chi.Router) {
			r.Post("/", h.CreateDomainConfig)
			r.Get("/", h.GetAllDomainConfigs)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.domainConfig)
				r.Get("/", h.GetDomainConfig)
				r.Patch("/", h.UpdateDomainConfig)
				r.Delete("/", h.DeleteDomainConfig)
				r.Post("/generate", h.GenerateTimetable)
				r.Post("/generate-async", h.EnqueueTimetableGeneration)
				r.Get("/timetables", h.GetDomainConfigTimetables)
			})
		})

		r.Get("/jobs/{id}", h.GetGenerationJob)

		r.Route("/timetables/{id}", func(r chi.Router) {
			r.Use(h.timetableResult)
			r.Get("/", h.GetTimetable)
			r.Delete("/", h.DeleteTimetable)
			r.Get("/text", h.GetTimetableText)
			r.Get("/fitness-plot", h.GetTimetableFitnessPlot)
		})
	})
}
