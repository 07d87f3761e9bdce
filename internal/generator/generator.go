package generator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/repository"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/utils"
)

const (
	TimetableQueue = "timetable_queue"
	EmailQueue     = "email_queue"
)

var (
	ErrJobNotFound  = errors.New("任务不存在")
	ErrMalformedJob = errors.New("任务消息格式错误")
)

// Disposition 表示 worker 应该如何确认一条任务消息
type Disposition int

const (
	DispositionAck     Disposition = iota // 已处理，包括生成失败并已记录的情况
	DispositionDrop                       // 消息本身有问题，重试也没用
	DispositionRequeue                    // 基础设施出错，重新入队
)

func Classify(err error) Disposition {
	switch {
	case err == nil:
		return DispositionAck
	case errors.Is(err, ErrMalformedJob):
		return DispositionDrop
	default:
		return DispositionRequeue
	}
}

// isJobError 判断错误是否由任务本身导致，这类错误重试也会得到同样的结果
func isJobError(err error) bool {
	return errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, scheduler.ErrInvalidParameters) ||
		errors.Is(err, utils.ErrInvalidTimetableInput) ||
		errors.Is(err, utils.ErrInvalidTimetableGrid)
}

type Generator struct {
	cfg       *config.Config
	store     Store
	jobs      JobStore
	publisher Publisher
}

func New(cfg *config.Config, repo *repository.Repository, ch *amqp.Channel, rdb *redis.Client) *Generator {
	return &Generator{
		cfg:       cfg,
		store:     repo,
		jobs:      NewRedisJobStore(cfg, rdb),
		publisher: NewAMQPPublisher(cfg, ch),
	}
}

// WithSeed 没有指定种子时随机生成一个，保证结果可以复现
func WithSeed(params domain.GenerationParameters) domain.GenerationParameters {
	if params.Seed == nil {
		seed := time.Now().UnixNano()
		params.Seed = &seed
	}
	return params
}

func NewJob(domainConfigID int64, params domain.GenerationParameters) *domain.GenerationJob {
	now := time.Now()
	return &domain.GenerationJob{
		ID:             uuid.NewString(),
		DomainConfigID: domainConfigID,
		Parameters:     WithSeed(params),
		Status:         domain.JobStatusQueued,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Run 只负责运行遗传算法并校验结果，不涉及持久化
func Run(dc *domain.DomainConfig, params domain.GenerationParameters) (*domain.TimetableResult, error) {
	params = WithSeed(params)

	s, err := scheduler.New(scheduler.ParametersFrom(params), &dc.TimetableInput, rand.New(rand.NewSource(*params.Seed)))
	if err != nil {
		return nil, err
	}

	result, err := s.Schedule()
	if err != nil {
		return nil, err
	}

	// 还需要检查一下结果和输入是否对的上
	if err := utils.ValidateTimetableGrid(result.Grid, &dc.TimetableInput); err != nil {
		return nil, err
	}

	result.DomainConfigID = dc.ID
	result.Seed = *params.Seed

	return result, nil
}

// Generate 同步生成课表并保存到数据库
func (g *Generator) Generate(dc *domain.DomainConfig, params domain.GenerationParameters) (*domain.TimetableResult, error) {
	result, err := Run(dc, params)
	if err != nil {
		return nil, err
	}

	if err := g.store.InsertTimetableResult(result); err != nil {
		return nil, err
	}

	return result, nil
}

func (g *Generator) saveJob(ctx context.Context, job *domain.GenerationJob) error {
	job.UpdatedAt = time.Now()
	return g.jobs.SaveJob(ctx, job)
}

func (g *Generator) GetJob(ctx context.Context, id string) (*domain.GenerationJob, error) {
	return g.jobs.GetJob(ctx, id)
}

// Enqueue 先记录任务状态，再把任务投递到消息队列中，由 worker 异步处理
func (g *Generator) Enqueue(ctx context.Context, job *domain.GenerationJob) error {
	job.Status = domain.JobStatusQueued

	if err := g.saveJob(ctx, job); err != nil {
		return err
	}

	return g.publisher.Publish(ctx, TimetableQueue, job)
}

func DecodeJob(body []byte) (*domain.GenerationJob, error) {
	job := &domain.GenerationJob{}
	if err := json.Unmarshal(body, job); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}
	if job.ID == "" || job.DomainConfigID == 0 {
		return nil, fmt.Errorf("%w: 缺少任务 ID 或配置 ID", ErrMalformedJob)
	}
	return job, nil
}

// Process 处理一条任务消息
// 生成失败会记录在任务状态中并返回 nil，只有消息本身有问题或者基础设施出错时才返回错误
// 同一条消息可能被投递多次，每个任务最多写入一个结果
func (g *Generator) Process(ctx context.Context, body []byte) error {
	job, err := DecodeJob(body)
	if err != nil {
		return err
	}

	stored, err := g.jobs.GetJob(ctx, job.ID)
	switch {
	case err == nil:
		if stored.Status == domain.JobStatusSucceeded || stored.Status == domain.JobStatusFailed {
			slog.Info("任务已经结束，忽略重复投递", "job", job.ID, "status", stored.Status)
			return nil
		}
	case errors.Is(err, ErrJobNotFound):
		// 状态已过期，按新任务处理
	default:
		return err
	}

	job.Status = domain.JobStatusRunning
	job.Error = ""
	if err := g.saveJob(ctx, job); err != nil {
		return err
	}

	dc, err := g.store.GetDomainConfig(job.DomainConfigID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return g.fail(ctx, job, "", fmt.Errorf("课表配置 %d 不存在", job.DomainConfigID))
		}
		return err
	}

	// 上一次投递已经写入了结果，只是没来得及更新状态
	result, err := g.store.GetTimetableResultByJobID(job.ID)
	switch {
	case err == nil:
		return g.succeed(ctx, job, dc, result)
	case errors.Is(err, sql.ErrNoRows):
	default:
		return err
	}

	result, err = Run(dc, job.Parameters)
	if err != nil {
		if isJobError(err) {
			return g.fail(ctx, job, dc.Name, err)
		}
		return err
	}

	result.JobID = &job.ID
	if err := g.store.InsertTimetableResult(result); err != nil {
		return err
	}

	return g.succeed(ctx, job, dc, result)
}

func (g *Generator) succeed(ctx context.Context, job *domain.GenerationJob, dc *domain.DomainConfig, result *domain.TimetableResult) error {
	job.Status = domain.JobStatusSucceeded
	job.ResultID = &result.ID
	if err := g.saveJob(ctx, job); err != nil {
		return err
	}

	g.notify(ctx, GeneratedMail(g.cfg.Email.NotifyAddress, job, dc, result))
	return nil
}

func (g *Generator) fail(ctx context.Context, job *domain.GenerationJob, configName string, cause error) error {
	job.Status = domain.JobStatusFailed
	job.Error = cause.Error()
	if err := g.saveJob(ctx, job); err != nil {
		return err
	}

	g.notify(ctx, FailedMail(g.cfg.Email.NotifyAddress, job, configName))
	return nil
}

// notify 投递失败只记录日志，任务状态已经保存，不能因此重新生成
func (g *Generator) notify(ctx context.Context, msg domain.MailMessage) {
	if msg.To == "" {
		return
	}
	if err := g.publisher.Publish(ctx, EmailQueue, msg); err != nil {
		slog.Error("无法投递通知邮件", "type", msg.Type, "error", err)
	}
}

func GeneratedMail(to string, job *domain.GenerationJob, dc *domain.DomainConfig, result *domain.TimetableResult) domain.MailMessage {
	return domain.MailMessage{
		Type: domain.MailTypeTimetableGenerated,
		To:   to,
		Data: domain.TimetableGeneratedMailData{
			JobID:            job.ID,
			DomainConfigName: dc.Name,
			ResultID:         result.ID,
			Fitness:          result.Fitness,
			InitialFitness:   result.InitialFitness,
			Generations:      result.MaxGenerations,
		},
	}
}

func FailedMail(to string, job *domain.GenerationJob, configName string) domain.MailMessage {
	return domain.MailMessage{
		Type: domain.MailTypeTimetableFailed,
		To:   to,
		Data: domain.TimetableFailedMailData{
			JobID:            job.ID,
			DomainConfigName: configName,
			Error:            job.Error,
		},
	}
}
