package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

// Store 是生成任务需要的数据库操作，由 repository.Repository 实现
type Store interface {
	GetDomainConfig(id int64) (*domain.DomainConfig, error)
	InsertTimetableResult(result *domain.TimetableResult) error
	GetTimetableResultByJobID(jobID string) (*domain.TimetableResult, error)
}

// JobStore 保存任务状态，找不到任务时返回 ErrJobNotFound
type JobStore interface {
	SaveJob(ctx context.Context, job *domain.GenerationJob) error
	GetJob(ctx context.Context, id string) (*domain.GenerationJob, error)
}

type Publisher interface {
	Publish(ctx context.Context, queue string, v any) error
}

func JobKey(id string) string {
	return fmt.Sprintf("timetable_job_%s", id)
}

type redisJobStore struct {
	cfg         *config.Config
	redisClient *redis.Client
}

func NewRedisJobStore(cfg *config.Config, rdb *redis.Client) JobStore {
	return &redisJobStore{cfg: cfg, redisClient: rdb}
}

func (s *redisJobStore) SaveJob(ctx context.Context, job *domain.GenerationJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.Redis.OperationTimeout)*time.Second)
	defer cancel()

	return s.redisClient.Set(ctx, JobKey(job.ID), data, time.Duration(s.cfg.Redis.JobExpiration)*time.Minute).Err()
}

func (s *redisJobStore) GetJob(ctx context.Context, id string) (*domain.GenerationJob, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.Redis.OperationTimeout)*time.Second)
	defer cancel()

	data, err := s.redisClient.Get(ctx, JobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	job := &domain.GenerationJob{}
	if err := json.Unmarshal(data, job); err != nil {
		return nil, err
	}

	return job, nil
}

type amqpPublisher struct {
	cfg     *config.Config
	channel *amqp.Channel
}

func NewAMQPPublisher(cfg *config.Config, ch *amqp.Channel) Publisher {
	return &amqpPublisher{cfg: cfg, channel: ch}
}

func (p *amqpPublisher) Publish(ctx context.Context, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return p.channel.PublishWithContext(
		ctx,
		"",
		queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// DeclareQueues 声明任务队列和邮件队列，api、worker、mail 启动时都会调用
func DeclareQueues(ch *amqp.Channel) error {
	for _, queue := range []string{TimetableQueue, EmailQueue} {
		if _, err := ch.QueueDeclare(
			queue,
			true,
			false,
			false,
			false,
			nil,
		); err != nil {
			return err
		}
	}
	return nil
}
