package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/generator"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/repository"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", slog.String("error", err.Error()))
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer pingCancel()
	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("无法连接到数据库", slog.String("error", err.Error()))
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer rdb.Close()

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	if err := generator.DeclareQueues(ch); err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}

	// 生成课表比较耗时，每次只取一条任务
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error("无法设置预取数量", slog.String("error", err.Error()))
		return
	}

	gen := generator.New(cfg, repo, ch, rdb)

	// 监听 CTRL+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgs, err := ch.Consume(
		generator.TimetableQueue, // 队列
		"",                       // 消费者标识，由 RabbitMQ 自动分配
		false,                    // 是否自动确认消息
		false,                    // 是否独占队列
		false,                    // 必须设置为 false
		false,                    // 是否不等待
		nil,                      // 额外参数
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Error("消息通道已关闭")
					return
				}
				handleDelivery(ctx, logger, gen, msg)
			}
		}
	}()

	logger.Info("等待生成任务...（按 CTRL+C 退出）")
	<-sigChan

	// 正在处理的任务会先跑完
	logger.Info("正在关闭 timetable worker...")
	cancel()
	wg.Wait()
	logger.Info("timetable worker 已成功关闭")
}

type processor interface {
	Process(ctx context.Context, body []byte) error
}

func handleDelivery(ctx context.Context, logger *slog.Logger, p processor, msg amqp.Delivery) {
	logger.Info("收到生成任务", slog.String("message", string(msg.Body)))

	start := time.Now()
	// 任务本身不受退出信号影响
	err := p.Process(context.WithoutCancel(ctx), msg.Body)
	switch generator.Classify(err) {
	case generator.DispositionAck:
		_ = msg.Ack(false)
		logger.Info("生成任务处理完成", slog.Duration("duration", time.Since(start)))
	case generator.DispositionDrop:
		logger.Error("任务消息格式错误，丢弃", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
	default:
		logger.Error("处理生成任务失败，重新入队", slog.String("error", err.Error()))
		_ = msg.Nack(false, true)
	}
}
