package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"120"` // 同步生成课表可能比较耗时
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"336"` // 单位为小时，14 天
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Email struct {
		NotifyAddress string `env:"NOTIFY_ADDRESS"` // 为空时不发送课表生成通知
		SMTP          struct {
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			Host        string `env:"HOST"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host             string `env:"HOST" envDefault:"localhost"`
		Port             int    `env:"PORT" envDefault:"6379"`
		Password         string `env:"PASSWORD"`
		OperationTimeout int    `env:"OPERATION_TIMEOUT" envDefault:"10"`
		JobExpiration    int    `env:"JOB_EXPIRATION" envDefault:"1440"` // 单位为分钟
	} `envPrefix:"REDIS_"`
	Scheduler struct {
		PopulationSize int32   `env:"POPULATION_SIZE" envDefault:"100"`
		MaxGenerations int32   `env:"MAX_GENERATIONS" envDefault:"300"`
		CrossoverRate  float64 `env:"CROSSOVER_RATE" envDefault:"0.7"`
		MutationRate   float64 `env:"MUTATION_RATE" envDefault:"0.01"`
		EliteCount     int32   `env:"ELITE_COUNT" envDefault:"20"`
	} `envPrefix:"SCHEDULER_"`
	Plot struct {
		Width  float64 `env:"WIDTH" envDefault:"6"` // 单位为英寸
		Height float64 `env:"HEIGHT" envDefault:"4"`
	} `envPrefix:"PLOT_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}
