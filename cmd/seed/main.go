package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/repository"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var domainConfigID int64
	var file string
	var name string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入默认课表配置, 2: 导出课表配置到文件, 3: 从文件导入课表配置, 4: 插入随机课表配置)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.Int64Var(&domainConfigID, "id", 0, "要导出的课表配置 ID")
	flag.StringVar(&file, "file", "input.json", "导入或导出的文件路径")
	flag.StringVar(&name, "name", "", "导入后的课表配置名称，默认使用文件名")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if _, err := seed.SeedDefaultConfig(repo); err != nil {
			slog.Error("无法插入默认课表配置", slog.String("error", err.Error()))
		}
	case 2:
		if domainConfigID <= 0 {
			slog.Error("请输入合法的课表配置 ID")
			return
		}

		if err := seed.ExportInput(repo, domainConfigID, file); err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				slog.Error("指定的课表配置不存在", slog.Int64("id", domainConfigID))
			default:
				slog.Error("无法导出课表配置", slog.String("error", err.Error()))
			}
			return
		}

		slog.Info("导出课表配置成功", slog.String("file", file))
	case 3:
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		}

		dc, err := seed.ImportInput(repo, file, name)
		if err != nil {
			slog.Error("无法导入课表配置", slog.String("error", err.Error()))
			return
		}

		slog.Info("导入课表配置成功", slog.Int64("id", dc.ID), slog.String("name", dc.Name))
	case 4:
		if n <= 0 {
			slog.Error("请输入合法的课表配置数量")
			return
		}

		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		cnt := seed.SeedRandomConfigs(repo, rng, n)

		slog.Info("插入随机课表配置成功", slog.Int("count", cnt))
	default:
		slog.Error("指定的操作非法")
	}
}
