package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/generator"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/report"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/seed"
)

// 离线运行一次遗传算法，不依赖数据库和消息队列
func main() {
	defaults := scheduler.DefaultParameters()

	var inputFile string
	var saveFile string
	var plotFile string
	var compact bool
	var verbose bool
	var params domain.GenerationParameters
	var populationSize, maxGenerations, eliteCount int
	var seedValue int64

	flag.StringVar(&inputFile, "input", "", "课表输入文件，为空时使用内置的示例输入")
	flag.StringVar(&saveFile, "save", "", "把本次使用的输入保存到文件")
	flag.StringVar(&plotFile, "plot", "", "适应度曲线图片的输出路径 (PNG)")
	flag.BoolVar(&compact, "compact", false, "以表格形式输出课表")
	flag.BoolVar(&verbose, "v", false, "输出每一代的适应度")
	flag.Int64Var(&seedValue, "seed", 0, "随机种子，不指定时随机生成")
	flag.IntVar(&populationSize, "population", int(defaults.PopulationSize), "种群大小")
	flag.IntVar(&maxGenerations, "generations", int(defaults.MaxGenerations), "迭代次数")
	flag.Float64Var(&params.CrossoverRate, "crossover", defaults.CrossoverRate, "交叉概率")
	flag.Float64Var(&params.MutationRate, "mutation", defaults.MutationRate, "变异概率")
	flag.IntVar(&eliteCount, "elite", int(defaults.EliteCount), "精英数量")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	params.PopulationSize = int32(populationSize)
	params.MaxGenerations = int32(maxGenerations)
	params.EliteCount = int32(eliteCount)
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			params.Seed = &seedValue
		}
	})
	params = generator.WithSeed(params)

	/**********************************************
	 * 读取输入
	 **********************************************/
	input := seed.DefaultInput()
	if inputFile != "" {
		var err error
		input, err = seed.LoadInput(inputFile)
		if err != nil {
			logger.Error("无法读取课表输入", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if saveFile != "" {
		if err := seed.SaveInput(input, saveFile); err != nil {
			logger.Error("无法保存课表输入", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	/**********************************************
	 * 运行遗传算法
	 **********************************************/
	dc := &domain.DomainConfig{Name: inputFile, TimetableInput: *input}
	result, err := generator.Run(dc, params)
	if err != nil {
		logger.Error("无法生成课表", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("课表生成完成",
		slog.Int64("seed", result.Seed),
		slog.Int("initial_fitness", result.InitialFitness),
		slog.Int("fitness", result.Fitness),
	)

	/**********************************************
	 * 输出结果
	 **********************************************/
	if compact {
		err = report.WriteCompactTimetable(os.Stdout, result.Grid)
	} else {
		err = report.WriteTimetable(os.Stdout, result.Grid)
	}
	if err != nil {
		logger.Error("无法输出课表", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if plotFile != "" {
		if err := report.SaveFitnessPlot(result.FitnessHistory, 6, 4, plotFile); err != nil {
			logger.Error("无法保存适应度曲线", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("适应度曲线已保存", slog.String("file", plotFile))
	}
}
