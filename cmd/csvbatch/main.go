package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"csvbatch/internal/core"
	"csvbatch/internal/pkg/logger"
	"csvbatch/internal/plugin"
)

// 版本信息，在编译时通过 -ldflags 注入
var (
	Version   = "dev"
	BuildTime = "unknown"
	CommitID  = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "程序执行失败: %v\n", err)
		os.Exit(1)
	}
}

// run 主要的程序逻辑，返回错误而不是直接退出
func run() error {
	var (
		jobFile     string
		envFile     string
		showVersion bool
	)
	flag.StringVar(&jobFile, "job", "", "任务配置文件路径(json/yaml)")
	flag.StringVar(&envFile, "env", "", "环境变量文件路径(.env)")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.Parse()

	if showVersion {
		fmt.Printf("csvbatch 版本: %s\n构建时间: %s\n提交ID: %s\n", Version, BuildTime, CommitID)
		return nil
	}

	if jobFile == "" {
		return fmt.Errorf("请指定任务配置文件路径，使用 -job 参数")
	}

	var opts []core.LoadOption
	if envFile != "" {
		opts = append(opts, core.WithEnvFile(envFile))
	}
	config, err := core.LoadJobConfig(jobFile, opts...)
	if err != nil {
		return err
	}

	log, err := newLogger(config.Log)
	if err != nil {
		return err
	}
	defer log.Close()

	log.Info("csvbatch 版本: %s, 构建时间: %s, 提交ID: %s", Version, BuildTime, CommitID)

	registry := plugin.NewRegistry(log)
	if err := core.ValidateJobConfig(config, registry); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	job := core.NewJob(config, registry, log)
	stats, err := job.Run(ctx)
	printStats(stats)
	if err != nil {
		return fmt.Errorf("导入失败(%s): %w", core.Kind(err), err)
	}
	return nil
}

func newLogger(cfg core.LogConfig) (*logger.Logger, error) {
	level, err := logger.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logger.New(&logger.Option{
		Level:     level,
		Prefix:    "csvbatch",
		LogFile:   cfg.File,
		Format:    cfg.Format,
		WithTime:  true,
		WithLevel: true,
	}), nil
}

func printStats(stats core.RunStats) {
	fmt.Printf("运行ID: %s\n", stats.RunID)
	fmt.Printf("状态: %s\n", stats.State)
	fmt.Printf("读取: %d, 处理: %d, 过滤: %d, 写入: %d, 失败: %d\n",
		stats.Read, stats.Processed, stats.Filtered, stats.Written, stats.Failed)
	fmt.Printf("批次: 派发 %d, 完成 %d, 失败 %d\n",
		stats.ChunksDispatched, stats.ChunksCommitted, stats.ChunksFailed)
	fmt.Printf("耗时: %v\n", stats.Duration.Round(time.Millisecond))
}
