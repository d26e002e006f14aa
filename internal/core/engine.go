package core

import (
	"context"
	"fmt"
	"time"

	"csvbatch/internal/pkg/logger"
)

// Job 一次导入任务：按配置创建插件、管理 Writer 生命周期并运行 Pipeline
type Job struct {
	config    *JobConfig
	registry  *PluginRegistry
	logger    *logger.Logger
	reader    Reader
	processor Processor
	writer    Writer
	listeners []ChunkListener
}

// NewJob 创建导入任务，log 为空时不输出日志
func NewJob(config *JobConfig, registry *PluginRegistry, log *logger.Logger) *Job {
	if log == nil {
		log = logger.Discard()
	}
	return &Job{
		config:   config,
		registry: registry,
		logger:   log,
	}
}

// AddChunkListener 追加批次回调，需在 Run 之前调用
func (j *Job) AddChunkListener(l ChunkListener) {
	j.listeners = append(j.listeners, l)
}

// Init 根据配置创建 Reader、Processor 和 Writer
func (j *Job) Init() error {
	if j.config == nil {
		return fmt.Errorf("配置不能为空")
	}
	if j.registry == nil {
		return fmt.Errorf("插件注册器不能为空")
	}
	jobSpec := j.config.Job

	reader, err := j.registry.CreateReader(jobSpec.Reader.Name, jobSpec.Reader.Parameter)
	if err != nil {
		return fmt.Errorf("创建Reader失败: %w", err)
	}

	processor, err := j.registry.CreateProcessor(jobSpec.Processor.Name, jobSpec.Processor.Parameter)
	if err != nil {
		reader.Close()
		return fmt.Errorf("创建Processor失败: %w", err)
	}

	writer, err := j.registry.CreateWriter(jobSpec.Writer.Name, jobSpec.Writer.Parameter)
	if err != nil {
		reader.Close()
		return fmt.Errorf("创建Writer失败: %w", err)
	}

	j.reader = reader
	j.processor = processor
	j.writer = writer
	return nil
}

// Run 执行导入任务；未调用 Init 时会先初始化
func (j *Job) Run(ctx context.Context) (RunStats, error) {
	if j.reader == nil {
		if err := j.Init(); err != nil {
			return RunStats{State: StateFailed}, err
		}
	}

	startTime := time.Now()
	jobSpec := j.config.Job
	j.logger.Info("开始导入任务: reader=%s, processor=%s, writer=%s",
		jobSpec.Reader.Name, processorName(jobSpec.Processor.Name), jobSpec.Writer.Name)

	if c, ok := j.writer.(Connector); ok {
		if err := c.Connect(ctx); err != nil {
			j.reader.Close()
			return RunStats{State: StateFailed}, &SinkError{Cause: fmt.Errorf("Writer连接失败: %w", err)}
		}
		defer func() {
			if err := c.Close(); err != nil {
				j.logger.Warn("关闭Writer失败: %v", err)
			}
		}()
	}

	pp, hasHooks := j.writer.(PrePostProcessor)
	if hasHooks {
		if err := pp.PreProcess(ctx); err != nil {
			j.reader.Close()
			return RunStats{State: StateFailed}, &SinkError{Cause: fmt.Errorf("写入前处理失败: %w", err)}
		}
	}

	opts := []PipelineOption{
		WithProcessor(j.processor),
		WithLogger(j.logger),
	}
	for _, l := range j.listeners {
		opts = append(opts, WithChunkListener(l))
	}
	pipeline := NewPipeline(j.reader, j.writer, jobSpec.Setting, opts...)

	stats, err := pipeline.Run(ctx)
	if err != nil {
		return stats, err
	}

	if hasHooks {
		if err := pp.PostProcess(ctx); err != nil {
			stats.State = StateFailed
			return stats, &SinkError{Cause: fmt.Errorf("写入后处理失败: %w", err)}
		}
	}

	duration := time.Since(startTime)
	speed := 0.0
	if secs := duration.Seconds(); secs > 0 {
		speed = float64(stats.Written) / secs
	}
	j.logger.Info("导入任务完成! 总耗时: %v, 读取记录数: %d, 写入记录数: %d, 过滤记录数: %d, 平均速度: %.2f 条/秒",
		duration.Round(time.Millisecond), stats.Read, stats.Written, stats.Filtered, speed)
	return stats, nil
}

func processorName(name string) string {
	if name == "" {
		return "identity"
	}
	return name
}
