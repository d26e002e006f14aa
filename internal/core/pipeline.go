package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"csvbatch/internal/pkg/logger"
)

// State Pipeline 运行状态
type State int32

const (
	StateIdle State = iota
	StateReading
	StateDispatching
	StateDraining
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateReading:
		return "Reading"
	case StateDispatching:
		return "Dispatching"
	case StateDraining:
		return "Draining"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// PipelineConfig 管道配置
type PipelineConfig struct {
	ChunkSize        int           `mapstructure:"chunkSize" json:"chunkSize" validate:"gte=1"`               // 每个批次的记录数
	ConcurrencyLimit int           `mapstructure:"concurrencyLimit" json:"concurrencyLimit" validate:"gte=1"` // 并发批次上限
	ProgressInterval time.Duration `mapstructure:"progressInterval" json:"progressInterval" validate:"gte=0"` // 进度日志间隔，0 表示关闭
}

// DefaultPipelineConfig 默认配置：批次 10 条，并发 10
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ChunkSize:        10,
		ConcurrencyLimit: 10,
		ProgressInterval: 5 * time.Second,
	}
}

// Chunk 一个提交单元
type Chunk struct {
	ID      int64
	Records []Record
}

// ChunkListener 批次执行前后的回调，会在多个 worker 协程中并发调用
type ChunkListener interface {
	BeforeChunk(chunk Chunk)
	AfterChunk(chunk Chunk, written int, err error)
}

// RunStats 运行统计快照
type RunStats struct {
	RunID            string
	State            State
	Read             int64
	Processed        int64
	Filtered         int64
	Written          int64
	Failed           int64
	ChunksDispatched int64
	ChunksCommitted  int64
	ChunksFailed     int64
	StartTime        time.Time
	Duration         time.Duration
}

type runCounters struct {
	read             atomic.Int64
	processed        atomic.Int64
	filtered         atomic.Int64
	written          atomic.Int64
	failed           atomic.Int64
	chunksDispatched atomic.Int64
	chunksCommitted  atomic.Int64
	chunksFailed     atomic.Int64
}

// Pipeline 分块执行引擎：顺序读取、按 ChunkSize 切分、并发执行 Processor + Writer
type Pipeline struct {
	reader    Reader
	processor Processor
	writer    Writer
	config    PipelineConfig
	logger    *logger.Logger
	listeners []ChunkListener
	runID     string

	state    atomic.Int32
	started  atomic.Bool
	counters runCounters

	mu        sync.Mutex
	firstErr  error
	startTime time.Time
	duration  time.Duration
}

// PipelineOption Pipeline 可选项
type PipelineOption func(*Pipeline)

// WithProcessor 设置 Processor，默认 Identity
func WithProcessor(p Processor) PipelineOption {
	return func(pl *Pipeline) {
		if p != nil {
			pl.processor = p
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(l *logger.Logger) PipelineOption {
	return func(pl *Pipeline) {
		if l != nil {
			pl.logger = l
		}
	}
}

// WithChunkListener 追加批次回调
func WithChunkListener(l ChunkListener) PipelineOption {
	return func(pl *Pipeline) {
		pl.listeners = append(pl.listeners, l)
	}
}

// WithRunID 指定运行 ID，默认生成 UUID
func WithRunID(id string) PipelineOption {
	return func(pl *Pipeline) {
		if id != "" {
			pl.runID = id
		}
	}
}

// NewPipeline 创建新的分块执行管道
func NewPipeline(reader Reader, writer Writer, config PipelineConfig, opts ...PipelineOption) *Pipeline {
	if config.ChunkSize < 1 {
		config.ChunkSize = 1
	}
	if config.ConcurrencyLimit < 1 {
		config.ConcurrencyLimit = 1
	}

	p := &Pipeline{
		reader:    reader,
		processor: Identity,
		writer:    writer,
		config:    config,
		logger:    logger.Discard(),
		runID:     uuid.NewString(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("run_id", p.runID)
	return p
}

// RunID 返回运行 ID
func (p *Pipeline) RunID() string {
	return p.runID
}

// State 返回当前状态
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
}

// Run 执行任务直到读取完毕或失败。
// 失败时返回首个错误以及截至失败时的统计；Run 只能调用一次
func (p *Pipeline) Run(ctx context.Context) (RunStats, error) {
	if !p.started.CompareAndSwap(false, true) {
		return p.Stats(), ErrAlreadyRun
	}
	defer p.reader.Close()

	p.mu.Lock()
	p.startTime = time.Now()
	p.mu.Unlock()

	p.logger.Info("启动分块管道: 批次大小 %d, 并发上限 %d", p.config.ChunkSize, p.config.ConcurrencyLimit)

	// runCtx 只控制是否继续派发，已派发的批次不受影响
	runCtx, abort := context.WithCancel(ctx)
	defer abort()

	pool := NewPool(p.config.ConcurrencyLimit)
	stopProgress := p.startProgress(runCtx)

	p.readLoop(ctx, runCtx, abort, pool)

	p.setState(StateDraining)
	p.logger.Debug("读取结束，等待 %d 个进行中的批次完成", pool.Active())
	pool.Wait()
	stopProgress()

	p.mu.Lock()
	p.duration = time.Since(p.startTime)
	p.mu.Unlock()

	if err := p.err(); err != nil {
		p.setState(StateFailed)
		stats := p.Stats()
		p.logger.Error("任务失败: 错误类型 %s, 已读取 %d, 已写入 %d, 失败 %d, 错误 %v",
			Kind(err), stats.Read, stats.Written, stats.Failed, err)
		return stats, err
	}

	p.setState(StateDone)
	stats := p.Stats()
	p.logger.Info("任务完成: 总耗时 %v, 读取 %d, 写入 %d, 过滤 %d, 批次 %d",
		stats.Duration.Round(time.Millisecond), stats.Read, stats.Written, stats.Filtered, stats.ChunksCommitted)
	return stats, nil
}

// readLoop 单协程顺序读取并切分批次，是批次边界的唯一决定者
func (p *Pipeline) readLoop(ctx, runCtx context.Context, abort context.CancelFunc, pool *Pool) {
	p.setState(StateReading)

	var chunkID int64
	buf := make([]Record, 0, p.config.ChunkSize)

	dispatch := func() bool {
		chunkID++
		chunk := Chunk{ID: chunkID, Records: buf}
		buf = make([]Record, 0, p.config.ChunkSize)

		p.setState(StateDispatching)
		defer p.setState(StateReading)

		// 批次内的写入不随运行取消而中断
		taskCtx := context.WithoutCancel(ctx)
		err := pool.Submit(runCtx, func() { p.runChunk(taskCtx, chunk, abort) })
		if err != nil {
			p.recordErr(err)
			return false
		}
		p.counters.chunksDispatched.Add(1)
		p.logger.Debug("派发批次 %d, 记录数 %d", chunk.ID, len(chunk.Records))
		return true
	}

	for {
		if err := runCtx.Err(); err != nil {
			// 批次失败时 firstErr 已记录，这里只会补上调用方的取消
			p.recordErr(err)
			return
		}

		rec, err := p.reader.Read(runCtx)
		if errors.Is(err, io.EOF) {
			if len(buf) > 0 {
				dispatch()
			}
			return
		}
		if err != nil {
			// 未派发的半个批次直接丢弃
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				p.counters.failed.Add(1)
			}
			p.recordErr(err)
			abort()
			return
		}

		p.counters.read.Add(1)
		buf = append(buf, rec)
		if len(buf) == p.config.ChunkSize && !dispatch() {
			return
		}
	}
}

// runChunk 在 worker 中执行一个批次，遇到错误立即停止该批次剩余记录
func (p *Pipeline) runChunk(ctx context.Context, chunk Chunk, abort context.CancelFunc) {
	var (
		written int
		err     error
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("批次 %d 执行异常: %v", chunk.ID, r)
		}
		for _, l := range p.listeners {
			l.AfterChunk(chunk, written, err)
		}
		if err != nil {
			p.counters.failed.Add(1)
			p.counters.chunksFailed.Add(1)
			p.recordErr(err)
			abort()
			p.logger.Error("批次 %d 失败: 已写入 %d/%d, 错误 %v", chunk.ID, written, len(chunk.Records), err)
			return
		}
		p.counters.chunksCommitted.Add(1)
		p.logger.Debug("批次 %d 完成, 写入 %d/%d", chunk.ID, written, len(chunk.Records))
	}()

	for _, l := range p.listeners {
		l.BeforeChunk(chunk)
	}

	for _, rec := range chunk.Records {
		out, keep, perr := p.processor.Process(ctx, rec)
		if perr != nil {
			err = &ProcessError{ChunkID: chunk.ID, RecordID: rec.ID, Cause: perr}
			return
		}
		p.counters.processed.Add(1)
		if !keep {
			p.counters.filtered.Add(1)
			continue
		}

		if serr := p.writer.Save(ctx, out); serr != nil {
			var sinkErr *SinkError
			if errors.As(serr, &sinkErr) {
				err = serr
			} else {
				err = &SinkError{ChunkID: chunk.ID, RecordID: out.ID, Cause: serr}
			}
			return
		}
		p.counters.written.Add(1)
		written++
	}
}

// recordErr 只保留第一个错误，之后的错误仅记录日志
func (p *Pipeline) recordErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.firstErr == nil {
		p.firstErr = err
		return
	}
	if err != p.firstErr && !errors.Is(err, context.Canceled) {
		p.logger.Warn("忽略后续错误: %v", err)
	}
}

func (p *Pipeline) err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.firstErr
}

// Stats 返回统计快照，运行中也可以调用
func (p *Pipeline) Stats() RunStats {
	p.mu.Lock()
	start, duration := p.startTime, p.duration
	p.mu.Unlock()

	state := p.State()
	if !start.IsZero() && state != StateDone && state != StateFailed {
		duration = time.Since(start)
	}

	return RunStats{
		RunID:            p.runID,
		State:            state,
		Read:             p.counters.read.Load(),
		Processed:        p.counters.processed.Load(),
		Filtered:         p.counters.filtered.Load(),
		Written:          p.counters.written.Load(),
		Failed:           p.counters.failed.Load(),
		ChunksDispatched: p.counters.chunksDispatched.Load(),
		ChunksCommitted:  p.counters.chunksCommitted.Load(),
		ChunksFailed:     p.counters.chunksFailed.Load(),
		StartTime:        start,
		Duration:         duration,
	}
}

// startProgress 启动进度监控协程，返回停止函数
func (p *Pipeline) startProgress(ctx context.Context) func() {
	if p.config.ProgressInterval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(p.config.ProgressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.logProgress()
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}

// logProgress 输出进度
func (p *Pipeline) logProgress() {
	stats := p.Stats()
	speed := 0.0
	if secs := stats.Duration.Seconds(); secs > 0 {
		speed = float64(stats.Written) / secs
	}
	p.logger.Info("导入进度: 状态 %s, 已读取 %d, 已写入 %d, 已过滤 %d, 批次 %d/%d, 速度 %.2f 条/秒, 已用时间 %v",
		stats.State, stats.Read, stats.Written, stats.Filtered,
		stats.ChunksCommitted, stats.ChunksDispatched, speed, stats.Duration.Round(time.Second))
}
