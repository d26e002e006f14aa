package core

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Pool 有界并发执行池，同一时刻最多运行 limit 个任务。
// 槽位占满时 Submit 阻塞，任务之间不保证完成顺序
type Pool struct {
	sem   *semaphore.Weighted
	limit int64
	wg    sync.WaitGroup

	active atomic.Int64
	peak   atomic.Int64
}

// NewPool 创建执行池，limit 小于 1 时按 1 处理
func NewPool(limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{
		sem:   semaphore.NewWeighted(int64(limit)),
		limit: int64(limit),
	}
}

// Submit 提交任务，等待空闲槽位。ctx 取消时返回 ctx 的错误且任务不会执行
func (p *Pool) Submit(ctx context.Context, task func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	// 等待期间 ctx 可能已被取消
	if err := ctx.Err(); err != nil {
		p.sem.Release(1)
		return err
	}

	p.wg.Add(1)
	n := p.active.Add(1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	go func() {
		defer func() {
			p.active.Add(-1)
			p.sem.Release(1)
			p.wg.Done()
		}()
		task()
	}()
	return nil
}

// Wait 等待所有已提交的任务结束
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Limit 返回并发上限
func (p *Pool) Limit() int {
	return int(p.limit)
}

// Active 返回正在运行的任务数
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// Peak 返回运行过程中同时运行任务数的峰值
func (p *Pool) Peak() int {
	return int(p.peak.Load())
}
