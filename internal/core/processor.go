package core

import "context"

// Processor 单条记录的转换/过滤钩子。
// 返回 keep=false 表示该记录不进入 Writer。
// 有状态的实现在 ConcurrencyLimit > 1 时必须自行保证并发安全
type Processor interface {
	Process(ctx context.Context, rec Record) (out Record, keep bool, err error)
}

// ProcessorFunc 函数适配器
type ProcessorFunc func(ctx context.Context, rec Record) (Record, bool, error)

// Process 实现 Processor
func (f ProcessorFunc) Process(ctx context.Context, rec Record) (Record, bool, error) {
	return f(ctx, rec)
}

// Identity 原样透传
var Identity Processor = ProcessorFunc(func(_ context.Context, rec Record) (Record, bool, error) {
	return rec, true, nil
})

// Chain 依次执行多个 Processor，任意一个过滤或出错即停止
func Chain(processors ...Processor) Processor {
	if len(processors) == 0 {
		return Identity
	}
	if len(processors) == 1 {
		return processors[0]
	}
	return ProcessorFunc(func(ctx context.Context, rec Record) (Record, bool, error) {
		for _, p := range processors {
			var (
				keep bool
				err  error
			)
			rec, keep, err = p.Process(ctx, rec)
			if err != nil || !keep {
				return rec, keep, err
			}
		}
		return rec, true, nil
	})
}
