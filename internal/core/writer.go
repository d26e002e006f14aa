package core

import "context"

// Writer 数据写入器。Save 对 chunk 中的每条记录按顺序同步调用一次。
// 多个 chunk 并发写同一个目标时，由实现自己保证并发安全
type Writer interface {
	Save(ctx context.Context, rec Record) error
}

// WriterFunc 函数适配器
type WriterFunc func(ctx context.Context, rec Record) error

// Save 实现 Writer
func (f WriterFunc) Save(ctx context.Context, rec Record) error {
	return f(ctx, rec)
}

// Connector 需要建立连接的 Writer 可选实现
type Connector interface {
	Connect(ctx context.Context) error
	Close() error
}

// PrePostProcessor 写入前后需要执行额外操作的 Writer 可选实现
type PrePostProcessor interface {
	// PreProcess 写入前的预处理
	PreProcess(ctx context.Context) error
	// PostProcess 写入后的后处理，仅在任务成功时执行
	PostProcess(ctx context.Context) error
}
