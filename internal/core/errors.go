package core

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRun Pipeline 只允许运行一次
	ErrAlreadyRun = errors.New("pipeline 已经运行过，不能重复运行")
	// ErrReaderClosed 读取器已关闭
	ErrReaderClosed = errors.New("读取器已关闭")
	// ErrUnterminatedQuote 引号未闭合
	ErrUnterminatedQuote = errors.New("引号未闭合")
	// ErrTextAfterQuote 闭合引号后出现了非分隔符字符
	ErrTextAfterQuote = errors.New("闭合引号后存在多余字符")
)

// 错误分类，用于日志和统计
const (
	KindMalformedLine = "malformed_line"
	KindMapping       = "mapping"
	KindProcess       = "process"
	KindSink          = "sink"
	KindCanceled      = "canceled"
	KindUnknown       = "unknown"
)

// MalformedLineError 行无法被拆分
type MalformedLineError struct {
	LineNumber int64
	Line       string
	Cause      error
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("第 %d 行格式错误: %v", e.LineNumber, e.Cause)
}

func (e *MalformedLineError) Unwrap() error { return e.Cause }

// MappingError 字段类型转换失败
type MappingError struct {
	LineNumber int64
	Field      string
	Value      string
	Cause      error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("第 %d 行字段 %s 的值 %q 转换失败: %v", e.LineNumber, e.Field, e.Value, e.Cause)
}

func (e *MappingError) Unwrap() error { return e.Cause }

// ProcessError Processor 处理记录失败
type ProcessError struct {
	ChunkID  int64
	RecordID int64
	Cause    error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("批次 %d 处理记录 %d 失败: %v", e.ChunkID, e.RecordID, e.Cause)
}

func (e *ProcessError) Unwrap() error { return e.Cause }

// SinkError Writer 保存记录失败
type SinkError struct {
	ChunkID  int64
	RecordID int64
	Cause    error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("批次 %d 写入记录 %d 失败: %v", e.ChunkID, e.RecordID, e.Cause)
}

func (e *SinkError) Unwrap() error { return e.Cause }

// Kind 返回错误的分类名称，nil 返回空字符串
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var (
		malformed *MalformedLineError
		mapping   *MappingError
		sink      *SinkError
		process   *ProcessError
	)
	switch {
	case errors.As(err, &malformed):
		return KindMalformedLine
	case errors.As(err, &mapping):
		return KindMapping
	case errors.As(err, &sink):
		return KindSink
	case errors.As(err, &process):
		return KindProcess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindUnknown
	}
}
