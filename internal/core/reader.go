package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"
)

const maxLineSize = 1 << 20

// Reader 记录读取器。Read 在数据读完后返回 io.EOF
type Reader interface {
	Read(ctx context.Context) (Record, error)
	Close() error
}

// ReaderOptions 读取器配置，构造后不再修改
type ReaderOptions struct {
	HeaderSkip  int
	Delimiter   rune
	Columns     []string
	DateLayouts []string
	TrimSpace   bool
}

// DefaultReaderOptions 返回默认配置：跳过 1 行表头，逗号分隔
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		HeaderSkip: 1,
		Delimiter:  ',',
		Columns:    append([]string(nil), DefaultColumns...),
	}
}

// SourceReader 从分隔文本流中惰性读取记录。
// 读完、出错或被 Close 后都会释放底层资源，且不可重新开始
type SourceReader struct {
	rc         io.ReadCloser
	scanner    *bufio.Scanner
	tokenizer  *Tokenizer
	mapper     FieldSetMapper
	headerSkip int64

	lineNo    int64
	err       error // 读完后为 io.EOF，出错后为首个错误
	closeOnce sync.Once
	closeErr  error
}

// NewSourceReader 基于已打开的资源创建读取器，读取器接管 rc 的关闭
func NewSourceReader(rc io.ReadCloser, opts ReaderOptions) (*SourceReader, error) {
	if opts.HeaderSkip < 0 {
		return nil, fmt.Errorf("headerSkip 不能为负数: %d", opts.HeaderSkip)
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if len(opts.Columns) == 0 {
		opts.Columns = DefaultColumns
	}

	tokenizer, err := NewTokenizer(opts.Delimiter, opts.Columns, opts.TrimSpace)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &SourceReader{
		rc:         rc,
		scanner:    scanner,
		tokenizer:  tokenizer,
		mapper:     NewRecordMapper(opts.DateLayouts),
		headerSkip: int64(opts.HeaderSkip),
	}, nil
}

// ParseDelimiter 把配置中的分隔符字符串转为 rune，必须恰好一个字符
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return ',', nil
	case `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("分隔符必须是单个字符: %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// LineNumber 返回最后消费的物理行号
func (r *SourceReader) LineNumber() int64 {
	return r.lineNo
}

// Read 读取下一条记录
func (r *SourceReader) Read(ctx context.Context) (Record, error) {
	if r.err != nil {
		return Record{}, r.err
	}
	if err := ctx.Err(); err != nil {
		return Record{}, r.fail(err)
	}

	for r.scanner.Scan() {
		r.lineNo++
		line := strings.TrimSuffix(r.scanner.Text(), "\r")

		if r.lineNo <= r.headerSkip {
			continue
		}
		// 空行不视为记录
		if strings.TrimSpace(line) == "" {
			continue
		}

		fs, err := r.tokenizer.Tokenize(line)
		if err != nil {
			var malformed *MalformedLineError
			if errors.As(err, &malformed) {
				malformed.LineNumber = r.lineNo
			}
			return Record{}, r.fail(err)
		}

		rec, err := r.mapper.Map(fs)
		if err != nil {
			var mapping *MappingError
			if errors.As(err, &mapping) {
				mapping.LineNumber = r.lineNo
			}
			return Record{}, r.fail(err)
		}
		return rec, nil
	}

	if err := r.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return Record{}, r.fail(&MalformedLineError{LineNumber: r.lineNo + 1, Cause: err})
		}
		return Record{}, r.fail(fmt.Errorf("读取第 %d 行失败: %w", r.lineNo+1, err))
	}
	return Record{}, r.fail(io.EOF)
}

// fail 记录终止状态并立即释放资源
func (r *SourceReader) fail(err error) error {
	r.err = err
	r.Close()
	return err
}

// Close 释放底层资源，可重复调用
func (r *SourceReader) Close() error {
	r.closeOnce.Do(func() {
		if r.err == nil {
			r.err = ErrReaderClosed
		}
		r.closeErr = r.rc.Close()
	})
	return r.closeErr
}
