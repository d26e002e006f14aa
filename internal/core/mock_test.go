package core

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// 模拟的Reader，按顺序返回预置记录
type mockReader struct {
	records []Record
	pos     int
	readErr error // 读完 records 后返回该错误，为空时返回 io.EOF
	closed  atomic.Int32
}

func newMockReader(n int) *mockReader {
	return &mockReader{records: makeRecords(n)}
}

func (r *mockReader) Read(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if r.pos >= len(r.records) {
		if r.readErr != nil {
			return Record{}, r.readErr
		}
		return Record{}, io.EOF
	}
	rec := r.records[r.pos]
	r.pos++
	return rec, nil
}

func (r *mockReader) Close() error {
	r.closed.Add(1)
	return nil
}

// 模拟的Writer，记录每次保存并可按 ID 注入失败
type mockWriter struct {
	mu       sync.Mutex
	saved    []Record
	attempts []int64
	failOn   map[int64]error
	delay    time.Duration
	saves    atomic.Int64
}

func (w *mockWriter) Save(ctx context.Context, rec Record) error {
	if w.delay > 0 {
		time.Sleep(w.delay)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attempts = append(w.attempts, rec.ID)
	if err, ok := w.failOn[rec.ID]; ok {
		return err
	}
	w.saved = append(w.saved, rec)
	w.saves.Add(1)
	return nil
}

func (w *mockWriter) savedIDs() []int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]int64, len(w.saved))
	for i, rec := range w.saved {
		ids[i] = rec.ID
	}
	return ids
}

func (w *mockWriter) attemptedIDs() []int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]int64(nil), w.attempts...)
}

// 记录批次回调
type mockListener struct {
	mu     sync.Mutex
	sizes  map[int64]int
	errs   map[int64]error
	active atomic.Int64
	peak   atomic.Int64
	before atomic.Int64
	after  atomic.Int64
}

func newMockListener() *mockListener {
	return &mockListener{sizes: make(map[int64]int), errs: make(map[int64]error)}
}

func (l *mockListener) BeforeChunk(chunk Chunk) {
	l.before.Add(1)
	n := l.active.Add(1)
	for {
		peak := l.peak.Load()
		if n <= peak || l.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	l.mu.Lock()
	l.sizes[chunk.ID] = len(chunk.Records)
	l.mu.Unlock()
}

func (l *mockListener) AfterChunk(chunk Chunk, written int, err error) {
	l.after.Add(1)
	l.active.Add(-1)
	if err != nil {
		l.mu.Lock()
		l.errs[chunk.ID] = err
		l.mu.Unlock()
	}
}

func (l *mockListener) chunkSizes() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	sizes := make([]int, len(l.sizes))
	for id, n := range l.sizes {
		sizes[id-1] = n
	}
	return sizes
}

// makeRecords 生成 ID 从 1 开始的记录
func makeRecords(n int) []Record {
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{
			ID:        int64(i + 1),
			FirstName: fmt.Sprintf("first%d", i+1),
			LastName:  fmt.Sprintf("last%d", i+1),
			Email:     fmt.Sprintf("user%d@example.com", i+1),
			Country:   "United States",
		}
	}
	return records
}

// makeCSV 生成带表头的 CSV 文本
func makeCSV(rows int) string {
	var sb strings.Builder
	sb.WriteString("id,firstName,lastName,email,gender,contactNo,country,dob\n")
	for i := 1; i <= rows; i++ {
		fmt.Fprintf(&sb, "%d,first%d,last%d,user%d@example.com,Male,555-%04d,United States,1990-01-02\n", i, i, i, i, i)
	}
	return sb.String()
}

func newStringSource(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}
