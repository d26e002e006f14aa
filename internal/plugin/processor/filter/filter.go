package filter

import (
	"context"
	"fmt"
	"strings"

	"csvbatch/internal/core"
)

// Parameter 字段过滤参数
type Parameter struct {
	Field      string `mapstructure:"field" json:"field" validate:"required"`
	Equals     string `mapstructure:"equals" json:"equals"`
	IgnoreCase bool   `mapstructure:"ignoreCase" json:"ignoreCase"`
}

// ApplyDefaults 默认只保留 country 为 United States 的记录
func (p *Parameter) ApplyDefaults() {
	p.Field = "country"
	p.Equals = "United States"
}

// FieldFilter 只放行指定字段等于目标值的记录，无状态，可并发使用
type FieldFilter struct {
	field      string
	equals     string
	ignoreCase bool
}

// NewFieldFilter 创建字段过滤器
func NewFieldFilter(p *Parameter) (*FieldFilter, error) {
	if _, ok := (core.Record{}).Value(p.Field); !ok {
		return nil, fmt.Errorf("不支持的过滤字段: %s，支持的字段: %s",
			p.Field, strings.Join(core.DefaultColumns, ", "))
	}
	return &FieldFilter{
		field:      p.Field,
		equals:     p.Equals,
		ignoreCase: p.IgnoreCase,
	}, nil
}

// Process 实现 core.Processor
func (f *FieldFilter) Process(_ context.Context, rec core.Record) (core.Record, bool, error) {
	v, _ := rec.Value(f.field)
	if f.ignoreCase {
		return rec, strings.EqualFold(v, f.equals), nil
	}
	return rec, v == f.equals, nil
}
