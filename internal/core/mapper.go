package core

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// DefaultDateLayouts 日期字段默认尝试的格式
var DefaultDateLayouts = []string{time.DateOnly, "02-01-2006", "01/02/2006", "1/2/2006"}

var timeType = reflect.TypeOf(time.Time{})

// FieldSetMapper 把 FieldSet 绑定为 Record
type FieldSetMapper interface {
	Map(fs FieldSet) (Record, error)
}

// RecordMapper 根据 `field` 标签按列名绑定并做类型转换
type RecordMapper struct {
	layouts []string
	fields  map[string]int // 列名 -> 结构体字段下标
}

// NewRecordMapper 创建映射器，layouts 为空时使用 DefaultDateLayouts
func NewRecordMapper(layouts []string) *RecordMapper {
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	t := reflect.TypeOf(Record{})
	fields := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if name := t.Field(i).Tag.Get("field"); name != "" {
			fields[name] = i
		}
	}
	return &RecordMapper{
		layouts: append([]string(nil), layouts...),
		fields:  fields,
	}
}

// Map 绑定字段。空值保持零值；没有对应字段的列被忽略
func (m *RecordMapper) Map(fs FieldSet) (Record, error) {
	var rec Record
	rv := reflect.ValueOf(&rec).Elem()

	for i, name := range fs.names {
		idx, ok := m.fields[name]
		if !ok {
			continue
		}
		raw := fs.values[i]
		if err := m.set(rv.Field(idx), raw); err != nil {
			return Record{}, &MappingError{Field: name, Value: raw, Cause: err}
		}
	}
	return rec, nil
}

// set 字符串字段原样保存，去空格由 Tokenizer 的 trimSpace 负责；
// 其他类型先去掉首尾空白，空值保持零值
func (m *RecordMapper) set(f reflect.Value, raw string) error {
	if f.Kind() == reflect.String {
		f.SetString(raw)
		return nil
	}

	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	if f.Type() == timeType {
		t, err := m.parseTime(s)
		if err != nil {
			return err
		}
		f.Set(reflect.ValueOf(t))
		return nil
	}

	switch f.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(s, 10, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(s, 10, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetUint(v)
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(s, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetFloat(v)
	case reflect.Bool:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		f.SetBool(v)
	default:
		return fmt.Errorf("不支持的字段类型: %s", f.Type())
	}
	return nil
}

func (m *RecordMapper) parseTime(s string) (time.Time, error) {
	for _, layout := range m.layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("无法按格式 %s 解析日期", strings.Join(m.layouts, ", "))
}
