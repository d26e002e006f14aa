package core

import (
	"strconv"
	"time"
)

// DefaultColumns 默认的列顺序
var DefaultColumns = []string{"id", "firstName", "lastName", "email", "gender", "contactNo", "country", "dob"}

// FieldSet 一行数据按列名拆分后的结果，保持声明的列顺序
type FieldSet struct {
	names  []string
	values []string
}

// NewFieldSet 创建 FieldSet，values 不足的部分补空字符串，多余部分丢弃
func NewFieldSet(names, values []string) FieldSet {
	fs := FieldSet{
		names:  append([]string(nil), names...),
		values: make([]string, len(names)),
	}
	copy(fs.values, values)
	return fs
}

// Names 返回列名
func (fs FieldSet) Names() []string { return fs.names }

// Values 返回列值
func (fs FieldSet) Values() []string { return fs.values }

// Len 返回列数
func (fs FieldSet) Len() int { return len(fs.names) }

// Get 按列名取值
func (fs FieldSet) Get(name string) (string, bool) {
	for i, n := range fs.names {
		if n == name {
			return fs.values[i], true
		}
	}
	return "", false
}

// Map 转换为 map
func (fs FieldSet) Map() map[string]string {
	m := make(map[string]string, len(fs.names))
	for i, n := range fs.names {
		m[n] = fs.values[i]
	}
	return m
}

// Record 客户记录。id 的唯一性由下游 sink 负责
type Record struct {
	ID        int64     `field:"id" json:"id"`
	FirstName string    `field:"firstName" json:"firstName"`
	LastName  string    `field:"lastName" json:"lastName"`
	Email     string    `field:"email" json:"email"`
	Gender    string    `field:"gender" json:"gender"`
	ContactNo string    `field:"contactNo" json:"contactNo"`
	Country   string    `field:"country" json:"country"`
	DOB       time.Time `field:"dob" json:"dob"`
}

// Value 按列名返回字段的字符串形式
func (r Record) Value(column string) (string, bool) {
	switch column {
	case "id":
		return strconv.FormatInt(r.ID, 10), true
	case "firstName":
		return r.FirstName, true
	case "lastName":
		return r.LastName, true
	case "email":
		return r.Email, true
	case "gender":
		return r.Gender, true
	case "contactNo":
		return r.ContactNo, true
	case "country":
		return r.Country, true
	case "dob":
		if r.DOB.IsZero() {
			return "", true
		}
		return r.DOB.Format(time.DateOnly), true
	default:
		return "", false
	}
}
