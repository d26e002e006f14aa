package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewTokenizer_InvalidDelimiter(t *testing.T) {
	for _, d := range []rune{'"', '\n', '\r'} {
		if _, err := NewTokenizer(d, DefaultColumns, false); err == nil {
			t.Errorf("NewTokenizer(%q) should fail", d)
		}
	}
	if _, err := NewTokenizer(',', nil, false); err == nil {
		t.Error("NewTokenizer with empty names should fail")
	}
}

func TestTokenizer_Tokenize(t *testing.T) {
	names := []string{"a", "b", "c"}

	tests := []struct {
		name      string
		delimiter rune
		trimSpace bool
		line      string
		want      []string
	}{
		{"普通行", ',', false, "1,2,3", []string{"1", "2", "3"}},
		{"列数不足补空", ',', false, "1,2", []string{"1", "2", ""}},
		{"只有一列", ',', false, "1", []string{"1", "", ""}},
		{"多余列丢弃", ',', false, "1,2,3,4,5", []string{"1", "2", "3"}},
		{"空字段", ',', false, ",,", []string{"", "", ""}},
		{"引号包含分隔符", ',', false, `1,"Smith, John",3`, []string{"1", "Smith, John", "3"}},
		{"引号转义", ',', false, `"say ""hi""",2,3`, []string{`say "hi"`, "2", "3"}},
		{"字段中间的引号原样保留", ',', false, `ab"c,2,3`, []string{`ab"c`, "2", "3"}},
		{"闭合引号后允许空白", ',', false, `"x"  ,2,3`, []string{"x", "2", "3"}},
		{"保留空白", ',', false, " 1 , 2 ,3", []string{" 1 ", " 2 ", "3"}},
		{"去除空白", ',', true, " 1 , 2 ,3", []string{"1", "2", "3"}},
		{"引号内空白不去除", ',', true, `" 1 ",2,3`, []string{" 1 ", "2", "3"}},
		{"分号分隔", ';', false, "1;2;3", []string{"1", "2", "3"}},
		{"制表符分隔", '\t', false, "1\t2\t3", []string{"1", "2", "3"}},
		{"多字节字符", ',', false, "张三,李四,王五", []string{"张三", "李四", "王五"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := NewTokenizer(tt.delimiter, names, tt.trimSpace)
			if err != nil {
				t.Fatalf("NewTokenizer failed: %v", err)
			}
			fs, err := tok.Tokenize(tt.line)
			if err != nil {
				t.Fatalf("Tokenize(%q) failed: %v", tt.line, err)
			}
			if !reflect.DeepEqual(fs.Values(), tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.line, fs.Values(), tt.want)
			}
			if fs.Len() != len(names) {
				t.Errorf("Expected %d fields, got %d", len(names), fs.Len())
			}
		})
	}
}

func TestTokenizer_Malformed(t *testing.T) {
	tok, err := NewTokenizer(',', DefaultColumns, false)
	if err != nil {
		t.Fatalf("NewTokenizer failed: %v", err)
	}

	tests := []struct {
		line  string
		cause error
	}{
		{`1,"unterminated,3`, ErrUnterminatedQuote},
		{`"abc"def,2`, ErrTextAfterQuote},
	}

	for _, tt := range tests {
		_, err := tok.Tokenize(tt.line)
		var malformed *MalformedLineError
		if !errors.As(err, &malformed) {
			t.Errorf("Tokenize(%q) should return MalformedLineError, got %v", tt.line, err)
			continue
		}
		if !errors.Is(err, tt.cause) {
			t.Errorf("Tokenize(%q) cause = %v, want %v", tt.line, malformed.Cause, tt.cause)
		}
		if malformed.Line != tt.line {
			t.Errorf("Expected line %q, got %q", tt.line, malformed.Line)
		}
	}
}

func TestFieldSet_Get(t *testing.T) {
	fs := NewFieldSet([]string{"id", "email"}, []string{"7"})

	if v, ok := fs.Get("id"); !ok || v != "7" {
		t.Errorf("Get(id) = %q, %v", v, ok)
	}
	if v, ok := fs.Get("email"); !ok || v != "" {
		t.Errorf("Get(email) = %q, %v", v, ok)
	}
	if _, ok := fs.Get("missing"); ok {
		t.Error("Get(missing) should report false")
	}

	m := fs.Map()
	if len(m) != 2 || m["id"] != "7" {
		t.Errorf("Unexpected map: %v", m)
	}
}
