package core

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const quoteChar = '"'

// Tokenizer 按分隔符把一行拆成具名字段。
// 宽松模式：列数不足时补空值，多余的列直接丢弃
type Tokenizer struct {
	delimiter rune
	names     []string
	trimSpace bool
}

// NewTokenizer 创建行拆分器
func NewTokenizer(delimiter rune, names []string, trimSpace bool) (*Tokenizer, error) {
	if delimiter == quoteChar || delimiter == '\n' || delimiter == '\r' || delimiter == utf8.RuneError {
		return nil, fmt.Errorf("不支持的分隔符: %q", delimiter)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("列名列表不能为空")
	}
	return &Tokenizer{
		delimiter: delimiter,
		names:     append([]string(nil), names...),
		trimSpace: trimSpace,
	}, nil
}

// Tokenize 拆分一行。只有引号结构无法解析时才返回 *MalformedLineError，
// 列数不符从不报错
func (t *Tokenizer) Tokenize(line string) (FieldSet, error) {
	tokens := make([]string, 0, len(t.names))

	var (
		sb         strings.Builder
		inQuotes   bool
		quoted     bool // 当前字段以引号开头
		afterQuote bool // 当前字段的闭合引号已出现
	)

	flush := func() {
		tok := sb.String()
		if t.trimSpace && !quoted {
			tok = strings.TrimSpace(tok)
		}
		tokens = append(tokens, tok)
		sb.Reset()
		quoted, afterQuote = false, false
	}

	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		i += size

		switch {
		case inQuotes:
			if r != quoteChar {
				sb.WriteRune(r)
				continue
			}
			// "" 转义为一个引号
			if i < len(line) && line[i] == quoteChar {
				sb.WriteRune(quoteChar)
				i++
				continue
			}
			inQuotes, afterQuote = false, true
		case r == t.delimiter:
			flush()
		case afterQuote:
			if !unicode.IsSpace(r) {
				return FieldSet{}, &MalformedLineError{Line: line, Cause: ErrTextAfterQuote}
			}
		case r == quoteChar && !quoted && strings.TrimSpace(sb.String()) == "":
			sb.Reset()
			inQuotes, quoted = true, true
		default:
			sb.WriteRune(r)
		}
	}

	if inQuotes {
		return FieldSet{}, &MalformedLineError{Line: line, Cause: ErrUnterminatedQuote}
	}
	flush()

	return NewFieldSet(t.names, tokens), nil
}
