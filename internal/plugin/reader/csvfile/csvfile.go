package csvfile

import (
	"fmt"
	"os"

	"csvbatch/internal/core"
)

// Parameter CSV 文件读取器参数
type Parameter struct {
	Path        string   `mapstructure:"path" json:"path" validate:"required"`
	HeaderSkip  int      `mapstructure:"headerSkip" json:"headerSkip" validate:"gte=0"`
	Delimiter   string   `mapstructure:"delimiter" json:"delimiter"`
	Columns     []string `mapstructure:"columns" json:"columns"`
	DateLayouts []string `mapstructure:"dateLayouts" json:"dateLayouts"`
	TrimSpace   bool     `mapstructure:"trimSpace" json:"trimSpace"`
}

// ApplyDefaults 默认跳过 1 行表头
func (p *Parameter) ApplyDefaults() {
	p.HeaderSkip = 1
}

// Options 转换为 core.ReaderOptions
func (p *Parameter) Options() (core.ReaderOptions, error) {
	delimiter, err := core.ParseDelimiter(p.Delimiter)
	if err != nil {
		return core.ReaderOptions{}, err
	}
	opts := core.DefaultReaderOptions()
	opts.HeaderSkip = p.HeaderSkip
	opts.Delimiter = delimiter
	opts.TrimSpace = p.TrimSpace
	opts.DateLayouts = p.DateLayouts
	if len(p.Columns) > 0 {
		opts.Columns = p.Columns
	}
	return opts, nil
}

// NewReader 打开文件并创建读取器，文件由读取器负责关闭
func NewReader(p *Parameter) (*core.SourceReader, error) {
	opts, err := p.Options()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("打开文件失败: %w", err)
	}

	r, err := core.NewSourceReader(f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}
