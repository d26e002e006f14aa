package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"csvbatch/internal/pkg/logger"
	"csvbatch/internal/plugin/common"
)

// Parameter SQLite写入器参数结构体
type Parameter struct {
	common.SQLParameter `mapstructure:",squash"`

	Path          string `mapstructure:"path" json:"path" validate:"required"`
	BusyTimeoutMs int    `mapstructure:"busyTimeoutMs" json:"busyTimeoutMs" validate:"gte=0"`
	CreateTable   bool   `mapstructure:"createTable" json:"createTable"`
}

// ApplyDefaults 设置默认值。SQLite 同一时刻只允许一个写连接
func (p *Parameter) ApplyDefaults() {
	p.SQLParameter.ApplyDefaults()
	p.MaxOpenConns = 1
	p.MaxIdleConns = 1
	p.BusyTimeoutMs = 5000
	p.CreateTable = true
}

// DSN 生成连接字符串
func (p *Parameter) DSN() string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", p.BusyTimeoutMs))
	q.Add("_pragma", "journal_mode(WAL)")
	return "file:" + p.Path + "?" + q.Encode()
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// BuildStatement 根据写入模式生成单行写入语句
func BuildStatement(table, mode string) (string, error) {
	columns := strings.Join(common.QuoteColumns(common.CustomerColumns, quote), ", ")
	values := common.Placeholders(len(common.CustomerColumns), func(int) string { return "?" })

	switch mode {
	case common.WriteModeInsert, "":
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quote(table), columns, values), nil
	case common.WriteModeReplace:
		return fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)", quote(table), columns, values), nil
	case common.WriteModeUpsert:
		updates := make([]string, 0, len(common.CustomerColumns)-1)
		for _, c := range common.CustomerColumns[1:] {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", quote(c), quote(c)))
		}
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(%s) DO UPDATE SET %s",
			quote(table), columns, values, quote(common.CustomerColumns[0]), strings.Join(updates, ", ")), nil
	default:
		return "", fmt.Errorf("不支持的写入模式: %s", mode)
	}
}

// CreateTableSQL 目标表的建表语句
func CreateTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id INTEGER PRIMARY KEY,
	first_name TEXT,
	last_name TEXT,
	email TEXT,
	gender TEXT,
	contact_no TEXT,
	country TEXT,
	dob DATE
)`, quote(table))
}

// Writer SQLite写入器
type Writer struct {
	*common.SQLWriter
	param *Parameter
}

// NewSQLiteWriter 创建新的SQLite写入器实例
func NewSQLiteWriter(p *Parameter, log *logger.Logger) (*Writer, error) {
	stmt, err := BuildStatement(p.Table, p.WriteMode)
	if err != nil {
		return nil, err
	}
	return &Writer{
		SQLWriter: common.NewSQLWriter("SQLite", "sqlite", p.DSN(), stmt, &p.SQLParameter, log),
		param:     p,
	}, nil
}

// Connect 创建数据库目录并连接，按需建表
func (w *Writer) Connect(ctx context.Context) error {
	if dir := filepath.Dir(w.param.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}
	if err := w.SQLWriter.Connect(ctx); err != nil {
		return err
	}
	if w.param.CreateTable {
		if _, err := w.DB.ExecContext(ctx, CreateTableSQL(w.param.Table)); err != nil {
			w.SQLWriter.Close()
			return fmt.Errorf("创建表 %s 失败: %w", w.param.Table, err)
		}
	}
	return nil
}
