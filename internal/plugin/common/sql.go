package common

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"csvbatch/internal/core"
	"csvbatch/internal/pkg/logger"
)

// 写入模式
const (
	WriteModeInsert  = "insert"
	WriteModeReplace = "replace"
	WriteModeUpsert  = "upsert"
)

// CustomerColumns 目标表的列，与 RecordArgs 的顺序一致
var CustomerColumns = []string{"id", "first_name", "last_name", "email", "gender", "contact_no", "country", "dob"}

// SQLParameter 关系型数据库写入器的公共参数
type SQLParameter struct {
	Table           string        `mapstructure:"table" json:"table" validate:"required"`
	WriteMode       string        `mapstructure:"writeMode" json:"writeMode" validate:"oneof=insert replace upsert"`
	PreSQL          []string      `mapstructure:"preSql" json:"preSql"`   // 写入前执行的SQL
	PostSQL         []string      `mapstructure:"postSql" json:"postSql"` // 写入后执行的SQL
	MaxOpenConns    int           `mapstructure:"maxOpenConns" json:"maxOpenConns" validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns" json:"maxIdleConns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime" json:"connMaxLifetime"`
}

// ApplyDefaults 默认写入模式为 insert，连接池与默认并发数匹配
func (p *SQLParameter) ApplyDefaults() {
	p.WriteMode = WriteModeInsert
	p.MaxOpenConns = 10
	p.MaxIdleConns = 10
	p.ConnMaxLifetime = time.Hour
}

// RecordArgs 按 CustomerColumns 的顺序返回 SQL 参数，零值日期写入 NULL
func RecordArgs(rec core.Record) []any {
	var dob any
	if !rec.DOB.IsZero() {
		dob = rec.DOB
	}
	return []any{rec.ID, rec.FirstName, rec.LastName, rec.Email, rec.Gender, rec.ContactNo, rec.Country, dob}
}

// QuoteColumns 对列名逐个加引号
func QuoteColumns(columns []string, quote func(string) string) []string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quote(c)
	}
	return quoted
}

// Placeholders 生成 n 个占位符，placeholder 的参数从 1 开始
func Placeholders(n int, placeholder func(i int) string) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = placeholder(i + 1)
	}
	return strings.Join(ps, ", ")
}

// SQLWriter 基于 database/sql 的写入器，每条记录执行一次预先生成的语句。
// *sql.DB 自带连接池，可被多个批次协程并发使用
type SQLWriter struct {
	name      string
	driver    string
	dsn       string
	statement string
	param     *SQLParameter
	logger    *logger.Logger

	DB *sql.DB
}

// NewSQLWriter 创建写入器，statement 的参数顺序必须与 CustomerColumns 一致
func NewSQLWriter(name, driver, dsn, statement string, param *SQLParameter, log *logger.Logger) *SQLWriter {
	if log == nil {
		log = logger.Discard()
	}
	return &SQLWriter{
		name:      name,
		driver:    driver,
		dsn:       dsn,
		statement: statement,
		param:     param,
		logger:    log,
	}
}

// Statement 返回写入语句
func (w *SQLWriter) Statement() string {
	return w.statement
}

// Connect 打开连接池并测试连接
func (w *SQLWriter) Connect(ctx context.Context) error {
	db, err := sql.Open(w.driver, w.dsn)
	if err != nil {
		return fmt.Errorf("连接%s失败: %w", w.name, err)
	}

	if w.param.MaxOpenConns > 0 {
		db.SetMaxOpenConns(w.param.MaxOpenConns)
	}
	if w.param.MaxIdleConns > 0 {
		db.SetMaxIdleConns(w.param.MaxIdleConns)
	}
	if w.param.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(w.param.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return fmt.Errorf("ping %s失败: %w", w.name, err)
	}

	w.DB = db
	w.logger.Debug("%s 连接成功, 写入语句: %s", w.name, w.statement)
	return nil
}

// Save 写入一条记录
func (w *SQLWriter) Save(ctx context.Context, rec core.Record) error {
	if w.DB == nil {
		return fmt.Errorf("数据库连接未初始化")
	}
	if _, err := w.DB.ExecContext(ctx, w.statement, RecordArgs(rec)...); err != nil {
		return fmt.Errorf("执行SQL失败: %w", err)
	}
	return nil
}

// PreProcess 执行写入前的SQL语句
func (w *SQLWriter) PreProcess(ctx context.Context) error {
	return w.execStatements(ctx, "预处理", w.param.PreSQL)
}

// PostProcess 执行写入后的SQL语句
func (w *SQLWriter) PostProcess(ctx context.Context) error {
	return w.execStatements(ctx, "后处理", w.param.PostSQL)
}

func (w *SQLWriter) execStatements(ctx context.Context, stage string, statements []string) error {
	if len(statements) == 0 {
		w.logger.Debug("没有配置%sSQL语句", stage)
		return nil
	}
	if w.DB == nil {
		return fmt.Errorf("数据库连接未初始化")
	}

	w.logger.Info("开始执行%sSQL语句（%d条）", stage, len(statements))
	for i, stmt := range statements {
		// SQL语句太长时截断显示
		display := stmt
		if len(display) > 100 {
			display = display[:97] + "..."
		}
		w.logger.Info("执行%sSQL[%d]: %s", stage, i+1, display)

		startTime := time.Now()
		result, err := w.DB.ExecContext(ctx, stmt)
		if err != nil {
			w.logger.Error("执行%sSQL[%d]失败: %v", stage, i+1, err)
			return fmt.Errorf("执行%sSQL失败: %w", stage, err)
		}
		rowsAffected, _ := result.RowsAffected()
		w.logger.Info("%sSQL[%d]执行成功, 影响行数: %d, 耗时: %v", stage, i+1, rowsAffected, time.Since(startTime))
	}
	return nil
}

// Close 关闭数据库连接
func (w *SQLWriter) Close() error {
	if w.DB == nil {
		return nil
	}
	w.logger.Debug("关闭%s数据库连接", w.name)
	err := w.DB.Close()
	w.DB = nil
	return err
}
