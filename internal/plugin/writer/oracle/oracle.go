package oracle

import (
	"fmt"
	"strings"

	go_ora "github.com/sijms/go-ora/v2"

	"csvbatch/internal/pkg/logger"
	"csvbatch/internal/plugin/common"
)

// Parameter Oracle写入器参数结构体
type Parameter struct {
	common.SQLParameter `mapstructure:",squash"`

	Username string `mapstructure:"username" json:"username" validate:"required"`
	Password string `mapstructure:"password" json:"password"`
	Host     string `mapstructure:"host" json:"host" validate:"required"`
	Port     int    `mapstructure:"port" json:"port" validate:"gte=1,lte=65535"`
	Service  string `mapstructure:"service" json:"service" validate:"required"`
	Schema   string `mapstructure:"schema" json:"schema"`
}

// ApplyDefaults 设置默认值
func (p *Parameter) ApplyDefaults() {
	p.SQLParameter.ApplyDefaults()
	p.Port = 1521
}

// DSN 生成连接字符串
func (p *Parameter) DSN() string {
	return go_ora.BuildUrl(p.Host, p.Port, p.Service, p.Username, p.Password, nil)
}

// 未加引号的标识符按大写处理
func quote(name string) string {
	return `"` + strings.ToUpper(strings.ReplaceAll(name, `"`, `""`)) + `"`
}

func placeholder(i int) string {
	return fmt.Sprintf(":%d", i)
}

// BuildStatement 根据写入模式生成单行写入语句，replace 与 upsert 使用 MERGE
func BuildStatement(schema, table, mode string) (string, error) {
	target := quote(table)
	if schema != "" {
		target = quote(schema) + "." + target
	}
	cols := common.QuoteColumns(common.CustomerColumns, quote)

	switch mode {
	case common.WriteModeInsert, "":
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", target, strings.Join(cols, ", "),
			common.Placeholders(len(cols), placeholder)), nil
	case common.WriteModeReplace, common.WriteModeUpsert:
		selects := make([]string, len(cols))
		srcCols := make([]string, len(cols))
		for i, c := range cols {
			selects[i] = fmt.Sprintf("%s AS %s", placeholder(i+1), c)
			srcCols[i] = "s." + c
		}
		updates := make([]string, 0, len(cols)-1)
		for _, c := range cols[1:] {
			updates = append(updates, fmt.Sprintf("t.%s = s.%s", c, c))
		}
		return fmt.Sprintf("MERGE INTO %s t USING (SELECT %s FROM dual) s ON (t.%s = s.%s) "+
			"WHEN MATCHED THEN UPDATE SET %s "+
			"WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s)",
			target, strings.Join(selects, ", "), cols[0], cols[0],
			strings.Join(updates, ", "),
			strings.Join(cols, ", "), strings.Join(srcCols, ", ")), nil
	default:
		return "", fmt.Errorf("不支持的写入模式: %s", mode)
	}
}

// NewOracleWriter 创建新的Oracle写入器实例
func NewOracleWriter(p *Parameter, log *logger.Logger) (*common.SQLWriter, error) {
	stmt, err := BuildStatement(p.Schema, p.Table, p.WriteMode)
	if err != nil {
		return nil, err
	}
	return common.NewSQLWriter("Oracle", "oracle", p.DSN(), stmt, &p.SQLParameter, log), nil
}
