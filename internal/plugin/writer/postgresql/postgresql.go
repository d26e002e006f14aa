package postgresql

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/lib/pq"

	"csvbatch/internal/pkg/logger"
	"csvbatch/internal/plugin/common"
)

// Parameter PostgreSQL写入器参数结构体
type Parameter struct {
	common.SQLParameter `mapstructure:",squash"`

	Username string `mapstructure:"username" json:"username" validate:"required"`
	Password string `mapstructure:"password" json:"password"`
	Host     string `mapstructure:"host" json:"host" validate:"required"`
	Port     int    `mapstructure:"port" json:"port" validate:"gte=1,lte=65535"`
	Database string `mapstructure:"database" json:"database" validate:"required"`
	Schema   string `mapstructure:"schema" json:"schema"`
	SSLMode  string `mapstructure:"sslMode" json:"sslMode" validate:"omitempty,oneof=disable require verify-ca verify-full"`
}

// ApplyDefaults 设置默认值
func (p *Parameter) ApplyDefaults() {
	p.SQLParameter.ApplyDefaults()
	p.Port = 5432
	p.Schema = "public"
	p.SSLMode = "disable"
}

// DSN 生成连接字符串
func (p *Parameter) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.Username, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:     "/" + p.Database,
		RawQuery: url.Values{"sslmode": {p.SSLMode}}.Encode(),
	}
	return u.String()
}

// BuildStatement 根据写入模式生成单行写入语句，replace 与 upsert 都使用 ON CONFLICT
func BuildStatement(schema, table, mode string) (string, error) {
	target := pq.QuoteIdentifier(table)
	if schema != "" {
		target = pq.QuoteIdentifier(schema) + "." + target
	}
	columns := strings.Join(common.QuoteColumns(common.CustomerColumns, pq.QuoteIdentifier), ", ")
	values := common.Placeholders(len(common.CustomerColumns), func(i int) string { return fmt.Sprintf("$%d", i) })
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", target, columns, values)

	switch mode {
	case common.WriteModeInsert, "":
		return insert, nil
	case common.WriteModeReplace, common.WriteModeUpsert:
		updates := make([]string, 0, len(common.CustomerColumns)-1)
		for _, c := range common.CustomerColumns[1:] {
			q := pq.QuoteIdentifier(c)
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", q, q))
		}
		return fmt.Sprintf("%s ON CONFLICT (%s) DO UPDATE SET %s",
			insert, pq.QuoteIdentifier(common.CustomerColumns[0]), strings.Join(updates, ", ")), nil
	default:
		return "", fmt.Errorf("不支持的写入模式: %s", mode)
	}
}

// NewPostgreSQLWriter 创建新的PostgreSQL写入器实例
func NewPostgreSQLWriter(p *Parameter, log *logger.Logger) (*common.SQLWriter, error) {
	stmt, err := BuildStatement(p.Schema, p.Table, p.WriteMode)
	if err != nil {
		return nil, err
	}
	return common.NewSQLWriter("PostgreSQL", "postgres", p.DSN(), stmt, &p.SQLParameter, log), nil
}
