package mysql

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"csvbatch/internal/pkg/logger"
	"csvbatch/internal/plugin/common"
)

// Parameter MySQL写入器参数结构体
type Parameter struct {
	common.SQLParameter `mapstructure:",squash"`

	Username string `mapstructure:"username" json:"username" validate:"required"`
	Password string `mapstructure:"password" json:"password"`
	Host     string `mapstructure:"host" json:"host" validate:"required"`
	Port     int    `mapstructure:"port" json:"port" validate:"gte=1,lte=65535"`
	Database string `mapstructure:"database" json:"database" validate:"required"`
}

// ApplyDefaults 设置默认值
func (p *Parameter) ApplyDefaults() {
	p.SQLParameter.ApplyDefaults()
	p.Port = 3306
}

// DSN 生成连接字符串
func (p *Parameter) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = p.Username
	cfg.Passwd = p.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", p.Host, p.Port)
	cfg.DBName = p.Database
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Timeout = 10 * time.Second
	cfg.ReadTimeout = 30 * time.Second
	cfg.WriteTimeout = 30 * time.Second
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

func quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// BuildStatement 根据写入模式生成单行写入语句
func BuildStatement(table, mode string) (string, error) {
	columns := strings.Join(common.QuoteColumns(common.CustomerColumns, quote), ", ")
	values := common.Placeholders(len(common.CustomerColumns), func(int) string { return "?" })

	switch mode {
	case common.WriteModeInsert, "":
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quote(table), columns, values), nil
	case common.WriteModeReplace:
		return fmt.Sprintf("REPLACE INTO %s (%s) VALUES (%s)", quote(table), columns, values), nil
	case common.WriteModeUpsert:
		updates := make([]string, 0, len(common.CustomerColumns)-1)
		for _, c := range common.CustomerColumns[1:] {
			updates = append(updates, fmt.Sprintf("%s = VALUES(%s)", quote(c), quote(c)))
		}
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
			quote(table), columns, values, strings.Join(updates, ", ")), nil
	default:
		return "", fmt.Errorf("不支持的写入模式: %s", mode)
	}
}

// NewMySQLWriter 创建新的MySQL写入器实例
func NewMySQLWriter(p *Parameter, log *logger.Logger) (*common.SQLWriter, error) {
	stmt, err := BuildStatement(p.Table, p.WriteMode)
	if err != nil {
		return nil, err
	}
	return common.NewSQLWriter("MySQL", "mysql", p.DSN(), stmt, &p.SQLParameter, log), nil
}
