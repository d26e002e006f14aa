package plugin

import (
	"csvbatch/internal/core"
	"csvbatch/internal/pkg/logger"
	"csvbatch/internal/plugin/processor/filter"
	"csvbatch/internal/plugin/reader/csvfile"
	"csvbatch/internal/plugin/writer/mongodb"
	"csvbatch/internal/plugin/writer/mysql"
	"csvbatch/internal/plugin/writer/oracle"
	"csvbatch/internal/plugin/writer/postgresql"
	"csvbatch/internal/plugin/writer/sqlite"
)

// 内置插件名称
const (
	CSVReader        = "csvreader"
	IdentityFilter   = "identity"
	FieldFilter      = "fieldfilter"
	MySQLWriter      = "mysqlwriter"
	PostgreSQLWriter = "postgresqlwriter"
	OracleWriter     = "oraclewriter"
	SQLiteWriter     = "sqlitewriter"
	MongoDBWriter    = "mongodbwriter"
)

// Manager 插件管理器，把内置插件注册到指定的注册器
type Manager struct {
	registry *core.PluginRegistry
	logger   *logger.Logger
}

// NewManager 创建新的插件管理器，log 会传递给各个写入器
func NewManager(registry *core.PluginRegistry, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Discard()
	}
	return &Manager{
		registry: registry,
		logger:   log,
	}
}

// RegisterAll 注册所有内置插件
func (m *Manager) RegisterAll() {
	m.registry.RegisterReader(CSVReader, core.CreateReaderFactory(csvfile.NewReader))

	m.registry.RegisterProcessor(FieldFilter, core.CreateProcessorFactory(filter.NewFieldFilter))

	m.registry.RegisterWriter(MySQLWriter, core.CreateWriterFactory(func(p *mysql.Parameter) (core.Writer, error) {
		return mysql.NewMySQLWriter(p, m.writerLogger(MySQLWriter))
	}))
	m.registry.RegisterWriter(PostgreSQLWriter, core.CreateWriterFactory(func(p *postgresql.Parameter) (core.Writer, error) {
		return postgresql.NewPostgreSQLWriter(p, m.writerLogger(PostgreSQLWriter))
	}))
	m.registry.RegisterWriter(OracleWriter, core.CreateWriterFactory(func(p *oracle.Parameter) (core.Writer, error) {
		return oracle.NewOracleWriter(p, m.writerLogger(OracleWriter))
	}))
	m.registry.RegisterWriter(SQLiteWriter, core.CreateWriterFactory(func(p *sqlite.Parameter) (core.Writer, error) {
		return sqlite.NewSQLiteWriter(p, m.writerLogger(SQLiteWriter))
	}))
	m.registry.RegisterWriter(MongoDBWriter, core.CreateWriterFactory(func(p *mongodb.Parameter) (core.Writer, error) {
		return mongodb.NewMongoDBWriter(p, m.writerLogger(MongoDBWriter))
	}))
}

func (m *Manager) writerLogger(name string) *logger.Logger {
	return m.logger.With("plugin", name)
}

// SupportedPlugins 返回支持的插件列表
func SupportedPlugins() map[string][]string {
	return map[string][]string{
		"reader":    {CSVReader},
		"processor": {IdentityFilter, FieldFilter},
		"writer":    {MongoDBWriter, MySQLWriter, OracleWriter, PostgreSQLWriter, SQLiteWriter},
	}
}

// NewRegistry 创建已注册全部内置插件的注册器
func NewRegistry(log *logger.Logger) *core.PluginRegistry {
	registry := core.NewPluginRegistry()
	NewManager(registry, log).RegisterAll()
	return registry
}
