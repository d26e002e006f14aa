package core

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量覆盖前缀，例如 CSVBATCH_JOB_SETTING_CHUNKSIZE=20
const EnvPrefix = "CSVBATCH"

// PluginConfig 插件配置
type PluginConfig struct {
	Name      string         `mapstructure:"name" json:"name"`
	Parameter map[string]any `mapstructure:"parameter" json:"parameter"`
}

// JobSpec 任务内容
type JobSpec struct {
	Reader    PluginConfig   `mapstructure:"reader" json:"reader"`
	Processor PluginConfig   `mapstructure:"processor" json:"processor"`
	Writer    PluginConfig   `mapstructure:"writer" json:"writer"`
	Setting   PipelineConfig `mapstructure:"setting" json:"setting"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `mapstructure:"format" json:"format" validate:"omitempty,oneof=console json"`
	File   string `mapstructure:"file" json:"file"`
}

// JobConfig 任务配置，加载完成后作为不可变值传入 Job
type JobConfig struct {
	Job JobSpec   `mapstructure:"job" json:"job"`
	Log LogConfig `mapstructure:"log" json:"log"`
}

// LoadOption 加载选项
type LoadOption func(*loadOptions)

type loadOptions struct {
	envFile string
}

// WithEnvFile 加载前先读取 .env 文件
func WithEnvFile(path string) LoadOption {
	return func(o *loadOptions) { o.envFile = path }
}

// LoadJobConfig 读取任务配置文件（JSON/YAML），环境变量可覆盖已有的键
func LoadJobConfig(path string, opts ...LoadOption) (*JobConfig, error) {
	var lo loadOptions
	for _, opt := range opts {
		opt(&lo)
	}

	if lo.envFile != "" {
		if err := godotenv.Load(lo.envFile); err != nil {
			return nil, fmt.Errorf("读取环境变量文件失败: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取任务配置文件失败: %w", err)
	}

	var cfg JobConfig
	if err := v.Unmarshal(&cfg, viper.DecodeHook(DecodeHook())); err != nil {
		return nil, fmt.Errorf("解析任务配置失败: %w", err)
	}
	return &cfg, nil
}

// DecodeHook 配置与插件参数共用的解码钩子
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

func setDefaults(v *viper.Viper) {
	def := DefaultPipelineConfig()
	v.SetDefault("job.setting.chunkSize", def.ChunkSize)
	v.SetDefault("job.setting.concurrencyLimit", def.ConcurrencyLimit)
	v.SetDefault("job.setting.progressInterval", def.ProgressInterval.String())
	v.SetDefault("job.processor.name", "identity")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}
