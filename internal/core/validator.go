package core

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct 按 validate 标签校验结构体，错误信息合并为一条
func ValidateStruct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("参数校验失败: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return fmt.Errorf("参数校验失败: %s", strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return field + " 不能为空"
	case "gte":
		return fmt.Sprintf("%s 必须大于等于 %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s 必须小于等于 %s", field, e.Param())
	case "len":
		return fmt.Sprintf("%s 长度必须为 %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s 必须是 [%s] 之一", field, e.Param())
	default:
		return fmt.Sprintf("%s 校验失败 (%s)", field, e.Tag())
	}
}

// ConfigValidator 配置验证器接口
type ConfigValidator interface {
	Validate() error
}

// JobConfigValidator 任务配置验证器
type JobConfigValidator struct {
	config   *JobConfig
	registry *PluginRegistry
}

// NewJobConfigValidator 创建新的任务配置验证器，registry 为空时不检查插件是否注册
func NewJobConfigValidator(config *JobConfig, registry *PluginRegistry) *JobConfigValidator {
	return &JobConfigValidator{
		config:   config,
		registry: registry,
	}
}

// Validate 验证任务配置
func (v *JobConfigValidator) Validate() error {
	if v.config == nil {
		return fmt.Errorf("配置不能为空")
	}

	if err := v.validateContent(); err != nil {
		return fmt.Errorf("内容配置验证失败: %w", err)
	}

	if err := ValidateStruct(v.config); err != nil {
		return fmt.Errorf("设置配置验证失败: %w", err)
	}

	return nil
}

// validateContent 验证 reader/processor/writer 配置
func (v *JobConfigValidator) validateContent() error {
	job := &v.config.Job

	if job.Reader.Name == "" {
		return fmt.Errorf("Reader名称不能为空")
	}
	if job.Writer.Name == "" {
		return fmt.Errorf("Writer名称不能为空")
	}
	if v.registry == nil {
		return nil
	}

	if !v.registry.HasReader(job.Reader.Name) {
		return fmt.Errorf("不支持的Reader类型: %s，支持的类型: %s",
			job.Reader.Name, strings.Join(v.registry.GetRegisteredReaders(), ", "))
	}
	if job.Processor.Name != "" && !v.registry.HasProcessor(job.Processor.Name) {
		return fmt.Errorf("不支持的Processor类型: %s，支持的类型: %s",
			job.Processor.Name, strings.Join(v.registry.GetRegisteredProcessors(), ", "))
	}
	if !v.registry.HasWriter(job.Writer.Name) {
		return fmt.Errorf("不支持的Writer类型: %s，支持的类型: %s",
			job.Writer.Name, strings.Join(v.registry.GetRegisteredWriters(), ", "))
	}
	return nil
}

// ValidateJobConfig 验证任务配置的便捷函数
func ValidateJobConfig(config *JobConfig, registry *PluginRegistry) error {
	return NewJobConfigValidator(config, registry).Validate()
}
