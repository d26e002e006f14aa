package core

import (
	"strings"
	"testing"
)

func validJobConfig() *JobConfig {
	return &JobConfig{
		Job: JobSpec{
			Reader:  PluginConfig{Name: "test-reader"},
			Writer:  PluginConfig{Name: "test-writer"},
			Setting: DefaultPipelineConfig(),
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

func testRegistry() *PluginRegistry {
	registry := NewPluginRegistry()
	registry.RegisterReader("test-reader", func(any) (Reader, error) { return newMockReader(0), nil })
	registry.RegisterWriter("test-writer", func(any) (Writer, error) { return &mockWriter{}, nil })
	return registry
}

func TestJobConfigValidator_Validate_NilConfig(t *testing.T) {
	err := NewJobConfigValidator(nil, nil).Validate()
	if err == nil || err.Error() != "配置不能为空" {
		t.Errorf("Expected nil config error, got %v", err)
	}
}

func TestJobConfigValidator_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *JobConfig)
		wantErr string
	}{
		{"有效配置", func(c *JobConfig) {}, ""},
		{"Reader为空", func(c *JobConfig) { c.Job.Reader.Name = "" }, "Reader名称不能为空"},
		{"Writer为空", func(c *JobConfig) { c.Job.Writer.Name = "" }, "Writer名称不能为空"},
		{"未注册的Reader", func(c *JobConfig) { c.Job.Reader.Name = "ftpreader" }, "不支持的Reader类型: ftpreader"},
		{"未注册的Writer", func(c *JobConfig) { c.Job.Writer.Name = "kafkawriter" }, "支持的类型: test-writer"},
		{"未注册的Processor", func(c *JobConfig) { c.Job.Processor.Name = "upper" }, "不支持的Processor类型: upper"},
		{"identity处理器", func(c *JobConfig) { c.Job.Processor.Name = "identity" }, ""},
		{"批次大小为0", func(c *JobConfig) { c.Job.Setting.ChunkSize = 0 }, "ChunkSize 必须大于等于 1"},
		{"并发为0", func(c *JobConfig) { c.Job.Setting.ConcurrencyLimit = 0 }, "ConcurrencyLimit 必须大于等于 1"},
		{"进度间隔为负", func(c *JobConfig) { c.Job.Setting.ProgressInterval = -1 }, "ProgressInterval"},
		{"非法日志级别", func(c *JobConfig) { c.Log.Level = "verbose" }, "Level 必须是"},
		{"非法日志格式", func(c *JobConfig) { c.Log.Format = "xml" }, "Format 必须是"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validJobConfig()
			tt.modify(config)

			err := ValidateJobConfig(config, testRegistry())
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestJobConfigValidator_NoRegistry(t *testing.T) {
	config := validJobConfig()
	config.Job.Reader.Name = "anything"
	if err := ValidateJobConfig(config, nil); err != nil {
		t.Errorf("Without registry plugin names should not be checked, got %v", err)
	}
}
