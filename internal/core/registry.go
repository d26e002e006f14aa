package core

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// ReaderFactory 根据参数创建 Reader
type ReaderFactory func(parameter any) (Reader, error)

// ProcessorFactory 根据参数创建 Processor
type ProcessorFactory func(parameter any) (Processor, error)

// WriterFactory 根据参数创建 Writer
type WriterFactory func(parameter any) (Writer, error)

// PluginRegistry 插件注册器，由调用方显式创建并传递
type PluginRegistry struct {
	readers    map[string]ReaderFactory
	processors map[string]ProcessorFactory
	writers    map[string]WriterFactory
	mutex      sync.RWMutex
}

// NewPluginRegistry 创建新的插件注册器，内置 identity processor
func NewPluginRegistry() *PluginRegistry {
	r := &PluginRegistry{
		readers:    make(map[string]ReaderFactory),
		processors: make(map[string]ProcessorFactory),
		writers:    make(map[string]WriterFactory),
	}
	r.processors["identity"] = func(any) (Processor, error) { return Identity, nil }
	return r
}

// RegisterReader 注册Reader插件
func (r *PluginRegistry) RegisterReader(name string, factory ReaderFactory) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.readers[name] = factory
}

// RegisterProcessor 注册Processor插件
func (r *PluginRegistry) RegisterProcessor(name string, factory ProcessorFactory) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.processors[name] = factory
}

// RegisterWriter 注册Writer插件
func (r *PluginRegistry) RegisterWriter(name string, factory WriterFactory) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.writers[name] = factory
}

// CreateReader 创建Reader实例
func (r *PluginRegistry) CreateReader(name string, parameter any) (Reader, error) {
	r.mutex.RLock()
	factory, exists := r.readers[name]
	r.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("未找到Reader插件: %s", name)
	}
	return factory(parameter)
}

// CreateProcessor 创建Processor实例，name 为空时返回 Identity
func (r *PluginRegistry) CreateProcessor(name string, parameter any) (Processor, error) {
	if name == "" {
		return Identity, nil
	}

	r.mutex.RLock()
	factory, exists := r.processors[name]
	r.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("未找到Processor插件: %s", name)
	}
	return factory(parameter)
}

// CreateWriter 创建Writer实例
func (r *PluginRegistry) CreateWriter(name string, parameter any) (Writer, error) {
	r.mutex.RLock()
	factory, exists := r.writers[name]
	r.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("未找到Writer插件: %s", name)
	}
	return factory(parameter)
}

// GetRegisteredReaders 获取已注册的Reader插件名称列表（已排序）
func (r *PluginRegistry) GetRegisteredReaders() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return sortedKeys(r.readers)
}

// GetRegisteredProcessors 获取已注册的Processor插件名称列表（已排序）
func (r *PluginRegistry) GetRegisteredProcessors() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return sortedKeys(r.processors)
}

// GetRegisteredWriters 获取已注册的Writer插件名称列表（已排序）
func (r *PluginRegistry) GetRegisteredWriters() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return sortedKeys(r.writers)
}

// HasReader 检查是否存在指定的Reader插件
func (r *PluginRegistry) HasReader(name string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	_, exists := r.readers[name]
	return exists
}

// HasProcessor 检查是否存在指定的Processor插件
func (r *PluginRegistry) HasProcessor(name string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	_, exists := r.processors[name]
	return exists
}

// HasWriter 检查是否存在指定的Writer插件
func (r *PluginRegistry) HasWriter(name string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	_, exists := r.writers[name]
	return exists
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defaulter 参数结构体可实现该接口，在解码前填充默认值
type Defaulter interface {
	ApplyDefaults()
}

// DecodeParameter 把配置中的参数解码到目标结构体并按 validate 标签校验
func DecodeParameter(parameter any, target any) error {
	if d, ok := target.(Defaulter); ok {
		d.ApplyDefaults()
	}

	if parameter != nil {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			DecodeHook:       DecodeHook(),
			WeaklyTypedInput: true,
			Result:           target,
		})
		if err != nil {
			return fmt.Errorf("创建参数解码器失败: %w", err)
		}
		if err := decoder.Decode(parameter); err != nil {
			return fmt.Errorf("参数解码失败: %w", err)
		}
	}

	return ValidateStruct(target)
}

// CreateReaderFactory 创建Reader工厂函数的辅助方法
func CreateReaderFactory[T any, R Reader](createFunc func(*T) (R, error)) ReaderFactory {
	return func(parameter any) (Reader, error) {
		var param T
		if err := DecodeParameter(parameter, &param); err != nil {
			return nil, err
		}
		v, err := createFunc(&param)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

// CreateProcessorFactory 创建Processor工厂函数的辅助方法
func CreateProcessorFactory[T any, P Processor](createFunc func(*T) (P, error)) ProcessorFactory {
	return func(parameter any) (Processor, error) {
		var param T
		if err := DecodeParameter(parameter, &param); err != nil {
			return nil, err
		}
		v, err := createFunc(&param)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

// CreateWriterFactory 创建Writer工厂函数的辅助方法
func CreateWriterFactory[T any, W Writer](createFunc func(*T) (W, error)) WriterFactory {
	return func(parameter any) (Writer, error) {
		var param T
		if err := DecodeParameter(parameter, &param); err != nil {
			return nil, err
		}
		v, err := createFunc(&param)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}
