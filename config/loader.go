package config

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/ceyewan/aegis/clog"
	"github.com/ceyewan/aegis/xerrors"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// loader Viper 实现（非导出）
type loader struct {
	v      *viper.Viper
	cfg    *Config
	logger clog.Logger

	mu        sync.Mutex
	loaded    bool
	watches   map[string][]chan Event
	oldValues map[string]any
}

// newLoader 创建加载器实例（内部函数）
func newLoader(cfg *Config, opt *options) *loader {
	logger := opt.logger
	if logger == nil {
		logger = clog.Discard()
	}

	return &loader{
		v:         viper.New(),
		cfg:       cfg,
		logger:    logger,
		watches:   make(map[string][]chan Event),
		oldValues: make(map[string]any),
	}
}

// Load 从所有来源加载配置并启动文件监听
func (l *loader) Load(ctx context.Context) error {
	l.v.SetConfigName(l.cfg.Name)
	l.v.SetConfigType(l.cfg.FileType)
	for _, path := range l.cfg.Paths {
		l.v.AddConfigPath(path)
	}

	// 环境变量优先级最高，先绑定
	l.v.SetEnvPrefix(l.cfg.EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	l.loadDotEnv()

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return xerrors.Wrapf(err, "config: read %s", l.cfg.Name)
		}
		l.logger.Debug("no configuration file found, using env only",
			clog.String("name", l.cfg.Name))
	} else {
		l.logger.Info("configuration loaded",
			clog.String("file", l.v.ConfigFileUsed()))
	}

	l.mu.Lock()
	l.loaded = true
	l.mu.Unlock()

	l.v.OnConfigChange(func(e fsnotify.Event) {
		l.logger.Info("configuration file changed",
			clog.String("file", e.Name))
		l.loadDotEnv()
		l.notifyWatches()
	})
	l.v.WatchConfig()

	return nil
}

// loadDotEnv 尽力加载工作目录与搜索路径下的 .env 文件
func (l *loader) loadDotEnv() {
	loaded := false
	if err := godotenv.Load(); err == nil {
		loaded = true
	}
	for _, path := range l.cfg.Paths {
		if err := godotenv.Load(filepath.Join(path, ".env")); err == nil {
			loaded = true
		}
	}
	if loaded {
		l.logger.Debug("dotenv files applied")
	}
}

// Get 获取原始配置值
func (l *loader) Get(key string) any {
	return l.v.Get(key)
}

// Unmarshal 将整个配置反序列化到结构体
//
// 字段按 yaml 标签匹配，时长字符串（"30s" 等）自动解析。
func (l *loader) Unmarshal(v any) error {
	l.mu.Lock()
	loaded := l.loaded
	l.mu.Unlock()
	if !loaded {
		return ErrNotLoaded
	}
	return l.v.Unmarshal(v, yamlTags)
}

// UnmarshalKey 将指定 key 的配置反序列化到结构体
func (l *loader) UnmarshalKey(key string, v any) error {
	l.mu.Lock()
	loaded := l.loaded
	l.mu.Unlock()
	if !loaded {
		return ErrNotLoaded
	}
	return l.v.UnmarshalKey(key, v, yamlTags)
}

// yamlTags 组件 Config 结构体统一携带 yaml 标签，反序列化沿用
func yamlTags(dc *mapstructure.DecoderConfig) {
	dc.TagName = "yaml"
}

// Watch 订阅指定 key 的变更，通过 ctx 取消订阅
func (l *loader) Watch(ctx context.Context, key string) (<-chan Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch := make(chan Event, 8)
	l.watches[key] = append(l.watches[key], ch)
	l.oldValues[key] = l.v.Get(key)

	go func() {
		<-ctx.Done()
		l.removeWatch(key, ch)
	}()

	return ch, nil
}

// removeWatch 注销并关闭监听通道
func (l *loader) removeWatch(key string, ch chan Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	chans := l.watches[key]
	for i, c := range chans {
		if c == ch {
			l.watches[key] = append(chans[:i], chans[i+1:]...)
			close(ch)
			break
		}
	}
	if len(l.watches[key]) == 0 {
		delete(l.watches, key)
		delete(l.oldValues, key)
	}
}

// notifyWatches 对值发生变化的 key 广播事件
//
// 通道写满时丢弃事件，监听方取走旧事件后会收到后续变更。
func (l *loader) notifyWatches() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, channels := range l.watches {
		newValue := l.v.Get(key)
		oldValue := l.oldValues[key]
		if reflect.DeepEqual(oldValue, newValue) {
			continue
		}

		l.oldValues[key] = newValue
		event := Event{Key: key, Value: newValue, OldValue: oldValue, Timestamp: now}

		for _, ch := range channels {
			select {
			case ch <- event:
			default:
				l.logger.Warn("watch channel full, event dropped",
					clog.String("key", key))
			}
		}
	}
}
