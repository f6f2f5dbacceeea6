package config

import (
	"github.com/ceyewan/aegis/breaker"
	"github.com/ceyewan/aegis/cache"
	"github.com/ceyewan/aegis/clog"
	"github.com/ceyewan/aegis/pressure"
	"github.com/ceyewan/aegis/retry"
	"github.com/ceyewan/aegis/swr"
)

// Settings Aegis 各组件配置的聚合视图
//
// 对应 aegis.yaml 的顶层结构，缺失的段由各组件自行补默认值：
//
//	log:
//	  level: info
//	  format: json
//	breaker:
//	  failure_threshold: 5
//	  open_backoff: 30s
//	retry:
//	  max_attempts: 3
//	  backoff:
//	    base: 1s
//	    max: 30s
//	cache:
//	  max_total_bytes: 67108864
//	  ttl:
//	    default: 30m
//	swr:
//	  refresh_timeout: 30s
//	pressure:
//	  limit_bytes: 536870912
type Settings struct {
	Log      clog.Config     `json:"log" yaml:"log"`
	Breaker  breaker.Config  `json:"breaker" yaml:"breaker"`
	Retry    retry.Policy    `json:"retry" yaml:"retry"`
	Cache    cache.Config    `json:"cache" yaml:"cache"`
	SWR      swr.Config      `json:"swr" yaml:"swr"`
	Pressure pressure.Config `json:"pressure" yaml:"pressure"`
}

// LoadSettings 从加载器反序列化聚合配置
//
// 必须在 Loader.Load 之后调用。
func LoadSettings(l Loader) (*Settings, error) {
	var s Settings
	if err := l.Unmarshal(&s); err != nil {
		return nil, err
	}
	return &s, nil
}
