package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Key 对规范化后的各输入段做确定性哈希，返回十六进制键
//
// 相同输入永远映射到同一个键，与调用顺序和调用方无关，
// 适合为确定性计算（分析结果、向量等）生成缓存键。
// 输入段会去除首尾空白，段之间以不可见分隔符隔开，避免拼接歧义。
func Key(parts ...string) string {
	h := sha256.New()
	for _, part := range parts {
		h.Write([]byte(strings.TrimSpace(part)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// KeyParams 在输入段之外混入影响计算结果的参数
//
// 参数按名称排序后参与哈希，保证 map 遍历顺序不影响结果。
func KeyParams(params map[string]string, parts ...string) string {
	if len(params) == 0 {
		return Key(parts...)
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, part := range parts {
		h.Write([]byte(strings.TrimSpace(part)))
		h.Write([]byte{0})
	}
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{'='})
		h.Write([]byte(params[name]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
