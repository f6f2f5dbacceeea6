// Package serializer 为缓存与外部存储提供统一的编解码能力。
//
// 支持两种编码:
//   - "json": 标准库 JSON，可读性与兼容性最好
//   - "msgpack": MessagePack 二进制编码，体积更小、编解码更快，
//     适合字节记账和跨进程存储
package serializer

import (
	"encoding/json"

	"github.com/ceyewan/aegis/xerrors"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrUnsupported 不支持的序列化器类型
var ErrUnsupported = xerrors.New("serializer: unsupported type")

// Serializer 定义序列化接口
type Serializer interface {
	// Marshal 将值编码为字节序列
	Marshal(value any) ([]byte, error)

	// Unmarshal 将字节序列解码到 dest
	Unmarshal(data []byte, dest any) error

	// Name 返回编码名称（"json" / "msgpack"）
	Name() string
}

type jsonSerializer struct{}

func (jsonSerializer) Marshal(value any) ([]byte, error)     { return json.Marshal(value) }
func (jsonSerializer) Unmarshal(data []byte, dest any) error { return json.Unmarshal(data, dest) }
func (jsonSerializer) Name() string                          { return "json" }

type msgpackSerializer struct{}

func (msgpackSerializer) Marshal(value any) ([]byte, error)     { return msgpack.Marshal(value) }
func (msgpackSerializer) Unmarshal(data []byte, dest any) error { return msgpack.Unmarshal(data, dest) }
func (msgpackSerializer) Name() string                          { return "msgpack" }

// New 按名称创建序列化器，空字符串默认 msgpack
func New(name string) (Serializer, error) {
	switch name {
	case "msgpack", "":
		return msgpackSerializer{}, nil
	case "json":
		return jsonSerializer{}, nil
	default:
		return nil, ErrUnsupported
	}
}
