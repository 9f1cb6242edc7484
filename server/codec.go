package server

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec 下行消息编码：JSON 文本帧或 msgpack 二进制帧
type Codec string

const (
	CodecJSON    Codec = "json"
	CodecMsgpack Codec = "msgpack"
)

// ParseCodec 解析查询参数，未知值回退到 JSON
func ParseCodec(s string) Codec {
	if Codec(s) == CodecMsgpack {
		return CodecMsgpack
	}
	return CodecJSON
}

// Encode 按编码方式序列化
func (c Codec) Encode(v any) ([]byte, error) {
	if c == CodecMsgpack {
		return msgpack.Marshal(v)
	}
	return json.Marshal(v)
}
