// Package codec 提供 registry 线格式的纯编解码原语。
// 无 I/O、无共享状态；所有读取先做边界检查，任何地方都不允许未检查切片。
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"claims-registry-sol/internal/types"
)

var (
	// ErrTruncatedBuffer 声明宽度超出剩余字节
	ErrTruncatedBuffer = errors.New("truncated buffer")
	// ErrStringTooLong UTF-8 字节长度超出 u32 可表示范围
	ErrStringTooLong = errors.New("string length exceeds u32 range")
)

// EncodeOptionPubkey 编码可选地址：nil -> [0x00]；非 nil -> [0x01] ++ 32 字节地址
func EncodeOptionPubkey(p *types.Pubkey) []byte {
	if p == nil {
		return []byte{0}
	}
	out := make([]byte, 0, 33)
	out = append(out, 1)
	out = append(out, p[:]...)
	return out
}

// EncodeString 编码字符串：4 字节小端 UTF-8 字节长度 ++ 字节本体。
// 空串编码为 [0,0,0,0]。
func EncodeString(s string) ([]byte, error) {
	if uint64(len(s)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrStringTooLong, len(s))
	}
	out := make([]byte, 4, 4+len(s))
	binary.LittleEndian.PutUint32(out, uint32(len(s)))
	return append(out, s...), nil
}

// EncodeU32LE 编码 4 字节小端无符号整数
func EncodeU32LE(v uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, v)
	return out
}

// EncodeI64LE 编码 8 字节小端有符号整数
func EncodeI64LE(v int64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, uint64(v))
	return out
}

// ReadFixed 读取 offset 处 width 字节并返回下一偏移。
// offset+width 超出 buf 时返回 ErrTruncatedBuffer；其余所有读取原语都建立在这一检查上。
func ReadFixed(buf []byte, offset, width int) ([]byte, int, error) {
	if width < 0 || offset < 0 || offset+width > len(buf) {
		return nil, offset, fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrTruncatedBuffer, width, offset, len(buf))
	}
	return buf[offset : offset+width], offset + width, nil
}

// ReadU32LE 读取 4 字节小端无符号整数
func ReadU32LE(buf []byte, offset int) (uint32, int, error) {
	b, next, err := ReadFixed(buf, offset, 4)
	if err != nil {
		return 0, offset, err
	}
	return binary.LittleEndian.Uint32(b), next, nil
}

// ReadI64LE 读取 8 字节小端有符号整数
func ReadI64LE(buf []byte, offset int) (int64, int, error) {
	b, next, err := ReadFixed(buf, offset, 8)
	if err != nil {
		return 0, offset, err
	}
	return int64(binary.LittleEndian.Uint64(b)), next, nil
}

// ReadString 读取 4 字节长度前缀 + UTF-8 字节。仅做边界检查，UTF-8 合法性由调用方裁决。
func ReadString(buf []byte, offset int) (string, int, error) {
	length, next, err := ReadU32LE(buf, offset)
	if err != nil {
		return "", offset, err
	}
	b, next, err := ReadFixed(buf, next, int(length))
	if err != nil {
		return "", offset, err
	}
	return string(b), next, nil
}
