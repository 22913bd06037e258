package types

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Pubkey 32 字节账户地址，仅支持相等比较与字节序列化，无任何算术语义
type Pubkey [32]byte

func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

func (p Pubkey) Equals(other Pubkey) bool {
	return p == other
}

// IsZero 全零地址视为"无所有者"（registry 已 renounce 或未初始化）
func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

func (p Pubkey) Bytes() []byte {
	return p[:]
}

// TryPubkeyFromBase58 解析 base58 字符串为 Pubkey，失败时返回 error（用于不信任输入路径）
func TryPubkeyFromBase58(s string) (Pubkey, error) {
	data, err := base58.Decode(s)
	if err != nil {
		return Pubkey{}, fmt.Errorf("failed to decode base58 pubkey %q: %w", s, err)
	}
	if len(data) != 32 {
		return Pubkey{}, fmt.Errorf("invalid pubkey length: got %d, want 32, input=%q", len(data), s)
	}
	var p Pubkey
	copy(p[:], data)
	return p, nil
}

// PubkeyFromBase58 解析已知合法的 base58 常量，失败直接 panic（仅用于 consts 初始化）
func PubkeyFromBase58(s string) Pubkey {
	p, err := TryPubkeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return p
}

// PubkeyFromBytes 从原始字节构造 Pubkey，长度不足 32 时 panic（调用方保证边界）
func PubkeyFromBytes(b []byte) Pubkey {
	if len(b) != 32 {
		panic(fmt.Errorf("invalid pubkey length: got %d, want 32", len(b)))
	}
	var p Pubkey
	copy(p[:], b)
	return p
}
