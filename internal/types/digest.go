package types

import (
	"encoding/hex"
	"fmt"
)

// Digest 32 字节内容摘要（claim_id_hash / data_hash），文本形式为小写十六进制
type Digest [32]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

func (d Digest) Equals(other Digest) bool {
	return d == other
}

func (d Digest) Bytes() []byte {
	return d[:]
}

// DigestFromBytes 从原始字节构造 Digest，宽度必须恰好 32 字节
func DigestFromBytes(b []byte) (Digest, error) {
	var d Digest
	if len(b) != 32 {
		return d, fmt.Errorf("invalid digest length: got %d, want 32", len(b))
	}
	copy(d[:], b)
	return d, nil
}

// DigestFromHex 解析 64 位十六进制字符串（CLI 输入路径）
func DigestFromHex(s string) (Digest, error) {
	var d Digest
	data, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("failed to decode hex digest %q: %w", s, err)
	}
	if len(data) != 32 {
		return d, fmt.Errorf("invalid digest length: got %d, want 32, input=%q", len(data), s)
	}
	copy(d[:], data)
	return d, nil
}
