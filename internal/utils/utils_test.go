package utils

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionForKey_StableAndBounded(t *testing.T) {
	key := sha256.Sum256([]byte("claim-1"))

	first := PartitionForKey(key[:], 8)
	second := PartitionForKey(key[:], 8)
	assert.Equal(t, first, second, "同一 key 两次映射应一致")
	assert.GreaterOrEqual(t, first, int32(0))
	assert.Less(t, first, int32(8), "分区号应落在 [0, partitions) 内")
}

func TestPartitionForKey_DegenerateInputs(t *testing.T) {
	key := sha256.Sum256([]byte("claim-1"))

	assert.Equal(t, int32(0), PartitionForKey(key[:], 1), "单分区必然是 0 号")
	assert.Equal(t, int32(0), PartitionForKey(key[:], 0))
	assert.Equal(t, int32(0), PartitionForKey(nil, 8), "空 key 回落到 0 号分区")
	assert.Equal(t, int32(0), PartitionForKey(key[:16], 8), "短 key 回落到 0 号分区")
}

func TestPartitionForKey_Spreads(t *testing.T) {
	// 大量不同 key 应覆盖多个分区，掩码快速路径与取模 fallback 都要验证
	for _, partitions := range []int32{8, 5} {
		seen := map[int32]bool{}
		for i := 0; i < 64; i++ {
			key := sha256.Sum256([]byte{byte(i)})
			p := PartitionForKey(key[:], partitions)
			assert.GreaterOrEqual(t, p, int32(0))
			assert.Less(t, p, partitions)
			seen[p] = true
		}
		assert.Greater(t, len(seen), 1, "不同 key 不应全部落在同一分区")
	}
}

func TestGetLocalIP_NeverEmpty(t *testing.T) {
	assert.NotEmpty(t, GetLocalIP())
}
