package utils

// PartitionForKey 从 32 字节 key 中选取 4 字节构造 uint32 并模分区数，用于分区选择。
// 非加密哈希，仅适合负载均匀场景；同一 key 永远落在同一分区，保证分区内有序。
func PartitionForKey(key []byte, partitions int32) int32 {
	if len(key) < 28 || partitions <= 1 {
		return 0
	}
	switch partitions {
	case 2, 4, 8, 16:
		return int32(key[27]) & (partitions - 1) // 快速路径：低位掩码替代 hash + %
	}

	// fallback 路径：组合多个字节避免 hash 冲突
	hash := uint32(key[7])<<24 | uint32(key[15])<<16 | uint32(key[19])<<8 | uint32(key[27])
	return int32(hash % uint32(partitions))
}
