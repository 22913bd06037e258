// Package progress 维护 Redis 中的发布游标（幂等控制）。
package progress

import (
	"context"
	"fmt"
	"math"

	"github.com/redis/go-redis/v9"
)

// CursorStore 记录每个登记账户已发布的条目数。
// 游标值为 n 表示序号 < n 的条目都已成功发布，重启后从 n 继续。
type CursorStore struct {
	rdb *redis.Client
}

// Redis key 前缀
const cursorPrefix = "claims:progress:published"

// NewCursorStore 创建发布游标存储
func NewCursorStore(rdb *redis.Client) *CursorStore {
	return &CursorStore{rdb: rdb}
}

// getKey 构造 Redis key，按登记账户区分
func (s *CursorStore) getKey(registryAddr string) string {
	return fmt.Sprintf("%s:%s", cursorPrefix, registryAddr)
}

// GetPublished 读取已发布条目数，未记录过返回 0
func (s *CursorStore) GetPublished(ctx context.Context, registryAddr string) (uint32, error) {
	val, err := s.rdb.Get(ctx, s.getKey(registryAddr)).Uint64()
	switch {
	case err == redis.Nil:
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("redis get error: %w", err)
	case val > math.MaxUint32:
		return 0, fmt.Errorf("cursor out of range: %d", val)
	default:
		return uint32(val), nil
	}
}

// SetPublished 推进游标到 count。
// 游标只进不退，小于等于当前值的请求被忽略；监视器是单写者，读改写竞态可接受。
func (s *CursorStore) SetPublished(ctx context.Context, registryAddr string, count uint32) error {
	cur, err := s.GetPublished(ctx, registryAddr)
	if err != nil {
		return err
	}
	if count <= cur {
		return nil
	}
	// 游标常驻，不设 TTL
	return s.rdb.Set(ctx, s.getKey(registryAddr), uint64(count), 0).Err()
}
