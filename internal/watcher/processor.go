// Package watcher 观察登记账户并把新增条目发布为 Kafka 事件。
// 两种数据源共用同一处理器：poll 周期拉取快照，geyser 由推送触发。
package watcher

import (
	"context"
	"fmt"

	"claims-registry-sol/internal/cache"
	"claims-registry-sol/internal/registry"
	"claims-registry-sol/internal/types"
	"claims-registry-sol/pkg/logger"

	"github.com/blocto/solana-go-sdk/common"
)

// ClaimPublisher 条目事件发布端口，生产实现是 mq.Publisher
type ClaimPublisher interface {
	PublishClaims(ctx context.Context, registryAddr types.Pubkey, startIndex uint32, claims []registry.Claim) error
}

// Cursor 发布游标端口，生产实现是 progress.CursorStore
type Cursor interface {
	GetPublished(ctx context.Context, registryAddr string) (uint32, error)
	SetPublished(ctx context.Context, registryAddr string, count uint32) error
}

// Processor 把一次账户快照转化为零或多条条目事件。
// 游标只在全部新增条目确认后推进，发布失败下一次观察会重发（至少一次语义）。
type Processor struct {
	registryAddr common.PublicKey
	cache        *cache.StateCache
	publisher    ClaimPublisher
	cursor       Cursor
}

func NewProcessor(registryAddr common.PublicKey, stateCache *cache.StateCache, publisher ClaimPublisher, cursor Cursor) *Processor {
	return &Processor{
		registryAddr: registryAddr,
		cache:        stateCache,
		publisher:    publisher,
		cursor:       cursor,
	}
}

// HandleSnapshot 解码快照并发布游标之后的新增条目，返回本次发布数量。
// 不可解码的快照记日志后整体跳过，游标与缓存都不动。
func (p *Processor) HandleSnapshot(ctx context.Context, data []byte, source string) (int, error) {
	st, err := registry.DecodeProgramState(data)
	if err != nil {
		logger.Errorf("[Watcher] snapshot undecodable, source: %s, len: %d, err: %v", source, len(data), err)
		return 0, nil
	}
	p.cache.Update(st, source)

	addrStr := p.registryAddr.ToBase58()
	published, err := p.cursor.GetPublished(ctx, addrStr)
	if err != nil {
		return 0, fmt.Errorf("read publish cursor: %w", err)
	}

	total := uint32(len(st.Claims))
	if published >= total {
		// 无新增；published > total 不应出现，按无新增处理
		if published > total {
			logger.Warnf("[Watcher] cursor %d ahead of claim count %d, registry: %s", published, total, addrStr)
		}
		return 0, nil
	}

	fresh := st.Claims[published:total]
	if err := p.publisher.PublishClaims(ctx, types.Pubkey(p.registryAddr), published, fresh); err != nil {
		return 0, err
	}

	if err := p.cursor.SetPublished(ctx, addrStr, total); err != nil {
		// 事件已发出但游标未推进，下一次观察会重发这批条目
		return len(fresh), fmt.Errorf("advance publish cursor: %w", err)
	}

	logger.Infof("[Watcher] %d new claims published, total: %d, source: %s", len(fresh), total, source)
	return len(fresh), nil
}
