// Package events 定义登记条目事件及其二进制编码。
// 编码格式：前 4 字节为事件类型（uint32 小端序），后续为 borsh 序列化数据。
package events

import (
	"encoding/binary"
	"fmt"

	"claims-registry-sol/internal/registry"
	"claims-registry-sol/internal/types"

	"github.com/near/borsh-go"
)

// EventType 事件类型，占用编码前缀 4 字节
type EventType uint32

const (
	// EventTypeClaimAdded 登记账户中观察到新增条目
	EventTypeClaimAdded EventType = 1
)

// ClaimEvent 单条登记条目事件，borsh 序列化
type ClaimEvent struct {
	Registry    [32]uint8 // 登记账户地址
	Index       uint32    // 条目在登记账户中的序号（0 起）
	ClaimIDHash [32]uint8
	JSONURL     string
	DataHash    [32]uint8
	Creator     [32]uint8
	CreatedAt   int64 // unix 秒
}

// FromClaim 由解码出的条目构造事件
func FromClaim(registryAddr types.Pubkey, index uint32, c registry.Claim) *ClaimEvent {
	return &ClaimEvent{
		Registry:    [32]uint8(registryAddr),
		Index:       index,
		ClaimIDHash: [32]uint8(c.ClaimIDHash),
		JSONURL:     c.JSONURL,
		DataHash:    [32]uint8(c.DataHash),
		Creator:     [32]uint8(c.Creator),
		CreatedAt:   c.CreatedAt,
	}
}

// EncodeEvent 将事件编码为带类型前缀的二进制数据
func EncodeEvent(eventType EventType, ev *ClaimEvent) ([]byte, error) {
	body, err := borsh.Serialize(*ev)
	if err != nil {
		return nil, fmt.Errorf("EncodeEvent: serialize: %w", err)
	}

	buf := make([]byte, 4, 4+len(body))
	binary.LittleEndian.PutUint32(buf[:4], uint32(eventType))
	return append(buf, body...), nil
}

// DecodeEvent 解出事件类型与事件体，消费方使用
func DecodeEvent(data []byte) (EventType, *ClaimEvent, error) {
	if len(data) < 4 {
		return 0, nil, fmt.Errorf("DecodeEvent: buffer too short: %d", len(data))
	}
	eventType := EventType(binary.LittleEndian.Uint32(data[:4]))

	var ev ClaimEvent
	if err := borsh.Deserialize(&ev, data[4:]); err != nil {
		return 0, nil, fmt.Errorf("DecodeEvent: deserialize: %w", err)
	}
	return eventType, &ev, nil
}
