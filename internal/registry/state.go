package registry

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"claims-registry-sol/internal/codec"
	"claims-registry-sol/internal/consts"
	"claims-registry-sol/internal/types"
)

// ErrCorruptAccount 账户结构性损坏。解码采用整体拒绝策略：
// 计数/长度超防线、非法 option tag、URL 非 UTF-8，任一出现即整个 buffer 判废，
// 返回零条 claim，不再继续读取。
var ErrCorruptAccount = errors.New("corrupt registry account")

// Claim registry 中的一条声明记录，链上顺序即切片顺序
type Claim struct {
	ClaimIDHash types.Digest // claim_id 的 32 字节摘要
	JSONURL     string
	DataHash    types.Digest // 声明内容的 32 字节摘要
	Creator     types.Pubkey
	CreatedAt   int64 // unix 秒，有符号
}

// ProgramState registry 账户的解码结果。
// 仅作为一次读取的瞬态产物存在，本地不持有、不缓存（watcher 的快照缓存除外）。
type ProgramState struct {
	Owner        types.Pubkey
	PendingOwner *types.Pubkey // nil 表示无待接收所有者
	Claims       []Claim
}

// OwnerOrNil 全零 owner 视为无所有者（已 renounce 或未设置）
func (st *ProgramState) OwnerOrNil() *types.Pubkey {
	if st.Owner.IsZero() {
		return nil
	}
	owner := st.Owner
	return &owner
}

// DecodeProgramState 将原始账户快照解码为结构化状态。
// 单向前进游标，每个字段读取前都有宽度边界检查；
// 越界返回 codec.ErrTruncatedBuffer，结构性损坏返回 ErrCorruptAccount。
// 布局：[8B discriminator][32B owner][1B tag + (0|32)B pending_owner][4B count][records]。
func DecodeProgramState(buf []byte) (*ProgramState, error) {
	// 1. 跳过前导账户 discriminator，只检边界不校验内容
	_, offset, err := codec.ReadFixed(buf, 0, 8)
	if err != nil {
		return nil, fmt.Errorf("account discriminator: %w", err)
	}

	// 2. owner
	ownerBytes, offset, err := codec.ReadFixed(buf, offset, 32)
	if err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}
	st := &ProgramState{Owner: types.PubkeyFromBytes(ownerBytes)}

	// 3. pending_owner 可选区（变宽：tag 为 1 时才有 32 字节负载）
	tagBytes, offset, err := codec.ReadFixed(buf, offset, 1)
	if err != nil {
		return nil, fmt.Errorf("pending_owner tag: %w", err)
	}
	switch tagBytes[0] {
	case 0:
		// 无 pending owner
	case 1:
		pendingBytes, next, err := codec.ReadFixed(buf, offset, 32)
		if err != nil {
			return nil, fmt.Errorf("pending_owner: %w", err)
		}
		pending := types.PubkeyFromBytes(pendingBytes)
		st.PendingOwner = &pending
		offset = next
	default:
		return nil, fmt.Errorf("%w: pending_owner tag %d", ErrCorruptAccount, tagBytes[0])
	}

	// 4. claim_count 及腐坏防线（不是协议上限）
	count, offset, err := codec.ReadU32LE(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("claim_count: %w", err)
	}
	if count > consts.MaxClaimCount {
		return nil, fmt.Errorf("%w: claim_count %d exceeds ceiling %d",
			ErrCorruptAccount, count, consts.MaxClaimCount)
	}

	// 5. 逐条解码记录
	claims := make([]Claim, 0, count)
	for i := uint32(0); i < count; i++ {
		claim, next, err := decodeClaimRecord(buf, offset)
		if err != nil {
			return nil, fmt.Errorf("claim %d: %w", i, err)
		}
		claims = append(claims, claim)
		offset = next
	}
	st.Claims = claims

	// 账户分配空间通常大于实际内容，尾随字节合法，不要求 offset == len(buf)
	return st, nil
}

// decodeClaimRecord 解码单条记录：
// [32B claim_id_hash][4B url_len][url][32B data_hash][32B creator][8B created_at]
func decodeClaimRecord(buf []byte, offset int) (Claim, int, error) {
	var claim Claim

	idBytes, offset, err := codec.ReadFixed(buf, offset, 32)
	if err != nil {
		return claim, offset, fmt.Errorf("claim_id_hash: %w", err)
	}
	copy(claim.ClaimIDHash[:], idBytes)

	urlLen, offset, err := codec.ReadU32LE(buf, offset)
	if err != nil {
		return claim, offset, fmt.Errorf("url_len: %w", err)
	}
	if urlLen > consts.MaxURLLen {
		return claim, offset, fmt.Errorf("%w: url_len %d exceeds ceiling %d",
			ErrCorruptAccount, urlLen, consts.MaxURLLen)
	}
	urlBytes, offset, err := codec.ReadFixed(buf, offset, int(urlLen))
	if err != nil {
		return claim, offset, fmt.Errorf("url: %w", err)
	}
	if !utf8.Valid(urlBytes) {
		return claim, offset, fmt.Errorf("%w: url is not valid utf-8", ErrCorruptAccount)
	}
	claim.JSONURL = string(urlBytes)

	hashBytes, offset, err := codec.ReadFixed(buf, offset, 32)
	if err != nil {
		return claim, offset, fmt.Errorf("data_hash: %w", err)
	}
	copy(claim.DataHash[:], hashBytes)

	creatorBytes, offset, err := codec.ReadFixed(buf, offset, 32)
	if err != nil {
		return claim, offset, fmt.Errorf("creator: %w", err)
	}
	claim.Creator = types.PubkeyFromBytes(creatorBytes)

	createdAt, offset, err := codec.ReadI64LE(buf, offset)
	if err != nil {
		return claim, offset, fmt.Errorf("created_at: %w", err)
	}
	claim.CreatedAt = createdAt

	return claim, offset, nil
}

// EncodeClaimRecord 单条记录的精确逆编码。
// 与等价结构的 borsh 序列化逐字节一致（url 为 4 字节小端长度前缀 + UTF-8）。
func EncodeClaimRecord(c Claim) []byte {
	urlBytes, _ := codec.EncodeString(c.JSONURL) // 长度受 MaxURLLen 约束，u32 溢出不可达
	out := make([]byte, 0, 32+len(urlBytes)+32+32+8)
	out = append(out, c.ClaimIDHash[:]...)
	out = append(out, urlBytes...)
	out = append(out, c.DataHash[:]...)
	out = append(out, c.Creator[:]...)
	out = append(out, codec.EncodeI64LE(c.CreatedAt)...)
	return out
}

// EncodeState 整个账户内容的逆编码，供测试与事件快照构造使用
func EncodeState(st *ProgramState) []byte {
	out := make([]byte, 0, 45)
	out = append(out, stateDiscriminator[:]...)
	out = append(out, st.Owner[:]...)
	out = append(out, codec.EncodeOptionPubkey(st.PendingOwner)...)
	out = append(out, codec.EncodeU32LE(uint32(len(st.Claims)))...)
	for _, c := range st.Claims {
		out = append(out, EncodeClaimRecord(c)...)
	}
	return out
}
