package registry

import (
	"testing"

	"claims-registry-sol/internal/codec"
	"claims-registry-sol/internal/types"

	"github.com/near/borsh-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeClaim(seed byte) Claim {
	var claim Claim
	for i := range claim.ClaimIDHash {
		claim.ClaimIDHash[i] = seed
	}
	for i := range claim.DataHash {
		claim.DataHash[i] = seed + 1
	}
	claim.Creator = types.PubkeyFromBytes(patternBytes(seed + 2))
	claim.JSONURL = "https://example.com/claims/" + string(rune('a'+seed%26)) + ".json"
	claim.CreatedAt = 1755432100 + int64(seed)
	return claim
}

func TestDecode_RoundTrip(t *testing.T) {
	pending := types.PubkeyFromBytes(patternBytes(0x55))
	st := &ProgramState{
		Owner:        types.PubkeyFromBytes(patternBytes(0x66)),
		PendingOwner: &pending,
		Claims:       []Claim{makeClaim(1), makeClaim(2), makeClaim(3)},
	}

	got, err := DecodeProgramState(EncodeState(st))
	require.NoError(t, err)
	assert.Equal(t, st, got, "每个字段都必须位精确还原")
}

func TestDecode_EmptyRegistry(t *testing.T) {
	st := &ProgramState{Owner: types.PubkeyFromBytes(patternBytes(0x01))}

	got, err := DecodeProgramState(EncodeState(st))
	require.NoError(t, err)
	assert.Nil(t, got.PendingOwner)
	assert.Empty(t, got.Claims)
	assert.Equal(t, st.Owner, got.Owner)
}

// 负时间戳（1970 年前）必须按有符号还原
func TestDecode_NegativeTimestamp(t *testing.T) {
	claim := makeClaim(7)
	claim.CreatedAt = -1

	st := &ProgramState{Owner: types.PubkeyFromBytes(patternBytes(0x02)), Claims: []Claim{claim}}
	got, err := DecodeProgramState(EncodeState(st))
	require.NoError(t, err)
	assert.Equal(t, int64(-1), got.Claims[0].CreatedAt)
}

// 任意字段中途截断必须返回 ErrTruncatedBuffer，绝不越界
func TestDecode_TruncatedAnywhere(t *testing.T) {
	pending := types.PubkeyFromBytes(patternBytes(0x11))
	st := &ProgramState{
		Owner:        types.PubkeyFromBytes(patternBytes(0x22)),
		PendingOwner: &pending,
		Claims:       []Claim{makeClaim(4), makeClaim(5)},
	}
	full := EncodeState(st)

	for cut := 0; cut < len(full); cut++ {
		_, err := DecodeProgramState(full[:cut])
		require.Error(t, err, "cut=%d", cut)
		assert.ErrorIs(t, err, codec.ErrTruncatedBuffer, "cut=%d", cut)
	}
}

// claim_count 超过防线：返回零条 claim 且不再读取后续字节
// （buffer 在 count 之后立即结束，若解码器继续读会报 truncated 而非 corrupt）
func TestDecode_ClaimCountCeiling(t *testing.T) {
	buf := make([]byte, 0, 45)
	buf = append(buf, stateDiscriminator[:]...)
	buf = append(buf, patternBytes(0x01)...)
	buf = append(buf, 0x00) // 无 pending owner
	buf = append(buf, codec.EncodeU32LE(1001)...)

	st, err := DecodeProgramState(buf)
	assert.Nil(t, st)
	assert.ErrorIs(t, err, ErrCorruptAccount)
	assert.NotErrorIs(t, err, codec.ErrTruncatedBuffer)
}

// url_len 超过防线：同样整体判废，不读取声明的超长负载
func TestDecode_URLLenCeiling(t *testing.T) {
	buf := make([]byte, 0, 128)
	buf = append(buf, stateDiscriminator[:]...)
	buf = append(buf, patternBytes(0x01)...)
	buf = append(buf, 0x00)
	buf = append(buf, codec.EncodeU32LE(1)...)
	buf = append(buf, patternBytes(0x03)...) // claim_id_hash
	buf = append(buf, codec.EncodeU32LE(1001)...)

	st, err := DecodeProgramState(buf)
	assert.Nil(t, st)
	assert.ErrorIs(t, err, ErrCorruptAccount)
	assert.NotErrorIs(t, err, codec.ErrTruncatedBuffer)
}

func TestDecode_BadOptionTag(t *testing.T) {
	buf := make([]byte, 0, 45)
	buf = append(buf, stateDiscriminator[:]...)
	buf = append(buf, patternBytes(0x01)...)
	buf = append(buf, 0x02) // option tag 只允许 0/1
	buf = append(buf, codec.EncodeU32LE(0)...)

	st, err := DecodeProgramState(buf)
	assert.Nil(t, st)
	assert.ErrorIs(t, err, ErrCorruptAccount)
}

// URL 非 UTF-8 属于结构性损坏，整体拒绝（与防线检查同一策略），不做单条跳过
func TestDecode_InvalidUTF8URL(t *testing.T) {
	good := makeClaim(9)
	buf := make([]byte, 0, 256)
	buf = append(buf, stateDiscriminator[:]...)
	buf = append(buf, patternBytes(0x01)...)
	buf = append(buf, 0x00)
	buf = append(buf, codec.EncodeU32LE(2)...)

	// 第一条：url 为非法 UTF-8 字节
	buf = append(buf, patternBytes(0x04)...)
	buf = append(buf, codec.EncodeU32LE(2)...)
	buf = append(buf, 0xFF, 0xFE)
	buf = append(buf, patternBytes(0x05)...)
	buf = append(buf, patternBytes(0x06)...)
	buf = append(buf, codec.EncodeI64LE(1700000000)...)
	// 第二条完全合法
	buf = append(buf, EncodeClaimRecord(good)...)

	st, err := DecodeProgramState(buf)
	assert.Nil(t, st, "整体拒绝：合法的后续记录也不返回")
	assert.ErrorIs(t, err, ErrCorruptAccount)
}

// Solana 账户按固定空间分配，内容之后的尾随字节是常态
func TestDecode_TrailingBytesAllowed(t *testing.T) {
	st := &ProgramState{
		Owner:  types.PubkeyFromBytes(patternBytes(0x07)),
		Claims: []Claim{makeClaim(8)},
	}
	buf := append(EncodeState(st), make([]byte, 512)...)

	got, err := DecodeProgramState(buf)
	require.NoError(t, err)
	assert.Equal(t, st.Claims, got.Claims)
}

// 手工记录编码必须与等价结构的 borsh 序列化逐字节一致
func TestEncodeClaimRecord_MatchesBorsh(t *testing.T) {
	claim := makeClaim(12)

	type borshRecord struct {
		ClaimIDHash [32]uint8
		JSONURL     string
		DataHash    [32]uint8
		Creator     [32]uint8
		CreatedAt   int64
	}
	expected, err := borsh.Serialize(borshRecord{
		ClaimIDHash: [32]uint8(claim.ClaimIDHash),
		JSONURL:     claim.JSONURL,
		DataHash:    [32]uint8(claim.DataHash),
		Creator:     [32]uint8(claim.Creator),
		CreatedAt:   claim.CreatedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, expected, EncodeClaimRecord(claim))
}

func TestOwnerOrNil(t *testing.T) {
	st := &ProgramState{}
	assert.Nil(t, st.OwnerOrNil(), "全零 owner 表示无所有者")

	st.Owner = types.PubkeyFromBytes(patternBytes(0x09))
	owner := st.OwnerOrNil()
	require.NotNil(t, owner)
	assert.Equal(t, st.Owner, *owner)
}
