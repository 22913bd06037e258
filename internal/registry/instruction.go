package registry

import (
	"fmt"

	"claims-registry-sol/internal/codec"
	"claims-registry-sol/internal/types"

	"github.com/blocto/solana-go-sdk/common"
	sdktypes "github.com/blocto/solana-go-sdk/types"
)

// ValidationError 本地入参校验失败；构造它的路径保证未发生任何网络交互
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Builder 将类型化操作装配为线上指令：discriminator ++ payload ++ 账户模板。
// 账户顺序与 signer/writable 标志是线协议的一部分，模板不可变。
type Builder struct {
	programID common.PublicKey
	registry  common.PublicKey
}

func NewBuilder(programID, registry common.PublicKey) *Builder {
	return &Builder{programID: programID, registry: registry}
}

// RegistryAccount 指令引用的 registry PDA
func (b *Builder) RegistryAccount() common.PublicKey {
	return b.registry
}

func (b *Builder) build(op Operation, accounts []sdktypes.AccountMeta, payload []byte) sdktypes.Instruction {
	disc := op.Discriminator()
	data := make([]byte, 0, 8+len(payload))
	data = append(data, disc[:]...)
	data = append(data, payload...)
	return sdktypes.Instruction{
		ProgramID: b.programID,
		Accounts:  accounts,
		Data:      data,
	}
}

// Initialize 创建 registry 账户。payload 为可选初始 owner。
func (b *Builder) Initialize(creator common.PublicKey, initialOwner *types.Pubkey) sdktypes.Instruction {
	accounts := []sdktypes.AccountMeta{
		{PubKey: b.registry, IsSigner: false, IsWritable: true},
		{PubKey: creator, IsSigner: true, IsWritable: true},
		{PubKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
	}
	return b.build(OpInitialize, accounts, codec.EncodeOptionPubkey(initialOwner))
}

// AddClaim 追加一条 claim 记录。
// 本地校验先于一切网络交互：claim_id 非空、json_url 非空、data_hash 恰好 32 字节；
// 不满足时返回 ValidationError 且不构造任何指令与账户列表。
func (b *Builder) AddClaim(creator common.PublicKey, claimID, jsonURL string, dataHash []byte) (sdktypes.Instruction, error) {
	if claimID == "" {
		return sdktypes.Instruction{}, &ValidationError{Field: "claim_id", Reason: "must not be empty"}
	}
	if jsonURL == "" {
		return sdktypes.Instruction{}, &ValidationError{Field: "json_url", Reason: "must not be empty"}
	}
	if len(dataHash) != 32 {
		return sdktypes.Instruction{}, &ValidationError{
			Field:  "data_hash",
			Reason: fmt.Sprintf("must be exactly 32 bytes, got %d", len(dataHash)),
		}
	}

	idBytes, err := codec.EncodeString(claimID)
	if err != nil {
		return sdktypes.Instruction{}, &ValidationError{Field: "claim_id", Reason: err.Error()}
	}
	urlBytes, err := codec.EncodeString(jsonURL)
	if err != nil {
		return sdktypes.Instruction{}, &ValidationError{Field: "json_url", Reason: err.Error()}
	}

	payload := make([]byte, 0, len(idBytes)+len(urlBytes)+32)
	payload = append(payload, idBytes...)
	payload = append(payload, urlBytes...)
	payload = append(payload, dataHash...)

	accounts := []sdktypes.AccountMeta{
		{PubKey: b.registry, IsSigner: false, IsWritable: true},
		{PubKey: creator, IsSigner: true, IsWritable: true},
	}
	return b.build(OpAddClaim, accounts, payload), nil
}

// GetClaims 读取指令。requester 保持 signer+writable 是观测到的线上契约，
// 虽然这是一次纯读取；在确认链上程序的真实期望前不做"修正"。
func (b *Builder) GetClaims(requester common.PublicKey) sdktypes.Instruction {
	accounts := []sdktypes.AccountMeta{
		{PubKey: b.registry, IsSigner: false, IsWritable: false},
		{PubKey: requester, IsSigner: true, IsWritable: true},
	}
	return b.build(OpGetClaims, accounts, nil)
}

// TransferOwnership 提名新 owner（两段式转移的第一步）
func (b *Builder) TransferOwnership(owner common.PublicKey, newOwner types.Pubkey) sdktypes.Instruction {
	accounts := []sdktypes.AccountMeta{
		{PubKey: b.registry, IsSigner: false, IsWritable: true},
		{PubKey: owner, IsSigner: true, IsWritable: false},
	}
	return b.build(OpTransferOwnership, accounts, newOwner.Bytes())
}

// AcceptOwnership 被提名者接受所有权
func (b *Builder) AcceptOwnership(newOwner common.PublicKey) sdktypes.Instruction {
	accounts := []sdktypes.AccountMeta{
		{PubKey: b.registry, IsSigner: false, IsWritable: true},
		{PubKey: newOwner, IsSigner: true, IsWritable: false},
	}
	return b.build(OpAcceptOwnership, accounts, nil)
}

// RenounceOwnership 放弃所有权，owner 置为全零
func (b *Builder) RenounceOwnership(owner common.PublicKey) sdktypes.Instruction {
	accounts := []sdktypes.AccountMeta{
		{PubKey: b.registry, IsSigner: false, IsWritable: true},
		{PubKey: owner, IsSigner: true, IsWritable: false},
	}
	return b.build(OpRenounceOwnership, accounts, nil)
}
