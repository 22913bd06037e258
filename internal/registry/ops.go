// Package registry 定义 claims registry 程序的操作闭集、指令装配与账户解码。
package registry

import "crypto/sha256"

// Operation 远端程序支持的操作闭集。
// 每个操作绑定唯一的 8 字节 discriminator 与不可变账户模板，
// 不存在按名字符串动态分发的路径。
type Operation int

const (
	OpInitialize Operation = iota
	OpAddClaim
	OpGetClaims
	OpTransferOwnership
	OpAcceptOwnership
	OpRenounceOwnership
)

var opNames = [...]string{
	OpInitialize:        "initialize",
	OpAddClaim:          "add_claim",
	OpGetClaims:         "get_claims",
	OpTransferOwnership: "transfer_ownership",
	OpAcceptOwnership:   "accept_ownership",
	OpRenounceOwnership: "renounce_ownership",
}

// Name 链上指令名（Anchor snake_case），discriminator 推导的唯一输入
func (op Operation) Name() string {
	if op < 0 || int(op) >= len(opNames) {
		return "unknown"
	}
	return opNames[op]
}

func (op Operation) String() string {
	return op.Name()
}

// anchorTag 按 Anchor 规则推导 8 字节标识：sha256("<namespace>:<name>")[:8]。
// 指令用 "global" 命名空间，账户结构体用 "account"。
func anchorTag(namespace, name string) [8]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var tag [8]byte
	copy(tag[:], sum[:8])
	return tag
}

var discriminators = func() [len(opNames)][8]byte {
	var out [len(opNames)][8]byte
	for op, name := range opNames {
		out[op] = anchorTag("global", name)
	}
	return out
}()

// Discriminator 该操作的 8 字节指令标识，必须与链上程序的期望一致
func (op Operation) Discriminator() [8]byte {
	return discriminators[op]
}

// stateDiscriminator registry 账户数据的前导 8 字节。
// 解码侧只跳过不校验（与观测到的链上行为一致），编码侧用于构造测试与事件快照。
var stateDiscriminator = anchorTag("account", "ProgramState")
