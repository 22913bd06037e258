package consts

import "claims-registry-sol/internal/types"

// Base58 地址常量（可读性高，适合配置与日志使用）
const (
	// claims registry 程序默认部署地址，可被配置覆盖
	ClaimsProgramStr = "DV88SqFNjehQYUdgezSEYK5Hp4xgx54s7Na4jpmBYKJ9"

	SystemProgramStr = "11111111111111111111111111111111"
)

var (
	SystemProgram = types.PubkeyFromBase58(SystemProgramStr)
)

// RegistrySeed registry 账户 PDA 推导种子，必须与链上程序一致
const RegistrySeed = "program_data"

const (
	// MaxClaimCount / MaxURLLen 解码腐坏防线（不是协议上限）：
	// 超过即认定整个 buffer 损坏，返回空结果
	MaxClaimCount = 1000
	MaxURLLen     = 1000
)

const (
	// MinBalanceLamports 提交前余额预检的最低门槛（0.000005 SOL）
	MinBalanceLamports = 5000

	// DefaultMaxAttempts / DefaultRetryDelayS 过期 blockhash 重试参数
	DefaultMaxAttempts = 3
	DefaultRetryDelayS = 2
)
