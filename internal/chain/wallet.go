package chain

import (
	"encoding/json"
	"fmt"
	"os"

	sdktypes "github.com/blocto/solana-go-sdk/types"
)

// DefaultWalletEnv 未配置密钥文件时读取的环境变量，内容为 base58 编码的 64 字节私钥
const DefaultWalletEnv = "SOLANA_SECRET_KEY_B58"

// LoadWallet 按配置加载签名密钥：
// 1. walletPath 非空时读 keygen 生成的 JSON 整数数组文件；
// 2. 否则读环境变量 envName（为空取 DefaultWalletEnv）中的 base58 私钥。
// 两个来源都缺失或内容非法属于构造期致命错误。
func LoadWallet(walletPath, envName string) (sdktypes.Account, error) {
	if walletPath != "" {
		return loadWalletFile(walletPath)
	}

	if envName == "" {
		envName = DefaultWalletEnv
	}
	secret := os.Getenv(envName)
	if secret == "" {
		return sdktypes.Account{}, fmt.Errorf("no wallet source: wallet_path empty and env %s unset", envName)
	}
	acct, err := sdktypes.AccountFromBase58(secret)
	if err != nil {
		return sdktypes.Account{}, fmt.Errorf("parse base58 secret from env %s: %w", envName, err)
	}
	return acct, nil
}

func loadWalletFile(path string) (sdktypes.Account, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return sdktypes.Account{}, fmt.Errorf("read wallet file %s: %w", path, err)
	}

	// keygen 输出形如 [12,34,...] 的 64 个整数
	var nums []int
	if err := json.Unmarshal(raw, &nums); err != nil {
		return sdktypes.Account{}, fmt.Errorf("wallet file %s is not a json int array: %w", path, err)
	}
	key := make([]byte, len(nums))
	for i, n := range nums {
		if n < 0 || n > 255 {
			return sdktypes.Account{}, fmt.Errorf("wallet file %s: element %d out of byte range: %d", path, i, n)
		}
		key[i] = byte(n)
	}

	acct, err := sdktypes.AccountFromBytes(key)
	if err != nil {
		return sdktypes.Account{}, fmt.Errorf("wallet file %s: %w", path, err)
	}
	return acct, nil
}
