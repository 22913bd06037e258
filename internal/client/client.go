// Package client 提供面向登记程序的操作门面：
// 构造期完成一次性校验与 PDA 推导，操作期串联 构建指令 -> 可达性探测 -> 提交。
package client

import (
	"context"
	"errors"
	"fmt"

	"claims-registry-sol/internal/chain"
	"claims-registry-sol/internal/config"
	"claims-registry-sol/internal/registry"
	"claims-registry-sol/internal/submitter"
	"claims-registry-sol/internal/types"
	"claims-registry-sol/pkg/logger"

	"github.com/blocto/solana-go-sdk/common"
	sdktypes "github.com/blocto/solana-go-sdk/types"
)

// Client 登记程序客户端。所有操作共用同一付费账户与同一登记账户。
type Client struct {
	gw       chain.Gateway
	sub      *submitter.Submitter
	builder  *registry.Builder
	payer    sdktypes.Account
	registry common.PublicKey
}

// New 按配置构造客户端。
// 构造期校验：endpoint 非空、program_id 可解析、密钥可加载，任一失败即报错。
func New(cfg config.ClientConfig) (*Client, error) {
	if cfg.Chain.Endpoint == "" {
		return nil, errors.New("chain.endpoint is empty")
	}

	programID, err := cfg.Chain.ProgramKey()
	if err != nil {
		return nil, err
	}
	commitment, err := cfg.Chain.CommitmentLevel()
	if err != nil {
		return nil, err
	}

	payer, err := chain.LoadWallet(cfg.Wallet.KeyPath, cfg.Wallet.KeyEnv)
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}

	gw, err := chain.NewRPCGateway(cfg.Chain.Endpoint, commitment)
	if err != nil {
		return nil, err
	}

	return newWithGateway(gw, payer, programID, cfg.Submit.ToRetryConfig())
}

// newWithGateway 注入 Gateway 的构造入口，测试用假网关走这里
func newWithGateway(gw chain.Gateway, payer sdktypes.Account, programID common.PublicKey, retry submitter.RetryConfig) (*Client, error) {
	registryAddr, err := registry.DeriveRegistryAddress(programID)
	if err != nil {
		return nil, err
	}
	logger.Infof("[Client] program: %s, registry: %s, payer: %s",
		programID.ToBase58(), registryAddr.ToBase58(), payer.PublicKey.ToBase58())

	return &Client{
		gw:       gw,
		sub:      submitter.New(gw, payer, retry),
		builder:  registry.NewBuilder(programID, registryAddr),
		payer:    payer,
		registry: registryAddr,
	}, nil
}

// Payer 返回付费账户公钥
func (c *Client) Payer() common.PublicKey {
	return c.payer.PublicKey
}

// RegistryAddress 返回推导出的登记账户地址
func (c *Client) RegistryAddress() common.PublicKey {
	return c.registry
}

// Balance 查询付费账户余额（lamports）
func (c *Client) Balance(ctx context.Context) (uint64, error) {
	return c.gw.GetBalance(ctx, c.payer.PublicKey)
}

// Initialize 创建并初始化登记账户。
// initialOwner 为 nil 时由创建者担任所有者。
func (c *Client) Initialize(ctx context.Context, initialOwner *types.Pubkey) (string, error) {
	ins := c.builder.Initialize(c.payer.PublicKey, initialOwner)
	if err := c.ensureReachable(ctx); err != nil {
		return "", err
	}
	return c.sub.SubmitAndConfirm(ctx, ins)
}

// AddClaim 追加一条登记条目。
// 本地校验（claim_id、json_url 非空，data_hash 恰 32 字节）先于任何网络交互。
func (c *Client) AddClaim(ctx context.Context, claimID, jsonURL string, dataHash []byte) (string, error) {
	ins, err := c.builder.AddClaim(c.payer.PublicKey, claimID, jsonURL, dataHash)
	if err != nil {
		return "", err
	}
	if err := c.ensureReachable(ctx); err != nil {
		return "", err
	}
	return c.sub.SubmitAndConfirm(ctx, ins)
}

// GetClaims 读取登记账户中的全部条目。
// 账户缺席或内容不可解码时降级为空列表并记日志，不视为失败；只有连接类错误上抛。
func (c *Client) GetClaims(ctx context.Context) ([]registry.Claim, error) {
	st, err := c.fetchState(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return []registry.Claim{}, nil
	}
	return st.Claims, nil
}

// GetOwner 读取当前所有者。
// 账户缺席、内容不可解码或 owner 为全零时返回 nil。
func (c *Client) GetOwner(ctx context.Context) (*types.Pubkey, error) {
	st, err := c.fetchState(ctx)
	if err != nil || st == nil {
		return nil, err
	}
	return st.OwnerOrNil(), nil
}

// TransferOwnership 发起两步制所有权转移的第一步，等待新所有者接受
func (c *Client) TransferOwnership(ctx context.Context, newOwner types.Pubkey) (string, error) {
	ins := c.builder.TransferOwnership(c.payer.PublicKey, newOwner)
	if err := c.ensureReachable(ctx); err != nil {
		return "", err
	}
	return c.sub.SubmitAndConfirm(ctx, ins)
}

// AcceptOwnership 以待定新所有者身份接受所有权
func (c *Client) AcceptOwnership(ctx context.Context) (string, error) {
	ins := c.builder.AcceptOwnership(c.payer.PublicKey)
	if err := c.ensureReachable(ctx); err != nil {
		return "", err
	}
	return c.sub.SubmitAndConfirm(ctx, ins)
}

// RenounceOwnership 放弃所有权，登记账户进入无所有者状态
func (c *Client) RenounceOwnership(ctx context.Context) (string, error) {
	ins := c.builder.RenounceOwnership(c.payer.PublicKey)
	if err := c.ensureReachable(ctx); err != nil {
		return "", err
	}
	return c.sub.SubmitAndConfirm(ctx, ins)
}

func (c *Client) ensureReachable(ctx context.Context) error {
	if !c.gw.IsReachable(ctx) {
		return fmt.Errorf("%w: reachability probe failed", chain.ErrConnection)
	}
	return nil
}

// fetchState 拉取并解码登记账户快照。
// 返回 (nil, nil) 表示账户缺席或内容不可用，读路径按空状态处理。
func (c *Client) fetchState(ctx context.Context) (*registry.ProgramState, error) {
	buf, exists, err := c.gw.GetAccountSnapshot(ctx, c.registry)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.Infof("[Client] registry account %s not found, treating as empty", c.registry.ToBase58())
		return nil, nil
	}
	st, err := registry.DecodeProgramState(buf)
	if err != nil {
		logger.Errorf("[Client] registry account %s undecodable, len: %d, err: %v",
			c.registry.ToBase58(), len(buf), err)
		return nil, nil
	}
	return st, nil
}
