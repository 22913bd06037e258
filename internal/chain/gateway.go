package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"claims-registry-sol/pkg/logger"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/rpc"
	sdktypes "github.com/blocto/solana-go-sdk/types"
)

// 确认状态轮询间隔
const confirmPollInterval = 700 * time.Millisecond

// Gateway 抽象远端账本服务面，读路径与提交路径都经由它。
// 生产实现为 RPCGateway，测试用假实现注入。
type Gateway interface {
	// GetBalance 查询地址余额（lamports）
	GetBalance(ctx context.Context, addr common.PublicKey) (uint64, error)

	// GetLatestReference 取最新 blockhash，作为交易的时效性引用
	GetLatestReference(ctx context.Context) (string, error)

	// GetAccountSnapshot 拉取账户数据快照。
	// 账户不存在时返回 (nil, false, nil)，与错误区分开
	GetAccountSnapshot(ctx context.Context, addr common.PublicKey) ([]byte, bool, error)

	// Submit 提交已签名交易，返回签名；错误已经 MapSubmitError 归类
	Submit(ctx context.Context, tx sdktypes.Transaction) (string, error)

	// IsReachable 轻量探测远端是否可达
	IsReachable(ctx context.Context) bool

	// WaitForConfirmation 阻塞等待签名达到 confirmed 及以上，或 ctx 取消
	WaitForConfirmation(ctx context.Context, sig string) error
}

// RPCGateway 基于 JSON-RPC 的 Gateway 实现
type RPCGateway struct {
	cli        *client.Client
	commitment rpc.Commitment
}

// NewRPCGateway 建立 RPC 网关。endpoint 为空或客户端初始化失败视为构造期错误。
func NewRPCGateway(endpoint string, commitment rpc.Commitment) (*RPCGateway, error) {
	if endpoint == "" {
		return nil, errors.New("rpc endpoint is empty")
	}
	if commitment == "" {
		commitment = rpc.CommitmentConfirmed
	}
	cli := client.NewClient(endpoint)
	if cli == nil {
		return nil, fmt.Errorf("init rpc client failed, endpoint: %s", endpoint)
	}
	return &RPCGateway{cli: cli, commitment: commitment}, nil
}

func (g *RPCGateway) GetBalance(ctx context.Context, addr common.PublicKey) (uint64, error) {
	balance, err := g.cli.GetBalance(ctx, addr.ToBase58())
	if err != nil {
		return 0, fmt.Errorf("%w: get balance: %w", ErrConnection, err)
	}
	return balance, nil
}

func (g *RPCGateway) GetLatestReference(ctx context.Context) (string, error) {
	value, err := g.cli.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: get latest blockhash: %w", ErrConnection, err)
	}
	return value.Blockhash, nil
}

func (g *RPCGateway) GetAccountSnapshot(ctx context.Context, addr common.PublicKey) ([]byte, bool, error) {
	info, err := g.cli.GetAccountInfo(ctx, addr.ToBase58())
	if err != nil {
		return nil, false, fmt.Errorf("%w: get account info: %w", ErrConnection, err)
	}
	// 账户不存在时 RPC 返回空值，按"缺席"处理而非错误
	if info.Lamports == 0 && len(info.Data) == 0 {
		return nil, false, nil
	}
	return info.Data, true, nil
}

func (g *RPCGateway) Submit(ctx context.Context, tx sdktypes.Transaction) (string, error) {
	// 跳过预检，让链上程序错误以交易错误形态返回，统一走 MapSubmitError
	sig, err := g.cli.SendTransactionWithConfig(ctx, tx, client.SendTransactionConfig{
		SkipPreflight:       true,
		PreflightCommitment: g.commitment,
	})
	if err != nil {
		return "", MapSubmitError(err)
	}
	return sig, nil
}

func (g *RPCGateway) IsReachable(ctx context.Context) bool {
	if _, err := g.cli.GetSlot(ctx); err != nil {
		logger.Warnf("[Gateway] reachability probe failed: %v", err)
		return false
	}
	return true
}

func (g *RPCGateway) WaitForConfirmation(ctx context.Context, sig string) error {
	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait confirmation for %s: %w", sig, ctx.Err())
		case <-ticker.C:
			status, err := g.cli.GetSignatureStatus(ctx, sig)
			if err != nil {
				logger.Warnf("[Gateway] get signature status failed, sig: %s, err: %v", sig, err)
				continue
			}
			if status == nil {
				// 节点尚未见到该签名，继续等
				continue
			}
			if status.Err != nil {
				return MapSubmitError(fmt.Errorf("transaction %s failed on chain: %v", sig, status.Err))
			}
			if status.ConfirmationStatus == nil {
				continue
			}
			switch *status.ConfirmationStatus {
			case rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
				return nil
			}
		}
	}
}
