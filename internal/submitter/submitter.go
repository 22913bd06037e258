// Package submitter 负责交易的签名、提交与过期引用重试。
package submitter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"claims-registry-sol/internal/chain"
	"claims-registry-sol/internal/consts"
	"claims-registry-sol/pkg/logger"

	sdktypes "github.com/blocto/solana-go-sdk/types"
)

// ErrInsufficientFunds 付费账户余额低于提交门槛，未发起任何提交
var ErrInsufficientFunds = errors.New("payer balance below minimum")

// RetryConfig 提交重试参数，零值字段取默认值
type RetryConfig struct {
	MaxAttempts        int           // 最大尝试次数（含首次）
	RetryDelay         time.Duration // 相邻尝试之间的等待
	MinBalanceLamports uint64        // 付费账户最低余额（lamports）
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = consts.DefaultMaxAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Duration(consts.DefaultRetryDelayS) * time.Second
	}
	if c.MinBalanceLamports == 0 {
		c.MinBalanceLamports = consts.MinBalanceLamports
	}
	return c
}

// Submitter 对单个付费账户串行提交指令。
// 每次尝试都重新取最新 blockhash 并重新签名，
// 只有过期引用错误触发重试，其余错误首错即终。
type Submitter struct {
	gw    chain.Gateway
	payer sdktypes.Account
	cfg   RetryConfig

	// 可注入的等待函数，测试时替换以避免真实休眠
	sleep func(ctx context.Context, d time.Duration) error
}

func New(gw chain.Gateway, payer sdktypes.Account, cfg RetryConfig) *Submitter {
	return &Submitter{
		gw:    gw,
		payer: payer,
		cfg:   cfg.withDefaults(),
		sleep: sleepCtx,
	}
}

// Payer 返回付费账户公钥
func (s *Submitter) Payer() sdktypes.Account {
	return s.payer
}

// SubmitInstruction 提交单条指令并返回交易签名。
// 流程：余额门槛检查 -> 逐次尝试（取引用、签名、提交）-> 过期引用时延迟重试。
func (s *Submitter) SubmitInstruction(ctx context.Context, ins sdktypes.Instruction) (string, error) {
	// 1. 余额门槛检查，不足则不发起提交
	balance, err := s.gw.GetBalance(ctx, s.payer.PublicKey)
	if err != nil {
		return "", fmt.Errorf("check payer balance: %w", err)
	}
	if balance < s.cfg.MinBalanceLamports {
		return "", fmt.Errorf("%w: balance %d lamports, need at least %d",
			ErrInsufficientFunds, balance, s.cfg.MinBalanceLamports)
	}

	// 2. 提交循环，每次尝试都用新取的 blockhash 重新签名
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		ref, err := s.gw.GetLatestReference(ctx)
		if err != nil {
			return "", fmt.Errorf("fetch reference (attempt %d): %w", attempt, err)
		}

		tx, err := s.buildTransaction(ins, ref)
		if err != nil {
			return "", fmt.Errorf("build transaction: %w", err)
		}

		sig, err := s.gw.Submit(ctx, tx)
		if err == nil {
			logger.Infof("[Submitter] transaction sent, sig: %s, attempt: %d/%d", sig, attempt, s.cfg.MaxAttempts)
			return sig, nil
		}

		if !errors.Is(err, chain.ErrStaleReference) {
			return "", err
		}

		lastErr = err
		if attempt == s.cfg.MaxAttempts {
			break
		}
		logger.Warnf("[Submitter] stale reference, will retry, attempt: %d/%d, delay: %v",
			attempt, s.cfg.MaxAttempts, s.cfg.RetryDelay)
		if err := s.sleep(ctx, s.cfg.RetryDelay); err != nil {
			return "", fmt.Errorf("retry wait aborted: %w", err)
		}
	}

	return "", fmt.Errorf("all %d attempts exhausted: %w", s.cfg.MaxAttempts, lastErr)
}

// SubmitAndConfirm 提交指令并阻塞等待确认
func (s *Submitter) SubmitAndConfirm(ctx context.Context, ins sdktypes.Instruction) (string, error) {
	sig, err := s.SubmitInstruction(ctx, ins)
	if err != nil {
		return "", err
	}
	if err := s.gw.WaitForConfirmation(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

func (s *Submitter) buildTransaction(ins sdktypes.Instruction, ref string) (sdktypes.Transaction, error) {
	msg := sdktypes.NewMessage(sdktypes.NewMessageParam{
		FeePayer:        s.payer.PublicKey,
		RecentBlockhash: ref,
		Instructions:    []sdktypes.Instruction{ins},
	})
	return sdktypes.NewTransaction(sdktypes.NewTransactionParam{
		Message: msg,
		Signers: []sdktypes.Account{s.payer},
	})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
