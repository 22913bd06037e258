package submitter

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"claims-registry-sol/internal/chain"
	"claims-registry-sol/internal/consts"
	"claims-registry-sol/internal/registry"

	"github.com/blocto/solana-go-sdk/common"
	sdktypes "github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway 按脚本应答的 Gateway 假实现
type fakeGateway struct {
	balance    uint64
	balanceErr error

	refErr   error
	refCount int

	submitErrs []error // 第 i 次提交返回的错误，nil 表示成功
	submitted  []sdktypes.Transaction

	reachable  bool
	confirmErr error
	confirmed  []string
}

func (f *fakeGateway) GetBalance(ctx context.Context, addr common.PublicKey) (uint64, error) {
	return f.balance, f.balanceErr
}

func (f *fakeGateway) GetLatestReference(ctx context.Context) (string, error) {
	if f.refErr != nil {
		return "", f.refErr
	}
	f.refCount++
	var h [32]byte
	h[0] = byte(f.refCount)
	return base58.Encode(h[:]), nil
}

func (f *fakeGateway) GetAccountSnapshot(ctx context.Context, addr common.PublicKey) ([]byte, bool, error) {
	return nil, false, nil
}

func (f *fakeGateway) Submit(ctx context.Context, tx sdktypes.Transaction) (string, error) {
	idx := len(f.submitted)
	f.submitted = append(f.submitted, tx)
	if idx < len(f.submitErrs) && f.submitErrs[idx] != nil {
		return "", f.submitErrs[idx]
	}
	return fmt.Sprintf("sig-%d", idx+1), nil
}

func (f *fakeGateway) IsReachable(ctx context.Context) bool {
	return f.reachable
}

func (f *fakeGateway) WaitForConfirmation(ctx context.Context, sig string) error {
	f.confirmed = append(f.confirmed, sig)
	return f.confirmErr
}

func staleErr() error {
	return chain.MapSubmitError(errors.New("Transaction simulation failed: BlockhashNotFound"))
}

func testInstruction(payer common.PublicKey) sdktypes.Instruction {
	b := registry.NewBuilder(
		common.PublicKeyFromString(consts.ClaimsProgramStr),
		sdktypes.NewAccount().PublicKey,
	)
	return b.GetClaims(payer)
}

func newTestSubmitter(gw *fakeGateway) (*Submitter, *[]time.Duration, sdktypes.Account) {
	payer := sdktypes.NewAccount()
	sub := New(gw, payer, RetryConfig{
		MaxAttempts:        3,
		RetryDelay:         2 * time.Second,
		MinBalanceLamports: 5000,
	})
	delays := &[]time.Duration{}
	sub.sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return sub, delays, payer
}

func TestSubmit_SucceedsAfterStaleRetries(t *testing.T) {
	gw := &fakeGateway{
		balance:    1_000_000,
		submitErrs: []error{staleErr(), staleErr(), nil},
	}
	sub, delays, payer := newTestSubmitter(gw)

	sig, err := sub.SubmitInstruction(context.Background(), testInstruction(payer.PublicKey))
	require.NoError(t, err, "第三次尝试成功时整体应成功")
	assert.Equal(t, "sig-3", sig)
	assert.Len(t, gw.submitted, 3, "应提交 3 次")
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, *delays, "两次重试间各等待一次")

	// 每次尝试都应使用新取的 blockhash
	seen := map[string]bool{}
	for _, tx := range gw.submitted {
		seen[tx.Message.RecentBlockHash] = true
	}
	assert.Len(t, seen, 3, "三次提交应使用三个不同的引用")
}

func TestSubmit_NonStaleFailsImmediately(t *testing.T) {
	rejection := chain.MapSubmitError(errors.New("custom program error: 0x1771"))
	gw := &fakeGateway{
		balance:    1_000_000,
		submitErrs: []error{rejection},
	}
	sub, delays, payer := newTestSubmitter(gw)

	_, err := sub.SubmitInstruction(context.Background(), testInstruction(payer.PublicKey))
	var rej *chain.RejectionError
	require.ErrorAs(t, err, &rej, "链上程序拒绝不应触发重试")
	assert.Equal(t, chain.RejectionDuplicateClaim, rej.Code)
	assert.Len(t, gw.submitted, 1, "首错即终，只应提交一次")
	assert.Empty(t, *delays, "不应有任何重试等待")
}

func TestSubmit_ExhaustsAttempts(t *testing.T) {
	gw := &fakeGateway{
		balance:    1_000_000,
		submitErrs: []error{staleErr(), staleErr(), staleErr()},
	}
	sub, delays, payer := newTestSubmitter(gw)

	_, err := sub.SubmitInstruction(context.Background(), testInstruction(payer.PublicKey))
	require.ErrorIs(t, err, chain.ErrStaleReference, "全部尝试耗尽后应返回最后一次过期引用错误")
	assert.Len(t, gw.submitted, 3)
	assert.Len(t, *delays, 2, "最后一次失败后不再等待")
}

func TestSubmit_InsufficientBalance(t *testing.T) {
	gw := &fakeGateway{balance: 4999}
	sub, delays, payer := newTestSubmitter(gw)

	_, err := sub.SubmitInstruction(context.Background(), testInstruction(payer.PublicKey))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Zero(t, gw.refCount, "余额不足时不应取引用")
	assert.Empty(t, gw.submitted, "余额不足时不应提交")
	assert.Empty(t, *delays)
}

func TestSubmit_BalanceExactlyAtMinimum(t *testing.T) {
	gw := &fakeGateway{balance: 5000}
	sub, _, payer := newTestSubmitter(gw)

	sig, err := sub.SubmitInstruction(context.Background(), testInstruction(payer.PublicKey))
	require.NoError(t, err, "余额恰好等于门槛应放行")
	assert.Equal(t, "sig-1", sig)
}

func TestSubmit_ReferenceFetchError(t *testing.T) {
	gw := &fakeGateway{
		balance: 1_000_000,
		refErr:  fmt.Errorf("%w: dial tcp: connection refused", chain.ErrConnection),
	}
	sub, _, payer := newTestSubmitter(gw)

	_, err := sub.SubmitInstruction(context.Background(), testInstruction(payer.PublicKey))
	require.ErrorIs(t, err, chain.ErrConnection, "取引用失败应直接失败")
	assert.Empty(t, gw.submitted)
}

func TestSubmit_SleepAborted(t *testing.T) {
	gw := &fakeGateway{
		balance:    1_000_000,
		submitErrs: []error{staleErr(), staleErr()},
	}
	sub, _, payer := newTestSubmitter(gw)
	sub.sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	_, err := sub.SubmitInstruction(context.Background(), testInstruction(payer.PublicKey))
	require.ErrorIs(t, err, context.Canceled, "重试等待被取消应中止提交")
	assert.Len(t, gw.submitted, 1)
}

func TestSubmitAndConfirm(t *testing.T) {
	gw := &fakeGateway{balance: 1_000_000}
	sub, _, payer := newTestSubmitter(gw)

	sig, err := sub.SubmitAndConfirm(context.Background(), testInstruction(payer.PublicKey))
	require.NoError(t, err)
	assert.Equal(t, []string{sig}, gw.confirmed, "提交成功后应等待该签名确认")
}

func TestRetryConfig_Defaults(t *testing.T) {
	cfg := RetryConfig{}.withDefaults()
	assert.Equal(t, consts.DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, time.Duration(consts.DefaultRetryDelayS)*time.Second, cfg.RetryDelay)
	assert.Equal(t, uint64(consts.MinBalanceLamports), cfg.MinBalanceLamports)
}
