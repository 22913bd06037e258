package chain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSubmitError_Nil(t *testing.T) {
	assert.NoError(t, MapSubmitError(nil), "nil 错误应原样返回")
}

func TestMapSubmitError_StaleReference(t *testing.T) {
	raw := errors.New(`rpc response error: {"code":-32002,"message":"Transaction simulation failed: BlockhashNotFound"}`)
	mapped := MapSubmitError(raw)
	assert.ErrorIs(t, mapped, ErrStaleReference, "BlockhashNotFound 应映射为过期引用错误")
}

func TestMapSubmitError_KnownRejections(t *testing.T) {
	cases := []struct {
		hex  string
		code RejectionCode
		raw  uint64
	}{
		{"0x1770", RejectionUnauthorized, 6000},
		{"0x1771", RejectionDuplicateClaim, 6001},
		{"0x1772", RejectionInvalidClaimID, 6002},
		{"0x1773", RejectionInvalidURL, 6003},
		{"0x1774", RejectionInvalidNewOwner, 6004},
		{"0x1775", RejectionNoPendingTransfer, 6005},
	}
	for _, tc := range cases {
		raw := fmt.Errorf("Error processing Instruction 0: custom program error: %s", tc.hex)
		mapped := MapSubmitError(raw)

		var rej *RejectionError
		require.ErrorAs(t, mapped, &rej, "错误码 %s 应映射为 RejectionError", tc.hex)
		assert.Equal(t, tc.code, rej.Code, "错误码 %s 映射结果不符", tc.hex)
		assert.Equal(t, tc.raw, rej.Raw, "原始错误码应保留")
	}
}

func TestMapSubmitError_DecimalCode(t *testing.T) {
	raw := errors.New("custom program error: 6001")
	mapped := MapSubmitError(raw)

	var rej *RejectionError
	require.ErrorAs(t, mapped, &rej)
	assert.Equal(t, RejectionDuplicateClaim, rej.Code, "十进制错误码也应可解析")
}

func TestMapSubmitError_UnknownCode(t *testing.T) {
	raw := errors.New("custom program error: 0x1807")
	mapped := MapSubmitError(raw)

	var rej *RejectionError
	require.ErrorAs(t, mapped, &rej)
	assert.Equal(t, RejectionUnknown, rej.Code, "闭集之外的错误码应归为 Unknown")
	assert.Equal(t, uint64(6151), rej.Raw, "原始错误码应保留供诊断")
	assert.Contains(t, rej.Error(), "6151")
}

func TestMapSubmitError_Passthrough(t *testing.T) {
	raw := errors.New("connection refused")
	assert.Equal(t, raw, MapSubmitError(raw), "无法归类的错误应原样返回")

	garbled := errors.New("custom program error: banana")
	assert.Equal(t, garbled, MapSubmitError(garbled), "错误码不可解析时应原样返回")
}

func TestRejectionCode_String(t *testing.T) {
	assert.Equal(t, "Unauthorized", RejectionUnauthorized.String())
	assert.Equal(t, "NoPendingTransfer", RejectionNoPendingTransfer.String())
	assert.Equal(t, "Unknown", RejectionCode(99).String())
}
