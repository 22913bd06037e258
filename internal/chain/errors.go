// Package chain 实现远端服务面：RPC 网关、错误映射与密钥加载。
package chain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrConnection 远端不可达（拨号失败、超时等传输层错误）
	ErrConnection = errors.New("remote service unreachable")

	// ErrStaleReference 交易引用的 blockhash 已过期或未知；
	// 提交方在重试窗口内对它透明重试，其余提交错误首错即终
	ErrStaleReference = errors.New("stale reference value")
)

// RejectionCode 链上程序自定义错误码的闭集映射
type RejectionCode int

const (
	RejectionUnknown RejectionCode = iota
	RejectionUnauthorized
	RejectionDuplicateClaim
	RejectionInvalidClaimID
	RejectionInvalidURL
	RejectionInvalidNewOwner
	RejectionNoPendingTransfer
)

// Anchor 自定义错误码从 6000 (0x1770) 起按声明顺序递增
const anchorErrorBase = 6000

func rejectionFromCode(code uint64) RejectionCode {
	switch code {
	case anchorErrorBase + 0:
		return RejectionUnauthorized
	case anchorErrorBase + 1:
		return RejectionDuplicateClaim
	case anchorErrorBase + 2:
		return RejectionInvalidClaimID
	case anchorErrorBase + 3:
		return RejectionInvalidURL
	case anchorErrorBase + 4:
		return RejectionInvalidNewOwner
	case anchorErrorBase + 5:
		return RejectionNoPendingTransfer
	default:
		return RejectionUnknown
	}
}

var rejectionNames = map[RejectionCode]string{
	RejectionUnknown:           "Unknown",
	RejectionUnauthorized:      "Unauthorized",
	RejectionDuplicateClaim:    "DuplicateClaim",
	RejectionInvalidClaimID:    "InvalidClaimId",
	RejectionInvalidURL:        "InvalidUrl",
	RejectionInvalidNewOwner:   "InvalidNewOwner",
	RejectionNoPendingTransfer: "NoPendingTransfer",
}

func (c RejectionCode) String() string {
	if name, ok := rejectionNames[c]; ok {
		return name
	}
	return "Unknown"
}

// RejectionError 远端程序以自定义错误码拒绝了交易
type RejectionError struct {
	Code RejectionCode
	Raw  uint64 // 原始错误码，Code 为 Unknown 时用于诊断
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("remote program rejected transaction: %s (code %d)", e.Code, e.Raw)
}

// RPC 错误文本中的自定义错误码，十六进制或十进制
var customErrPattern = regexp.MustCompile(`custom program error: (?:0x([0-9a-fA-F]+)|(\d+))`)

// MapSubmitError 将 RPC 提交错误映射到错误闭集：
// 文本含 BlockhashNotFound -> ErrStaleReference；
// 含 custom program error 且错误码可解析 -> RejectionError；
// 其余原样返回，由上层判定为致命。
func MapSubmitError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()

	if strings.Contains(msg, "BlockhashNotFound") {
		return fmt.Errorf("%w: %s", ErrStaleReference, msg)
	}

	if m := customErrPattern.FindStringSubmatch(msg); m != nil {
		var (
			code    uint64
			perr    error
			rawText string
		)
		if m[1] != "" {
			rawText = m[1]
			code, perr = strconv.ParseUint(rawText, 16, 64)
		} else {
			rawText = m[2]
			code, perr = strconv.ParseUint(rawText, 10, 64)
		}
		if perr != nil {
			return err
		}
		return &RejectionError{Code: rejectionFromCode(code), Raw: code}
	}

	return err
}
