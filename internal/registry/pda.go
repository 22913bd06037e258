package registry

import (
	"fmt"

	"claims-registry-sol/internal/consts"

	"github.com/blocto/solana-go-sdk/common"
)

// DeriveRegistryAddress 由程序地址与固定种子推导登记账户 PDA。
// 种子必须与链上程序的账户约束一致，推导结果是确定性的。
func DeriveRegistryAddress(programID common.PublicKey) (common.PublicKey, error) {
	addr, _, err := common.FindProgramAddress([][]byte{[]byte(consts.RegistrySeed)}, programID)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("derive registry address for %s: %w", programID.ToBase58(), err)
	}
	return addr, nil
}
