package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"claims-registry-sol/internal/client"
	"claims-registry-sol/internal/config"
	"claims-registry-sol/internal/registry"
	"claims-registry-sol/internal/types"
	"claims-registry-sol/pkg/logger"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
)

var configFile = flag.String("f", "etc/cli.yaml", "the config file")

// opTimeout 覆盖最长路径：有界重试 + 确认等待
const opTimeout = 120 * time.Second

const usageText = `usage: cli [-f etc/cli.yaml] <command> [args]

commands:
  balance                                    查询付款钱包余额（lamports）
  initialize [initial-owner-base58]          初始化登记账户
  add-claim <claim-id> <json-url> <hash-hex> 追加一条登记条目
  get-claims                                 列出全部登记条目
  get-owner                                  查询当前所有者
  transfer-ownership <new-owner-base58>      发起所有权转移
  accept-ownership                           接受所有权转移
  renounce-ownership                         放弃所有权
`

func usage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
			os.Exit(1)
		}
	}()

	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var c config.ClientConfig
	conf.MustLoad(*configFile, &c)

	if err := logger.InitLogger(c.LogConf.ToLogOption()); err != nil {
		panic(err)
	}
	defer logger.Sync()

	cli, err := client.New(c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := runCommand(ctx, cli, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, cli *client.Client, command string, args []string) error {
	switch command {
	case "balance":
		lamports, err := cli.Balance(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("payer: %s\nbalance: %d lamports\n", cli.Payer().ToBase58(), lamports)
		return nil

	case "initialize":
		var initialOwner *types.Pubkey
		if len(args) > 0 {
			owner, err := types.TryPubkeyFromBase58(args[0])
			if err != nil {
				return fmt.Errorf("invalid initial owner: %w", err)
			}
			initialOwner = &owner
		}
		sig, err := cli.Initialize(ctx, initialOwner)
		if err != nil {
			return err
		}
		fmt.Printf("initialized, signature: %s\n", sig)
		return nil

	case "add-claim":
		if len(args) != 3 {
			return fmt.Errorf("add-claim expects <claim-id> <json-url> <data-hash-hex>")
		}
		dataHash, err := types.DigestFromHex(args[2])
		if err != nil {
			return fmt.Errorf("invalid data hash: %w", err)
		}
		sig, err := cli.AddClaim(ctx, args[0], args[1], dataHash.Bytes())
		if err != nil {
			return err
		}
		fmt.Printf("claim added, signature: %s\n", sig)
		return nil

	case "get-claims":
		claims, err := cli.GetClaims(ctx)
		if err != nil {
			return err
		}
		return printClaims(claims)

	case "get-owner":
		owner, err := cli.GetOwner(ctx)
		if err != nil {
			return err
		}
		if owner == nil {
			fmt.Println("owner: none")
		} else {
			fmt.Printf("owner: %s\n", owner.String())
		}
		return nil

	case "transfer-ownership":
		if len(args) != 1 {
			return fmt.Errorf("transfer-ownership expects <new-owner-base58>")
		}
		newOwner, err := types.TryPubkeyFromBase58(args[0])
		if err != nil {
			return fmt.Errorf("invalid new owner: %w", err)
		}
		sig, err := cli.TransferOwnership(ctx, newOwner)
		if err != nil {
			return err
		}
		fmt.Printf("transfer initiated, signature: %s\n", sig)
		return nil

	case "accept-ownership":
		sig, err := cli.AcceptOwnership(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("ownership accepted, signature: %s\n", sig)
		return nil

	case "renounce-ownership":
		sig, err := cli.RenounceOwnership(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("ownership renounced, signature: %s\n", sig)
		return nil

	default:
		usage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

type claimView struct {
	ClaimIDHash string `json:"claim_id_hash"`
	JSONURL     string `json:"json_url"`
	DataHash    string `json:"data_hash"`
	Creator     string `json:"creator"`
	CreatedAt   int64  `json:"created_at"`
}

func printClaims(claims []registry.Claim) error {
	views := make([]claimView, 0, len(claims))
	for _, c := range claims {
		views = append(views, claimView{
			ClaimIDHash: c.ClaimIDHash.String(),
			JSONURL:     c.JSONURL,
			DataHash:    c.DataHash.String(),
			Creator:     c.Creator.String(),
			CreatedAt:   c.CreatedAt,
		})
	}
	out, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
