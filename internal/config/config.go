package config

import (
	"fmt"
	"strings"
	"time"

	"claims-registry-sol/internal/consts"
	"claims-registry-sol/internal/submitter"
	"claims-registry-sol/internal/types"
	"claims-registry-sol/pkg/logger"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/rpc"
	"gopkg.in/yaml.v3"
)

type LogConfig struct {
	Format   string `yaml:"format"`   // 日志格式，支持 "console" 或 "json"
	LogDir   string `yaml:"log_dir"`  // 日志目录（可为相对路径或绝对路径）
	Level    string `yaml:"level"`    // 日志级别：debug / info / warn / error
	Compress bool   `yaml:"compress"` // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// ChainConfig 表示账本 RPC 接入配置
type ChainConfig struct {
	Endpoint   string `yaml:"endpoint"`   // JSON-RPC 地址，例如 https://api.devnet.solana.com
	Commitment string `yaml:"commitment"` // 确认级别：processed / confirmed / finalized，为空取 confirmed
	ProgramID  string `yaml:"program_id"` // 登记程序地址，为空取默认部署地址
}

// ProgramKey 返回配置的程序地址，为空时取默认部署地址
func (c *ChainConfig) ProgramKey() (common.PublicKey, error) {
	s := c.ProgramID
	if s == "" {
		s = consts.ClaimsProgramStr
	}
	pk, err := types.TryPubkeyFromBase58(s)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("invalid program_id %q: %w", s, err)
	}
	return common.PublicKeyFromBytes(pk.Bytes()), nil
}

// CommitmentLevel 解析确认级别，为空取 confirmed
func (c *ChainConfig) CommitmentLevel() (rpc.Commitment, error) {
	switch strings.ToLower(c.Commitment) {
	case "", "confirmed":
		return rpc.CommitmentConfirmed, nil
	case "processed":
		return rpc.CommitmentProcessed, nil
	case "finalized":
		return rpc.CommitmentFinalized, nil
	default:
		return "", fmt.Errorf("unknown commitment level: %s", c.Commitment)
	}
}

// WalletConfig 表示签名密钥来源配置
type WalletConfig struct {
	KeyPath string `yaml:"key_path"` // keygen 生成的 JSON 密钥文件路径
	KeyEnv  string `yaml:"key_env"`  // 备选环境变量名，为空取 SOLANA_SECRET_KEY_B58
}

// SubmitConfig 表示交易提交与重试配置，零值字段取默认值
type SubmitConfig struct {
	MaxAttempts        int    `yaml:"max_attempts"`         // 最大尝试次数（含首次）
	RetryDelayS        int    `yaml:"retry_delay_s"`        // 相邻尝试间隔（秒）
	MinBalanceLamports uint64 `yaml:"min_balance_lamports"` // 付费账户最低余额
}

func (c *SubmitConfig) ToRetryConfig() submitter.RetryConfig {
	return submitter.RetryConfig{
		MaxAttempts:        c.MaxAttempts,
		RetryDelay:         time.Duration(c.RetryDelayS) * time.Second,
		MinBalanceLamports: c.MinBalanceLamports,
	}
}

// KafkaProducerConfig 表示 Kafka 生产者相关配置
type KafkaProducerConfig struct {
	Brokers   string `yaml:"brokers"`    // Kafka broker 地址，多个用英文逗号分隔
	BatchSize int    `yaml:"batch_size"` // 批处理大小（单位字节）
	LingerMs  int    `yaml:"linger_ms"`  // 批处理最大延迟（毫秒）

	Topics struct {
		Claims string `yaml:"claims"` // 登记条目事件的 Kafka topic
	} `yaml:"topics"`

	Partitions struct {
		Claims int `yaml:"claims"` // claims topic 的分区数
	} `yaml:"partitions"`
}

// WatchConfig 表示登记账户监视配置
type WatchConfig struct {
	Mode            string `yaml:"mode"`              // 数据源模式：poll（RPC 轮询）或 geyser（gRPC 推送）
	PollIntervalS   int    `yaml:"poll_interval_s"`   // poll 模式轮询间隔（秒）
	UpdateQueueSize int    `yaml:"update_queue_size"` // 账户更新缓冲队列长度
	SendTimeoutMs   int    `yaml:"send_timeout_ms"`   // 单条事件发送到 Kafka 并等待 ack 的超时时间
}

// GeyserConfig 表示 gRPC 推送源的连接配置
type GeyserConfig struct {
	Endpoint string `yaml:"endpoint"` // gRPC 服务端地址
	XToken   string `yaml:"x_token"`  // x-token 认证

	// 应用级逻辑心跳（ping）配置
	StreamPingIntervalSec int `yaml:"stream_ping_interval_sec"` // 应用层 ping 心跳间隔（秒）

	// gRPC Keepalive 底层连接检测配置
	KeepalivePingIntervalSec int `yaml:"keepalive_ping_interval_sec"` // 底层 keepalive 间隔（秒）
	KeepalivePingTimeoutSec  int `yaml:"keepalive_ping_timeout_sec"`  // 底层 keepalive 超时（秒）

	// gRPC 窗口大小调优（用于大数据流推送）
	InitialWindowSize     int `yaml:"initial_window_size"`      // 单流窗口大小（字节）
	InitialConnWindowSize int `yaml:"initial_conn_window_size"` // 整体连接窗口大小（字节）

	// 消息体大小限制
	MaxCallSendMsgSize int `yaml:"max_call_send_msg_size"` // 单条消息最大发送字节数
	MaxCallRecvMsgSize int `yaml:"max_call_recv_msg_size"` // 单条消息最大接收字节数

	// 超时与重连策略
	ReconnectIntervalSec int `yaml:"reconnect_interval_sec"` // 重连最小间隔（秒）
	ConnectTimeoutSec    int `yaml:"connect_timeout_sec"`    // 连接建立超时（秒）
	SendTimeoutSec       int `yaml:"send_timeout_sec"`       // 发送超时（秒）
}

// ClientConfig 是命令行客户端的主配置结构体
type ClientConfig struct {
	LogConf LogConfig    `yaml:"logger"` // 日志配置
	Chain   ChainConfig  `yaml:"chain"`  // RPC 接入配置
	Wallet  WalletConfig `yaml:"wallet"` // 签名密钥来源
	Submit  SubmitConfig `yaml:"submit"` // 提交与重试配置
}

// WatcherConfig 是登记监视服务的主配置结构体
type WatcherConfig struct {
	LogConf           LogConfig           `yaml:"logger"`         // 日志配置
	Chain             ChainConfig         `yaml:"chain"`          // RPC 接入配置
	KafkaProducerConf KafkaProducerConfig `yaml:"kafka_producer"` // Kafka 生产者配置
	Watch             WatchConfig         `yaml:"watch"`          // 监视配置
	Grpc              GeyserConfig        `yaml:"grpc"`           // gRPC 推送源配置（mode 为 geyser 时生效）

	RedisAddr string `yaml:"redis_addr"` // Redis 地址，存放发布游标
}

// String 输出脱敏后的 yaml 配置，供启动日志打印
func (c WatcherConfig) String() string {
	masked := c
	if masked.Grpc.XToken != "" {
		masked.Grpc.XToken = "******"
	}
	out, err := yaml.Marshal(masked)
	if err != nil {
		return fmt.Sprintf("marshal config failed: %v", err)
	}
	return string(out)
}
