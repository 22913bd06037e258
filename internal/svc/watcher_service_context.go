package svc

import (
	"github.com/blocto/solana-go-sdk/common"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/redis/go-redis/v9"

	"claims-registry-sol/internal/cache"
	"claims-registry-sol/internal/chain"
	"claims-registry-sol/internal/config"
	"claims-registry-sol/internal/mq"
	"claims-registry-sol/internal/progress"
	"claims-registry-sol/internal/registry"
	"claims-registry-sol/internal/watcher"
	"claims-registry-sol/pkg/logger"
)

// WatcherServiceContext 包含监视服务资源
type WatcherServiceContext struct {
	Config       config.WatcherConfig
	RegistryAddr common.PublicKey
	Gateway      chain.Gateway
	StateCache   *cache.StateCache
	Producer     *kafka.Producer
	Redis        *redis.Client
	Processor    *watcher.Processor
}

// NewWatcherServiceContext 创建一个新的监视服务上下文
func NewWatcherServiceContext(c config.WatcherConfig) (*WatcherServiceContext, error) {
	// 1. 解析程序地址并派生登记账户地址
	programID, err := c.Chain.ProgramKey()
	if err != nil {
		logger.Errorf("程序地址解析失败: %v", err)
		return nil, err
	}
	registryAddr, err := registry.DeriveRegistryAddress(programID)
	if err != nil {
		logger.Errorf("登记账户地址派生失败: %v", err)
		return nil, err
	}

	// 2. 初始化 RPC 网关（poll 模式的数据源，geyser 模式下备用）
	commitment, err := c.Chain.CommitmentLevel()
	if err != nil {
		return nil, err
	}
	gw, err := chain.NewRPCGateway(c.Chain.Endpoint, commitment)
	if err != nil {
		logger.Errorf("RPC 网关初始化失败: %v", err)
		return nil, err
	}

	// 3. 初始化 Kafka 生产者与事件发布器
	producer, err := mq.NewKafkaProducer(c.KafkaProducerConf)
	if err != nil {
		logger.Errorf("Kafka producer 初始化失败: %v", err)
		return nil, err
	}
	publisher := mq.NewPublisher(producer, c.KafkaProducerConf, c.Watch.SendTimeoutMs)

	// 4. 初始化 Redis 客户端与发布游标存储
	rdb := redis.NewClient(&redis.Options{
		Addr: c.RedisAddr, // eg: "127.0.0.1:6379"
	})
	cursor := progress.NewCursorStore(rdb)

	// 5. 构造上下文
	stateCache := cache.NewStateCache()
	ctx := &WatcherServiceContext{
		Config:       c,
		RegistryAddr: registryAddr,
		Gateway:      gw,
		StateCache:   stateCache,
		Producer:     producer,
		Redis:        rdb,
		Processor:    watcher.NewProcessor(registryAddr, stateCache, publisher, cursor),
	}

	logger.Infof("监视服务上下文初始化完成, registry: %s", registryAddr.ToBase58())
	return ctx, nil
}

// Close 关闭服务上下文中的资源
func (ctx *WatcherServiceContext) Close() {
	if ctx.Producer != nil {
		ctx.Producer.Close()
	}
	if ctx.Redis != nil {
		_ = ctx.Redis.Close()
	}
}
