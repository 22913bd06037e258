// Package mq 封装 Kafka 生产端：生产者构建、并发发送与条目事件发布。
package mq

import (
	"context"
	"fmt"
	"time"

	"claims-registry-sol/internal/config"
	"claims-registry-sol/internal/utils"
	"claims-registry-sol/pkg/logger"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const (
	defaultBatchSize = 32 * 1024
	defaultLingerMs  = 5
)

// NewKafkaProducer 创建 Kafka 生产者，并确保 claims topic 存在
func NewKafkaProducer(cfg config.KafkaProducerConfig) (*kafka.Producer, error) {
	if cfg.Topics.Claims == "" {
		return nil, fmt.Errorf("kafka_producer.topics.claims is empty")
	}

	// 创建管理员客户端来管理 topic
	adminClient, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create admin client: %w", err)
	}
	defer adminClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	meta, err := adminClient.GetMetadata(nil, true, 10000)
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}
	brokerCount := len(meta.Brokers)

	replicationFactor := 1
	if brokerCount > 1 {
		replicationFactor = 2
	}
	logger.Infof("[mq] Kafka broker count = %d, using replication factor = %d", brokerCount, replicationFactor)

	// topic 不存在时按配置的分区数创建
	existingTopics := make(map[string]bool)
	for _, topic := range meta.Topics {
		existingTopics[topic.Topic] = true
	}

	if !existingTopics[cfg.Topics.Claims] {
		partitions := cfg.Partitions.Claims
		if partitions <= 0 {
			partitions = 1
		}
		results, err := adminClient.CreateTopics(ctx, []kafka.TopicSpecification{{
			Topic:             cfg.Topics.Claims,
			NumPartitions:     partitions,
			ReplicationFactor: replicationFactor,
		}})
		if err != nil {
			return nil, fmt.Errorf("failed to create topics: %w", err)
		}
		for _, result := range results {
			if result.Error.Code() != kafka.ErrNoError {
				return nil, fmt.Errorf("failed to create topic %s: %w", result.Topic, result.Error)
			}
		}
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	lingerMs := cfg.LingerMs
	if lingerMs < 0 {
		lingerMs = defaultLingerMs
	}

	// 创建生产者
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		// 基础连接
		"bootstrap.servers": cfg.Brokers,
		"client.id":         fmt.Sprintf("claims-registry-watcher-%s", utils.GetLocalIP()),

		// 生产环境建议开启 SASL_SSL，按部署环境补齐：
		//"security.protocol": "SASL_SSL",
		//"sasl.mechanisms":   "SCRAM-SHA-256",
		//"sasl.username":     "user",
		//"sasl.password":     "password",
		//"ssl.ca.location":   "/etc/ssl/certs/ca-certificates.crt",

		// 可靠性保障
		"acks":                                  "all", // 必须
		"enable.idempotence":                    true,  // 幂等开启
		"max.in.flight.requests.per.connection": 5,     // 幂等场景下最大值为 5

		// 超时与重试
		"delivery.timeout.ms": 30000,
		"request.timeout.ms":  30000,
		"retries":             5,   // 重试次数必须 > 0
		"retry.backoff.ms":    100, // 重试间隔

		// 性能优化
		"batch.size":       batchSize,
		"linger.ms":        lingerMs,
		"compression.type": "none",

		// 消息大小
		"message.max.bytes": 2 * 1024 * 1024, // 2MB
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	return producer, nil
}
