package mq

import (
	"context"
	"fmt"
	"time"

	"claims-registry-sol/internal/config"
	"claims-registry-sol/internal/events"
	"claims-registry-sol/internal/registry"
	"claims-registry-sol/internal/types"
	"claims-registry-sol/internal/utils"
	"claims-registry-sol/pkg/logger"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const defaultSendTimeout = 5 * time.Second

// Publisher 将登记条目事件发布到 claims topic。
// 分区由 claim_id_hash 决定，同一条目的事件保持分区内有序。
type Publisher struct {
	producer    *kafka.Producer
	topic       string
	partitions  int32
	sendTimeout time.Duration
}

func NewPublisher(producer *kafka.Producer, cfg config.KafkaProducerConfig, sendTimeoutMs int) *Publisher {
	timeout := time.Duration(sendTimeoutMs) * time.Millisecond
	if sendTimeoutMs <= 0 {
		timeout = defaultSendTimeout
	}
	partitions := int32(cfg.Partitions.Claims)
	if partitions <= 0 {
		partitions = 1
	}
	return &Publisher{
		producer:    producer,
		topic:       cfg.Topics.Claims,
		partitions:  partitions,
		sendTimeout: timeout,
	}
}

// PublishClaims 将从 startIndex 起的新增条目逐条编码后并发发送。
// 任一条未确认即返回错误，调用方不得推进发布游标。
func (p *Publisher) PublishClaims(ctx context.Context, registryAddr types.Pubkey, startIndex uint32, claims []registry.Claim) error {
	if len(claims) == 0 {
		return nil
	}

	jobs, err := p.buildJobs(registryAddr, startIndex, claims)
	if err != nil {
		return err
	}

	okJobs, failed := SendKafkaJobs(ctx, p.producer, jobs, p.sendTimeout)
	if len(failed) > 0 {
		logger.Errorf("[Publisher] %d/%d claim events failed, topic: %s, first err: %v",
			len(failed), len(jobs), p.topic, failed[0].Err)
		return fmt.Errorf("publish claims: %d of %d failed: %w", len(failed), len(jobs), failed[0].Err)
	}

	logger.Infof("[Publisher] published %d claim events, topic: %s, from index: %d",
		len(okJobs), p.topic, startIndex)
	return nil
}

func (p *Publisher) buildJobs(registryAddr types.Pubkey, startIndex uint32, claims []registry.Claim) ([]*KafkaJob, error) {
	jobs := make([]*KafkaJob, 0, len(claims))
	for i, c := range claims {
		ev := events.FromClaim(registryAddr, startIndex+uint32(i), c)
		payload, err := events.EncodeEvent(events.EventTypeClaimAdded, ev)
		if err != nil {
			return nil, fmt.Errorf("encode claim event, index: %d, err: %w", ev.Index, err)
		}
		key := c.ClaimIDHash.Bytes()
		jobs = append(jobs, &KafkaJob{
			Topic:     p.topic,
			Partition: utils.PartitionForKey(key, p.partitions),
			Key:       key,
			Value:     payload,
		})
	}
	return jobs, nil
}
