package mq

import (
	"context"
	"crypto/sha256"
	"testing"

	"claims-registry-sol/internal/config"
	"claims-registry-sol/internal/events"
	"claims-registry-sol/internal/registry"
	"claims-registry-sol/internal/types"

	sdktypes "github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPublisherConfig() config.KafkaProducerConfig {
	var cfg config.KafkaProducerConfig
	cfg.Brokers = "127.0.0.1:9092"
	cfg.Topics.Claims = "registry_claims"
	cfg.Partitions.Claims = 4
	return cfg
}

func testClaim(id string) registry.Claim {
	return registry.Claim{
		ClaimIDHash: types.Digest(sha256.Sum256([]byte(id))),
		JSONURL:     "https://example.org/" + id + ".json",
		DataHash:    types.Digest(sha256.Sum256([]byte(id + "-data"))),
		Creator:     types.Pubkey(sdktypes.NewAccount().PublicKey),
		CreatedAt:   1_700_000_000,
	}
}

func TestBuildJobs_EncodesEachClaim(t *testing.T) {
	p := NewPublisher(nil, testPublisherConfig(), 0)
	registryAddr := types.Pubkey(sdktypes.NewAccount().PublicKey)
	claims := []registry.Claim{testClaim("a"), testClaim("b"), testClaim("c")}

	jobs, err := p.buildJobs(registryAddr, 5, claims)
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	for i, job := range jobs {
		assert.Equal(t, "registry_claims", job.Topic)
		assert.Equal(t, claims[i].ClaimIDHash.Bytes(), job.Key, "消息 key 应为 claim_id_hash")
		assert.GreaterOrEqual(t, job.Partition, int32(0))
		assert.Less(t, job.Partition, int32(4), "分区号应落在配置范围内")

		eventType, ev, err := events.DecodeEvent(job.Value)
		require.NoError(t, err, "消息体应可解码为条目事件")
		assert.Equal(t, events.EventTypeClaimAdded, eventType)
		assert.Equal(t, uint32(5+i), ev.Index, "事件序号应从 startIndex 连续递增")
		assert.Equal(t, [32]uint8(registryAddr), ev.Registry)
		assert.Equal(t, claims[i].JSONURL, ev.JSONURL)
	}
}

func TestBuildJobs_PartitionStable(t *testing.T) {
	p := NewPublisher(nil, testPublisherConfig(), 0)
	registryAddr := types.Pubkey(sdktypes.NewAccount().PublicKey)
	claim := testClaim("stable")

	first, err := p.buildJobs(registryAddr, 0, []registry.Claim{claim})
	require.NoError(t, err)
	second, err := p.buildJobs(registryAddr, 9, []registry.Claim{claim})
	require.NoError(t, err)

	assert.Equal(t, first[0].Partition, second[0].Partition, "同一条目应始终映射到同一分区")
}

func TestPublishClaims_EmptyIsNoop(t *testing.T) {
	p := NewPublisher(nil, testPublisherConfig(), 0)

	err := p.PublishClaims(context.Background(), types.Pubkey{}, 0, nil)
	assert.NoError(t, err, "空条目列表不应触发任何发送")
}

func TestNewPublisher_Defaults(t *testing.T) {
	var cfg config.KafkaProducerConfig
	cfg.Topics.Claims = "registry_claims"

	p := NewPublisher(nil, cfg, 0)
	assert.Equal(t, int32(1), p.partitions, "未配置分区数时按单分区处理")
	assert.Equal(t, defaultSendTimeout, p.sendTimeout)
}
