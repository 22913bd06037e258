package watcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"claims-registry-sol/internal/config"
	"claims-registry-sol/pkg/logger"

	"github.com/blocto/solana-go-sdk/common"
	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
)

// GeyserWatcher 通过 Yellowstone gRPC 订阅登记账户的推送更新。
// 收到的账户数据写入 updateChan，由 UpdateConsumer 解码与发布。
type GeyserWatcher struct {
	mu                    sync.Mutex
	conn                  *grpc.ClientConn
	client                pb.GeyserClient
	stream                pb.Geyser_SubscribeClient
	stopped               bool
	reconnectAttempts     int
	reconnectInterval     time.Duration
	xToken                string
	registryAddr          common.PublicKey
	streamPingIntervalSec int
	sendTimeoutSec        int
	updateChan            chan<- *pb.SubscribeUpdateAccount
	connCtx               context.Context
	connCancel            context.CancelFunc
}

func NewGeyserWatcher(cfg config.GeyserConfig, registryAddr common.PublicKey, updateChan chan<- *pb.SubscribeUpdateAccount) (*GeyserWatcher, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("grpc.endpoint is empty")
	}
	applyGeyserDefaults(&cfg)

	configTls := &tls.Config{
		InsecureSkipVerify: true,
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ConnectTimeoutSec)*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(
		dialCtx,
		cfg.Endpoint,
		grpc.WithTransportCredentials(credentials.NewTLS(configTls)),
		grpc.WithInitialWindowSize(int32(cfg.InitialWindowSize)),
		grpc.WithInitialConnWindowSize(int32(cfg.InitialConnWindowSize)),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallSendMsgSize(cfg.MaxCallSendMsgSize),
			grpc.MaxCallRecvMsgSize(cfg.MaxCallRecvMsgSize),
		),
		grpc.WithBlock(),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                time.Duration(cfg.KeepalivePingIntervalSec) * time.Second,
			Timeout:             time.Duration(cfg.KeepalivePingTimeoutSec) * time.Second,
			PermitWithoutStream: true,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %v", err)
	}

	return &GeyserWatcher{
		conn:                  conn,
		client:                pb.NewGeyserClient(conn),
		reconnectAttempts:     0,
		reconnectInterval:     time.Duration(cfg.ReconnectIntervalSec) * time.Second,
		xToken:                cfg.XToken,
		registryAddr:          registryAddr,
		streamPingIntervalSec: cfg.StreamPingIntervalSec,
		sendTimeoutSec:        cfg.SendTimeoutSec,
		updateChan:            updateChan,
	}, nil
}

// applyGeyserDefaults 为零值的关键参数补默认值，避免配置遗漏导致的立即超时
func applyGeyserDefaults(cfg *config.GeyserConfig) {
	if cfg.ConnectTimeoutSec <= 0 {
		cfg.ConnectTimeoutSec = 10
	}
	if cfg.SendTimeoutSec <= 0 {
		cfg.SendTimeoutSec = 5
	}
	if cfg.StreamPingIntervalSec <= 0 {
		cfg.StreamPingIntervalSec = 15
	}
	if cfg.KeepalivePingIntervalSec <= 0 {
		cfg.KeepalivePingIntervalSec = 30
	}
	if cfg.KeepalivePingTimeoutSec <= 0 {
		cfg.KeepalivePingTimeoutSec = 10
	}
	if cfg.ReconnectIntervalSec <= 0 {
		cfg.ReconnectIntervalSec = 3
	}
	if cfg.InitialWindowSize <= 0 {
		cfg.InitialWindowSize = 1 << 20
	}
	if cfg.InitialConnWindowSize <= 0 {
		cfg.InitialConnWindowSize = 1 << 20
	}
	if cfg.MaxCallSendMsgSize <= 0 {
		cfg.MaxCallSendMsgSize = 16 * 1024 * 1024
	}
	if cfg.MaxCallRecvMsgSize <= 0 {
		cfg.MaxCallRecvMsgSize = 16 * 1024 * 1024
	}
}

func (m *GeyserWatcher) Start() {
	m.mustConnect()
}

func (m *GeyserWatcher) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopped = true
	if m.connCancel != nil {
		m.connCancel()
		m.connCancel = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
	}
}

// mustConnect 内部循环直到连接成功或被 Stop
func (m *GeyserWatcher) mustConnect() {
	for {
		m.mu.Lock()
		if m.stopped {
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()

		if m.reconnectAttempts > 0 {
			if m.reconnectAttempts > 3 {
				time.Sleep(m.reconnectInterval * 2)
			} else {
				time.Sleep(m.reconnectInterval)
			}
		}
		logger.Infof("[Geyser] connecting... attempt %d", m.reconnectAttempts+1)
		m.reconnectAttempts++
		if err := m.connect(); err == nil {
			return
		} else {
			logger.Warnf("[Geyser] connect failed: %v, will retry", err)
		}
	}
}

// buildSubscribeRequest 只订阅登记账户本身的数据变更
func (m *GeyserWatcher) buildSubscribeRequest() *pb.SubscribeRequest {
	accounts := make(map[string]*pb.SubscribeRequestFilterAccounts)
	accounts["registry"] = &pb.SubscribeRequestFilterAccounts{
		Account: []string{m.registryAddr.ToBase58()},
	}
	commitment := pb.CommitmentLevel_CONFIRMED
	return &pb.SubscribeRequest{
		Accounts:   accounts,
		Commitment: &commitment,
	}
}

// connect 只尝试一次连接
func (m *GeyserWatcher) connect() error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return errors.New("watcher is stopped")
	}
	defer m.mu.Unlock()

	// 先关闭旧的 context，优雅退出旧 goroutine
	if m.connCancel != nil {
		m.connCancel()
		m.connCancel = nil
	}
	m.connCtx, m.connCancel = context.WithCancel(context.Background())

	metaCtx := metadata.NewOutgoingContext(
		m.connCtx,
		metadata.New(map[string]string{"x-token": m.xToken}),
	)
	stream, err := m.client.Subscribe(metaCtx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	req := m.buildSubscribeRequest()
	if err := sendWithTimeout(m.connCtx, stream.Send, req, time.Duration(m.sendTimeoutSec)*time.Second); err != nil {
		return fmt.Errorf("send subscribe request: %w", err)
	}

	m.stream = stream
	m.reconnectAttempts = 0
	logger.Infof("[Geyser] subscription established, registry: %s", m.registryAddr.ToBase58())

	// 启动 ping 协程
	go m.pingLoop(m.connCtx)
	// 启动账户更新监听协程
	go m.recvLoop(m.connCtx)

	return nil
}

// recvLoop 接收账户更新并写入 updateChan。
// 账户长时间无更新是正常状态，不设空闲超时，断流依赖 EOF 与 keepalive。
func (m *GeyserWatcher) recvLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			update, err := m.stream.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					logger.Warnf("[Geyser] stream closed by server (EOF), will reconnect")
					m.reconnect()
					return
				}
				logger.Warnf("[Geyser] stream error: %v, will reconnect", err)
				m.reconnect()
				return
			}

			switch u := update.GetUpdateOneof().(type) {
			case *pb.SubscribeUpdate_Account:
				if u.Account == nil || u.Account.Account == nil {
					continue
				}
				select {
				case m.updateChan <- u.Account:
				default:
					// 队列满时丢弃旧不如丢弃新：下一次更新携带全量状态，丢弃无损
					logger.Warnf("[Geyser] update channel full, dropped update at slot %d", u.Account.Slot)
				}
			}
		}
	}
}

// sendWithTimeout 带超时的 Send
func sendWithTimeout[T any](ctx context.Context, sendFunc func(T) error, req T, timeout time.Duration) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sendFunc(req)
	}()

	select {
	case <-timeoutCtx.Done():
		return timeoutCtx.Err()
	case err := <-done:
		return err
	}
}

// pingLoop 应用层心跳，保持订阅活跃
func (m *GeyserWatcher) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(m.streamPingIntervalSec) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingReq := &pb.SubscribeRequest{
				Ping: &pb.SubscribeRequestPing{Id: 1},
			}
			if err := sendWithTimeout(ctx, m.stream.Send, pingReq, time.Duration(m.sendTimeoutSec)*time.Second); err != nil {
				logger.Warnf("[Geyser] ping failed: %v", err)
				// 只记录日志，断连交给 recvLoop 与 keepalive 判定
			}
		}
	}
}

func (m *GeyserWatcher) reconnect() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	if m.connCancel != nil {
		m.connCancel()
		m.connCancel = nil
	}
	m.mu.Unlock()

	go m.mustConnect()
}
