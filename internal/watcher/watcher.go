package watcher

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"claims-registry-sol/internal/chain"
	"claims-registry-sol/pkg/logger"

	"github.com/blocto/solana-go-sdk/common"
)

const (
	defaultPollIntervalS = 10
	tickTimeout          = 30 * time.Second
)

// PollWatcher 周期性拉取登记账户快照的监视服务。
// 实现 go-zero service.Service（Start/Stop）。
type PollWatcher struct {
	gw           chain.Gateway
	registryAddr common.PublicKey
	processor    *Processor
	interval     time.Duration
	stopChan     chan struct{}
	ctx          context.Context
	cancel       func(err error)
}

func NewPollWatcher(gw chain.Gateway, registryAddr common.PublicKey, processor *Processor, intervalS int) *PollWatcher {
	if intervalS <= 0 {
		intervalS = defaultPollIntervalS
	}
	ctx, cancel := context.WithCancelCause(context.Background())
	return &PollWatcher{
		gw:           gw,
		registryAddr: registryAddr,
		processor:    processor,
		interval:     time.Duration(intervalS) * time.Second,
		stopChan:     make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (w *PollWatcher) Start() {
	logger.Infof("[Watcher] poll mode started, registry: %s, interval: %v",
		w.registryAddr.ToBase58(), w.interval)

	// 启动时先拉一次，不等第一个周期
	if err := w.tick(); err != nil {
		logger.Warnf("[Watcher] 启动拉取失败: %v", err)
	}
	w.scheduleNext()
	<-w.stopChan
}

func (w *PollWatcher) scheduleNext() {
	time.AfterFunc(w.interval, func() {
		if err := w.tick(); err != nil {
			logger.Warnf("[Watcher] 周期性拉取失败: %v", err)
		}
		// 如果没有被 Stop，就继续调度
		select {
		case <-w.ctx.Done():
			return
		default:
			w.scheduleNext()
		}
	})
}

func (w *PollWatcher) Stop() {
	w.cancel(errors.New("PollWatcher stop"))
	select {
	case <-w.stopChan:
		// 已关闭，无需重复关闭
	default:
		close(w.stopChan)
	}
}

func (w *PollWatcher) tick() (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[Watcher] tick panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("tick panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(w.ctx, tickTimeout)
	defer cancel()

	data, exists, err := w.gw.GetAccountSnapshot(ctx, w.registryAddr)
	if err != nil {
		return fmt.Errorf("fetch registry snapshot: %w", err)
	}
	if !exists {
		logger.Debugf("[Watcher] registry account %s not created yet", w.registryAddr.ToBase58())
		return nil
	}

	_, err = w.processor.HandleSnapshot(ctx, data, "poll")
	return err
}
