package watcher

import (
	"context"
	"fmt"
	"runtime/debug"

	"claims-registry-sol/pkg/logger"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

// UpdateConsumer 消费 geyser 推送的账户更新，逐条交给处理器。
// 每次更新都携带账户全量数据，处理失败直接等下一次推送即可。
type UpdateConsumer struct {
	updateChan <-chan *pb.SubscribeUpdateAccount
	processor  *Processor
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewUpdateConsumer(updateChan <-chan *pb.SubscribeUpdateAccount, processor *Processor) *UpdateConsumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &UpdateConsumer{
		updateChan: updateChan,
		processor:  processor,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (c *UpdateConsumer) Start() {
	logger.Infof("[Watcher] geyser consumer started")
	for {
		select {
		case <-c.ctx.Done():
			return
		case update := <-c.updateChan:
			if err := c.handle(update); err != nil {
				logger.Warnf("[Watcher] 处理账户更新失败: %v", err)
			}
		}
	}
}

func (c *UpdateConsumer) Stop() {
	c.cancel()
}

func (c *UpdateConsumer) handle(update *pb.SubscribeUpdateAccount) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[Watcher] handle panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("handle panic: %v", r)
		}
	}()

	if update == nil || update.Account == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.ctx, tickTimeout)
	defer cancel()

	_, err = c.processor.HandleSnapshot(ctx, update.Account.Data, "geyser")
	return err
}
