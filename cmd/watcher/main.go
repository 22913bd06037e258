package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"claims-registry-sol/internal/config"
	"claims-registry-sol/internal/svc"
	"claims-registry-sol/internal/watcher"
	"claims-registry-sol/pkg/logger"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	zerosvc "github.com/zeromicro/go-zero/core/service"
)

var configFile = flag.String("f", "etc/watcher.yaml", "the config file")

func main() {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
	}()

	flag.Parse()

	var c config.WatcherConfig
	conf.MustLoad(*configFile, &c)

	if err := logger.InitLogger(c.LogConf.ToLogOption()); err != nil {
		panic(err)
	}
	defer logger.Sync()
	logger.Infof("watcher 配置加载完成:\n%s", c.String())

	serviceContext, err := svc.NewWatcherServiceContext(c)
	if err != nil {
		panic(err)
	}
	defer serviceContext.Close()

	sg := zerosvc.NewServiceGroup()

	switch strings.ToLower(c.Watch.Mode) {
	case "", "poll":
		sg.Add(watcher.NewPollWatcher(
			serviceContext.Gateway,
			serviceContext.RegistryAddr,
			serviceContext.Processor,
			c.Watch.PollIntervalS,
		))

	case "geyser":
		queueSize := c.Watch.UpdateQueueSize
		if queueSize <= 0 {
			queueSize = 16
		}
		updateChan := make(chan *pb.SubscribeUpdateAccount, queueSize)
		defer close(updateChan)

		geyserService, err := watcher.NewGeyserWatcher(c.Grpc, serviceContext.RegistryAddr, updateChan)
		if err != nil {
			panic(err)
		}
		sg.Add(geyserService)
		sg.Add(watcher.NewUpdateConsumer(updateChan, serviceContext.Processor))

	default:
		panic(fmt.Errorf("unknown watch mode: %s", c.Watch.Mode))
	}

	logx.Infof("Starting claims watcher service, mode: %s", c.Watch.Mode)

	// 启动服务
	sg.Start()

	// 等待退出信号
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logx.Info("Shutting down services...")
	sg.Stop()
}
