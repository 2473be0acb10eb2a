package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbodonnell/roomsync/pkg/api"
	"github.com/cbodonnell/roomsync/pkg/api/handlers"
	"github.com/cbodonnell/roomsync/pkg/config"
	"github.com/cbodonnell/roomsync/pkg/dispatch"
	"github.com/cbodonnell/roomsync/pkg/game"
	"github.com/cbodonnell/roomsync/pkg/lifecycle"
	"github.com/cbodonnell/roomsync/pkg/log"
	"github.com/cbodonnell/roomsync/pkg/master"
	"github.com/cbodonnell/roomsync/pkg/registry"
	"github.com/cbodonnell/roomsync/pkg/session"
	"github.com/cbodonnell/roomsync/pkg/state"
	"github.com/cbodonnell/roomsync/pkg/version"
	"github.com/cbodonnell/roomsync/pkg/workers"
)

const (
	liveBufferLines  = 200
	outboundChanSize = 1024
)

func main() {
	consoleLevel := flag.String("log-level", "", "Console log level (overrides ROOMSYNC_DEBUG_MODE_CONSOLE)")
	fileLevel := flag.String("file-log-level", "", "File log level (overrides ROOMSYNC_DEBUG_MODE_FILE)")
	botCount := flag.Int("bots", 0, "Number of in-process bot players to connect")
	flag.Parse()

	cfg, err := config.Parse()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if *consoleLevel != "" {
		if cfg.DebugModeConsole, err = log.ParseLogLevel(*consoleLevel); err != nil {
			panic(fmt.Sprintf("Failed to parse log level: %v", err))
		}
	}
	if *fileLevel != "" {
		if cfg.DebugModeFile, err = log.ParseLogLevel(*fileLevel); err != nil {
			panic(fmt.Sprintf("Failed to parse file log level: %v", err))
		}
	}

	dispatcher := dispatch.New()
	logger := log.New(log.NewLoggerOptions{
		ConsoleLevel: cfg.DebugModeConsole,
		FileLevel:    cfg.DebugModeFile,
		Dir:          cfg.LogDir,
		Dispatcher:   dispatcher,
		Buffer:       log.NewLiveBuffer(liveBufferLines),
	})
	log.SetDefaultLogger(logger)
	dispatcher.SetErrorHandler(func(err error) {
		log.Error("Dispatched action failed: %v", err)
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg := registry.New(registry.NewRegistryOptions{MaxConnections: cfg.MaxConnections})
	stateManager := state.NewInMemoryStateManager()
	outboundChan := make(chan workers.Outbound, outboundChanSize)

	// The game end hook is bound after the matchmaker exists.
	var matchmaker *master.Matchmaker
	publisher := workers.NewChannelPublisher(workers.NewChannelPublisherOptions{
		OutboundChan: outboundChan,
		OnGameEnd: func(end session.GameEndData) {
			matchmaker.HandleGameEnd(end)
		},
	})

	gameServer, err := game.NewServer(game.NewServerOptions{
		GameServerID:          cfg.GameServerID,
		CalculationsPerSecond: cfg.CalculationsPerSecond,
		Publisher:             publisher,
		Referee:               game.RaceReferee{Ticks: cfg.RaceTicks},
		Dispatcher:            dispatcher,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to create game server: %v", err))
	}

	matchmaker, err = master.NewMatchmaker(master.NewMatchmakerOptions{
		Registry:     reg,
		Host:         &localHost{server: gameServer, publisher: publisher},
		Dispatcher:   dispatcher,
		StateManager: stateManager,
		RoomSize:     cfg.RoomSize,
		MaxGames:     cfg.MaxGames,
		GameServerID: cfg.GameServerID,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to create matchmaker: %v", err))
	}

	bots := newBotSender(gameServer)
	outboundWorker := workers.NewOutboundWorker(workers.NewOutboundWorkerOptions{
		Sender:       bots,
		OutboundChan: outboundChan,
	})

	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port:         cfg.APIPort,
		StateManager: stateManager,
		Status: handlers.Status{
			Version:        version.Get(),
			GameServerID:   cfg.GameServerID,
			RoomSize:       cfg.RoomSize,
			MaxGames:       cfg.MaxGames,
			MaxConnections: cfg.MaxConnections,
		},
	})

	controller := lifecycle.NewController(lifecycle.NewControllerOptions{
		Name:    "master",
		Version: version.Get(),
		Logger:  logger,
		OnStart: func() error {
			go apiServer.Start()
			return nil
		},
		OnShutdown: func() error {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			return apiServer.Stop(stopCtx)
		},
	})
	if err := controller.Start(); err != nil {
		panic(fmt.Sprintf("Failed to start server: %v", err))
	}
	log.Info("Console log level %s, file log level %s, writing to %s", cfg.DebugModeConsole, cfg.DebugModeFile, logger.Filename())
	log.Debug("RTT interval %s, disconnect timeout %s", cfg.TimeBetweenRTTs, cfg.DisconnectTimeout)

	go matchmaker.Start(ctx)
	go outboundWorker.Start(ctx)

	for i := 0; i < *botCount; i++ {
		user, err := reg.Connect(nil, "127.0.0.1", fmt.Sprintf("bot-%d", i))
		if err != nil {
			log.Error("Failed to connect bot %d: %v", i, err)
			continue
		}
		bots.add(user.ID)
		log.Info("Connected bot %s as user %d", user.Username, user.ID)
	}

	run(ctx, dispatcher, matchmaker, gameServer)

	for _, id := range bots.ids() {
		reg.Disconnect(id)
		gameServer.Disconnect(id)
	}
	_ = dispatcher.Drain()
	if err := shutdown(controller, dispatcher); err != nil {
		log.Error("Failed to shut down: %v", err)
		_ = dispatcher.Drain()
		os.Exit(1)
	}
}

// shutdown stops the controller and flushes the console lines it logged,
// the end-of-session marker included, through the dispatcher.
func shutdown(controller *lifecycle.Controller, dispatcher *dispatch.Dispatcher) error {
	err := controller.Shutdown()
	_ = dispatcher.Drain()
	return err
}

// run is the designated goroutine: every dispatched action, matchmaking
// pass and simulation step happens here.
func run(ctx context.Context, dispatcher *dispatch.Dispatcher, matchmaker *master.Matchmaker, gameServer *game.Server) {
	ticker := time.NewTicker(gameServer.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Received shutdown signal")
			return
		case <-ticker.C:
			// Failures are logged by the dispatcher's error handler.
			_ = dispatcher.Drain()
			if err := matchmaker.Tick(ctx); err != nil {
				log.Error("Matchmaking failed: %v", err)
			}
			gameServer.Tick()
		}
	}
}
