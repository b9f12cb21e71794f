package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lane-pilot/config"
	telegram "lane-pilot/internal/api"
	"lane-pilot/internal/container"
	"lane-pilot/internal/domain/port"
	"lane-pilot/internal/infrastructure/controller"
	"lane-pilot/internal/infrastructure/serialport"
	"lane-pilot/internal/infrastructure/storage"
	"lane-pilot/internal/infrastructure/vision"
)

func main() {
	selfTest := flag.Bool("selftest", false, "run the controller self-test and exit")
	simulate := flag.Bool("simulate", false, "drive a synthetic road against the emulated controller")
	listPorts := flag.Bool("list-ports", false, "list serial ports and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *simulate {
		cfg.EnableSimulation()
	}

	if *listPorts {
		ports, err := serialport.ListPorts()
		if err != nil {
			log.Fatalf("Failed to list ports: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transport, err := newTransport(cfg)
	if err != nil {
		log.Fatalf("Failed to create transport: %v", err)
	}

	if *selfTest {
		code := runSelfTest(ctx, transport, cfg.Simulate)
		stop()
		os.Exit(code)
	}

	if err := run(ctx, cfg, transport); err != nil {
		log.Fatalf("Drive error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, transport port.Transport) error {
	// Хранилище телеметрии
	repo := storage.NewMemoryTelemetryRepository()

	// Собираем конвейер и отправку команд
	appContainer, err := container.New(cfg, transport, repo)
	if err != nil {
		return fmt.Errorf("build container: %w", err)
	}
	defer appContainer.Close()

	source, err := newSource(cfg)
	if err != nil {
		return fmt.Errorf("open frame source: %w", err)
	}
	defer source.Close()

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, appContainer.TelemetryService)
		if err != nil {
			return fmt.Errorf("create bot: %w", err)
		}
		go func() {
			if err := bot.Run(ctx); err != nil {
				log.Printf("Bot error: %v", err)
			}
		}()
	} else {
		log.Println("TELEGRAM_TOKEN is not set, status bot is disabled")
	}

	bgCtx, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()
	bgDone := make(chan error, 1)
	go func() {
		bgDone <- appContainer.RunBackground(bgCtx)
	}()

	log.Println("Drive loop is running...")
	driveErr := appContainer.DriveService.Run(ctx, source)
	if errors.Is(driveErr, context.Canceled) {
		driveErr = nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := appContainer.Reader.Stop(shutdownCtx); err != nil {
		log.Printf("Reader stop: %v", err)
	}
	cancelBg()
	if err := <-bgDone; err != nil {
		log.Printf("Background error: %v", err)
	}
	if err := appContainer.Dispatcher.Halt(shutdownCtx); err != nil {
		log.Printf("Halt failed: %v", err)
	}

	if snap, err := appContainer.TelemetryService.Snapshot(shutdownCtx); err == nil {
		log.Printf("Processed %d frames (%d failed), %d commands not sent",
			snap.Frames, snap.FrameFailures, snap.SendFailures)
	}
	return driveErr
}

func runSelfTest(ctx context.Context, transport port.Transport, simulate bool) int {
	warmup := 3 * time.Second
	delay := 100 * time.Millisecond
	if simulate {
		warmup, delay = 0, time.Millisecond
	}

	test := controller.NewSelfTest(controller.NewLink(transport), delay, warmup)
	results, err := test.Run(ctx, controller.DefaultSelfTestCases())
	if err != nil {
		log.Printf("Self-test aborted: %v", err)
		return 1
	}

	failed := controller.Failed(results)
	log.Printf("Self-test finished: %d passed, %d failed", len(results)-failed, failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func newTransport(cfg *config.Config) (port.Transport, error) {
	if cfg.Simulate {
		return controller.NewEmulator(), nil
	}
	t, err := serialport.NewTransport(cfg.SerialPort, cfg.Serial, nil)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func newSource(cfg *config.Config) (port.FrameSource, error) {
	if cfg.Simulate {
		road := vision.DefaultSyntheticRoadConfig()
		road.Frames = cfg.SimulateFrames
		road.ROI = cfg.Pipeline.Rectifier.ROI
		src, err := vision.NewSyntheticRoad(road)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	src, err := vision.OpenCaptureSource(cfg.CameraDevice)
	if err != nil {
		return nil, err
	}
	return src, nil
}
