package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"alis/internal/config"
	"alis/internal/frame"
	"alis/internal/hmi"
	"alis/internal/led"
	"alis/internal/mirror"
	"alis/internal/settings"
	"alis/internal/transport"
	"alis/internal/web"
)

func main() {
	// ---- Flags (config.yaml can override most) ----
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		addr       = flag.String("addr", "", "HTTP listen address (overrides config)")
		driver     = flag.String("driver", "", "driver: serial | spi | none (overrides config)")
		noHMI      = flag.Bool("no-hmi", false, "skip buttons/OLED even if configured")
		debug      = flag.Bool("debug", false, "verbose logging")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// ---- Config ----
	cfg := config.Default()
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; using defaults")
	} else {
		cfg = c
	}
	if *addr != "" {
		cfg.Web.Addr = *addr
	}
	if *driver != "" {
		cfg.Driver = *driver
	}

	// ---- Settings store ----
	store, err := settings.Open(cfg.Settings)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Settings).Msg("settings store unavailable")
	}

	// ---- Framebuffer ----
	buf := frame.New(cfg.Panel.W, cfg.Panel.H)

	// ---- Transport selection ----
	var tr transport.Transport
	switch cfg.Driver {
	case "serial":
		tr = transport.NewSerial(transport.SerialConfig{
			Path:       cfg.Serial.Port,
			Baud:       cfg.Serial.Baud,
			ReadyToken: cfg.Serial.ReadyToken,
			ReadyWait:  time.Duration(cfg.Serial.ReadyWaitMs) * time.Millisecond,
		})
	case "spi":
		spiTr, err := transport.NewSPI(cfg.SPI.Port, cfg.Panel.W*cfg.Panel.H*cfg.Panel.Segments)
		if err != nil {
			log.Warn().Err(err).Msg("spi init failed; LEDs disabled")
			tr = transport.Null{}
		} else {
			tr = spiTr
		}
	default:
		log.Info().Msg("no LED hardware driver; panel output disabled")
		tr = transport.Null{}
	}

	// ---- Workers ----
	ctrl := led.New(buf, tr, led.Config{
		FramePeriod: time.Second / time.Duration(max(1, cfg.LED.FPS)),
		CycleHold:   time.Duration(cfg.LED.CycleHoldMs) * time.Millisecond,
		Segments:    cfg.Panel.Segments,
		Settings:    store.Get,
	})
	m := mirror.New(ctrl, time.Second/time.Duration(max(1, cfg.Mirror.FPS)))

	ctx, cancel := context.WithCancel(context.Background())
	go ctrl.Run(ctx)
	go m.Run(ctx)

	// ---- Local interface (optional hardware) ----
	if cfg.HMI.Enabled && !*noHMI {
		h, err := hmi.Open(cfg.HMI, func(action string) {
			switch action {
			case "led.rgb_cycle":
				ctrl.StartTest()
			case "led.stop":
				ctrl.StopTest()
			case "led.animation":
				ctrl.SetPattern(string(led.PatternAnimation))
			case "led.draw":
				ctrl.SetPattern(string(led.PatternDraw))
			case "led.brightness.up":
				store.Update(func(s *settings.Settings) { s.LED.Brightness = min(255, s.LED.Brightness+10) })
			case "led.brightness.down":
				store.Update(func(s *settings.Settings) { s.LED.Brightness = max(0, s.LED.Brightness-10) })
			default:
				log.Debug().Str("action", action).Msg("unhandled menu action")
			}
		})
		if err != nil {
			log.Warn().Err(err).Msg("hmi unavailable; running headless")
		} else {
			go h.Run(ctx)
		}
	}

	// ---- HTTP server ----
	srv := &http.Server{
		Addr:         cfg.Web.Addr,
		Handler:      web.New(ctrl, m, store).Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Web.Addr).Str("driver", cfg.Driver).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	// ---- Graceful shutdown ----
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	s := <-ch
	log.Info().Str("signal", s.String()).Msg("shutting down")

	cancel()
	_ = srv.Close()

	// Wait for the driver's final blackout before exiting.
	select {
	case <-ctrl.Done():
	case <-time.After(2 * time.Second):
		log.Warn().Msg("led driver did not stop in time")
	}
	if err := store.Flush(); err != nil {
		log.Warn().Err(err).Msg("final settings save failed")
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
