package main

import (
	"context"
	goflag "flag"

	flag "github.com/spf13/pflag"

	"github.com/streamview/streamview/pkg/config"
	"github.com/streamview/streamview/pkg/logger"
	"github.com/streamview/streamview/pkg/media"
	"github.com/streamview/streamview/pkg/monitoring"
	"github.com/streamview/streamview/pkg/os"
	"github.com/streamview/streamview/pkg/player"
	"github.com/streamview/streamview/pkg/source"
	"github.com/streamview/streamview/pkg/surface"
	"github.com/streamview/streamview/pkg/thread"
)

var Version = ""

func run() {
	conf := config.NewPlayerConfig()
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	conf.ParseFlags()

	log := logger.NewConsole(conf.Player.Debug, conf.Player.Tag, false)
	log.Info().Msgf("version: %v", Version)
	log.Debug().Msgf("config: %+v", conf)

	if conf.Player.Monitoring.IsEnabled() {
		mon, err := monitoring.New(conf.Player.Monitoring, log)
		if err != nil {
			log.Fatal().Err(err).Msg("monitoring init failed")
		}
		mon.Run()
		defer func() { _ = mon.Stop() }()
	}

	win, err := surface.NewWindow(conf.Player.Window, log)
	if err != nil {
		log.Fatal().Err(err).Msg("window creation failed")
	}

	p := player.New(conf.Player, log)
	p.Start(win)

	ctx, cancel := context.WithCancel(context.Background())
	src := source.New(conf.Player.Source, log)
	go func() {
		if err := src.Run(ctx,
			func(f media.VideoFrame) {
				p.OnVideoFrame(conf.Player.Stream.UserID, media.StreamType(conf.Player.Stream.Type), &f)
			},
			func(f media.AudioFrame) { p.OnMixedAudioFrame(&f) },
		); err != nil {
			log.Error().Err(err).Msg("media source failed")
		}
	}()

	win.Pump(os.ExpectTermination())

	cancel()
	win.Close()
	p.Stop()
	<-p.Done()
	log.Info().Msg("bye")
}

func main() {
	thread.MainWrapMaybe(run)
}
