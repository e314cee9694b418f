package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"github.com/danpilch/srtpal/internal/api/srt"
)

// Globals are the flags shared by every subcommand.
type Globals struct {
	Verbose  bool          `help:"Enable debug logging" short:"v"`
	BaseURL  string        `help:"SRT backend URL" default:"${base_url}" name:"base-url"`
	Timeout  time.Duration `help:"HTTP request timeout" default:"30s"`
	ID       string        `help:"SRT login: membership number, email or phone number" env:"SRT_ID"`
	Password string        `help:"SRT password" env:"SRT_PASSWORD"`
}

var CLI struct {
	Globals

	Search         SearchCmd         `cmd:"" help:"Search SRT trains"`
	Reserve        ReserveCmd        `cmd:"" help:"Reserve seats on a train"`
	Standby        StandbyCmd        `cmd:"" help:"Place a standby reservation on a sold-out train"`
	StandbyOptions StandbyOptionsCmd `cmd:"" name:"standby-options" help:"Set SMS and class change consent on a standby reservation"`
	List           ListCmd           `cmd:"" help:"List reservations"`
	Tickets        TicketsCmd        `cmd:"" help:"Show the seats of a reservation"`
	Cancel         CancelCmd         `cmd:"" help:"Cancel a reservation"`
	Pay            PayCmd            `cmd:"" help:"Pay for a reservation by card"`
	Watch          WatchCmd          `cmd:"" help:"Poll configured itineraries and reserve when seats appear"`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("srtpal"),
		kong.Description("SRT train booking client"),
		kong.Vars{"base_url": srt.DefaultBaseURL},
	)

	// Setup structured logging with logfmt
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)
	if CLI.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.WithField("signal", sig).Info("received signal, shutting down")
		cancel()
	}()

	kctx.BindTo(ctx, (*context.Context)(nil))
	if err := kctx.Run(&CLI.Globals, logger); err != nil {
		logger.WithField("error", err).Fatal("command failed")
	}
}
