package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/drayage/archive"
	"github.com/justapithecus/drayage/cli/config"
	"github.com/justapithecus/drayage/dispatch"
	"github.com/justapithecus/drayage/edi"
	"github.com/justapithecus/drayage/edination"
	"github.com/justapithecus/drayage/ledger"
	"github.com/justapithecus/drayage/log"
	"github.com/justapithecus/drayage/pipeline"
	"github.com/justapithecus/drayage/poller"
	"github.com/justapithecus/drayage/transport"
)

// WatchCommand returns the watch command: the long-running ingestion
// loop that polls the FTP drop and processes every new 850.
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Poll the FTP drop and process inbound purchase orders",
		Flags: []cli.Flag{
			ConfigFlag,
		},
		Action: watchAction,
	}
}

func watchAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	logger := log.New("drayage")

	ftpClient, err := transport.New(transport.Config{
		Host:         cfg.FTP.Host,
		Port:         cfg.FTP.Port,
		Username:     cfg.FTP.Username,
		Password:     cfg.FTP.Password,
		Directory:    cfg.FTP.Directory,
		AckDirectory: cfg.FTP.AckDirectory,
		Timeout:      cfg.FTP.Timeout.Duration,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("transport: %v", err), 1)
	}

	store, err := ledger.New(ledger.Config{
		URL:       cfg.Redis.URL,
		KeyPrefix: cfg.Redis.KeyPrefix,
	})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer store.Close()

	arch, err := archive.New(archive.Config{
		Dataset: cfg.Archive.Dataset,
		Backend: cfg.Archive.Backend,
		Path:    cfg.Archive.Path,
		S3: archive.S3Config{
			Bucket:       cfg.Archive.Bucket,
			Prefix:       cfg.Archive.Prefix,
			Region:       cfg.Archive.Region,
			Endpoint:     cfg.Archive.Endpoint,
			UsePathStyle: cfg.Archive.S3PathStyle,
		},
	})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer arch.Close()

	dispatcher, err := dispatch.New(dispatch.Config{
		URL:     cfg.FlowSync.URL,
		Headers: cfg.FlowSync.Headers,
		Timeout: cfg.FlowSync.Timeout.Duration,
	})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer dispatcher.Close()

	var service pipeline.EDIService
	if cfg.EDI.Mode != pipeline.ModeLocal {
		svc, err := edination.New(edination.Config{
			APIKey:  cfg.EDINation.APIKey,
			BaseURL: cfg.EDINation.BaseURL,
			Timeout: cfg.EDINation.Timeout.Duration,
		})
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		defer svc.Close()
		service = svc
	}

	pipe, err := pipeline.New(pipeline.Config{
		Mode:           cfg.EDI.Mode,
		StrictSequence: cfg.EDI.StrictSequence,
		Delimiters:     delimitersFromConfig(cfg.EDI),
	}, ftpClient, service, store, arch, dispatcher, logger.Named("pipeline"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := poller.New(poller.Config{
		Interval: cfg.Poll.Interval.Duration,
	}, ftpClient, pipe, logger.Named("poller"))

	if err := p.Run(ctx); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

// delimitersFromConfig maps config delimiter overrides onto the lexer's
// rune pair, keeping X12 defaults for anything unset.
func delimitersFromConfig(cfg config.EDIConfig) edi.Delimiters {
	var d edi.Delimiters
	if cfg.ElementSeparator != "" {
		d.Element = []rune(cfg.ElementSeparator)[0]
	}
	if cfg.SegmentTerminator != "" {
		d.Segment = []rune(cfg.SegmentTerminator)[0]
	}
	return d
}
