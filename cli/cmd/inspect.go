package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/drayage/cli/config"
	"github.com/justapithecus/drayage/cli/render"
	"github.com/justapithecus/drayage/edi"
	"github.com/justapithecus/drayage/ledger"
)

// InspectCommand returns the inspect command group.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect a local EDI file or a tracked document",
		Subcommands: []*cli.Command{
			inspectFileCommand(),
			inspectDocumentCommand(),
		},
	}
}

// inspectFileCommand parses a local 850 file with the built-in parser
// and shows the resulting purchase order. Useful for checking a partner
// file before it ever hits the drop directory.
func inspectFileCommand() *cli.Command {
	return &cli.Command{
		Name:      "file",
		Usage:     "Parse a local 850 file and show the purchase order",
		ArgsUsage: "<path>",
		Flags: append(ReadOnlyFlags(),
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Enforce canonical segment sequence",
			},
		),
		Action: inspectFileAction,
	}
}

func inspectFileAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: drayage inspect file <path>", 1)
	}

	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot read %s: %v", c.Args().First(), err), 1)
	}

	builder := &edi.Builder{StrictSequence: c.Bool("strict")}
	po, err := builder.Parse(string(data))
	if err != nil {
		return cli.Exit(fmt.Sprintf("parse failed: %v", err), 1)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return r.RenderTUI("inspect_order", po)
	}
	return r.Render(po)
}

// inspectDocumentCommand shows one lifecycle record from the ledger.
func inspectDocumentCommand() *cli.Command {
	return &cli.Command{
		Name:      "document",
		Usage:     "Show the lifecycle record for a tracked file",
		ArgsUsage: "<filename>",
		Flags:     ReadOnlyFlags(),
		Action:    inspectDocumentAction,
	}
}

func inspectDocumentAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: drayage inspect document <filename>", 1)
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	store, err := ledger.New(ledger.Config{
		URL:       cfg.Redis.URL,
		KeyPrefix: cfg.Redis.KeyPrefix,
	})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer store.Close()

	doc, err := store.Document(c.Context, c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return r.RenderTUI("inspect_document", doc)
	}
	return r.Render(doc)
}
