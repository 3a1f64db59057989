package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/drayage/cli/render"
	"github.com/justapithecus/drayage/cli/tui"
	"github.com/justapithecus/drayage/types"
)

// StatsCommand returns the stats command.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show document lifecycle statistics",
		Flags:  ReadOnlyFlags(),
		Action: statsAction,
	}
}

func statsAction(c *cli.Context) error {
	store, err := openLedger(c)
	if err != nil {
		return err
	}
	defer store.Close()

	docs, err := store.Documents(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	orders, err := store.Orders(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	stats := documentStats(docs)
	stats.Orders = len(orders)

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return r.RenderTUI("stats_documents", stats)
	}
	return r.Render(stats)
}

// documentStats buckets lifecycle records by where they sit in the state
// machine.
func documentStats(docs []*types.Document) *tui.DocumentStats {
	stats := &tui.DocumentStats{Total: len(docs)}
	for _, doc := range docs {
		switch doc.Status {
		case types.StatusCompleted:
			stats.Completed++
		case types.StatusParseError:
			stats.DeadLetter++
		case types.StatusError:
			stats.Errored++
		default:
			stats.InFlight++
		}
	}
	return stats
}
