package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/drayage/cli/config"
	"github.com/justapithecus/drayage/cli/render"
	"github.com/justapithecus/drayage/ledger"
	"github.com/justapithecus/drayage/types"
)

// DocumentRow is the list view of one lifecycle record.
type DocumentRow struct {
	File      string `json:"file"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

// OrderRow is the list view of one completed purchase order.
type OrderRow struct {
	PONumber string `json:"po_number"`
	Date     string `json:"date"`
	BillTo   string `json:"bill_to"`
	Items    int    `json:"items"`
}

// ListCommand returns the list command group.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List tracked documents and completed orders",
		Subcommands: []*cli.Command{
			listDocumentsCommand(),
			listOrdersCommand(),
		},
	}
}

func listDocumentsCommand() *cli.Command {
	return &cli.Command{
		Name:   "documents",
		Usage:  "List lifecycle records",
		Flags:  ReadOnlyFlags(),
		Action: listDocumentsAction,
	}
}

func listDocumentsAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for list commands", 1)
	}

	store, err := openLedger(c)
	if err != nil {
		return err
	}
	defer store.Close()

	docs, err := store.Documents(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	rows := documentRows(docs)

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(rows)
}

func listOrdersCommand() *cli.Command {
	return &cli.Command{
		Name:   "orders",
		Usage:  "List completed purchase orders",
		Flags:  ReadOnlyFlags(),
		Action: listOrdersAction,
	}
}

func listOrdersAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for list commands", 1)
	}

	store, err := openLedger(c)
	if err != nil {
		return err
	}
	defer store.Close()

	orders, err := store.Orders(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	rows := make([]OrderRow, 0, len(orders))
	for _, po := range orders {
		rows = append(rows, OrderRow{
			PONumber: po.Header.PONumber,
			Date:     po.Header.Date,
			BillTo:   po.BillTo.Name,
			Items:    len(po.Items),
		})
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(rows)
}

// openLedger loads config and connects the document ledger.
func openLedger(c *cli.Context) (*ledger.Ledger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, cli.Exit(err.Error(), 1)
	}

	store, err := ledger.New(ledger.Config{
		URL:       cfg.Redis.URL,
		KeyPrefix: cfg.Redis.KeyPrefix,
	})
	if err != nil {
		return nil, cli.Exit(err.Error(), 1)
	}
	return store, nil
}

// documentRows converts lifecycle records into list rows. Split out for
// testing without a live ledger.
func documentRows(docs []*types.Document) []DocumentRow {
	rows := make([]DocumentRow, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, DocumentRow{
			File:      doc.ID,
			Status:    string(doc.Status),
			Error:     doc.Error,
			UpdatedAt: doc.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return rows
}
