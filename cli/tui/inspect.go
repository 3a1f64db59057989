package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/justapithecus/drayage/types"
)

// InspectModel is a Bubble Tea model for inspect views.
type InspectModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewInspectModel creates a new inspect model.
func NewInspectModel(viewType string, data any) InspectModel {
	return InspectModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "inspect_order":
		content = m.renderInspectOrder()
	case "inspect_document":
		content = m.renderInspectDocument()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m InspectModel) renderInspectOrder() string {
	po, ok := m.data.(*types.PurchaseOrder)
	if !ok {
		return "Invalid data type for inspect_order"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Purchase Order"))
	b.WriteString("\n\n")

	rows := [][]string{
		{"PO Number", po.Header.PONumber},
		{"Date", po.Header.Date},
		{"Sender", po.Header.SenderID},
		{"Receiver", po.Header.ReceiverID},
		{"Control #", po.Header.ControlNumber},
		{"Bill To", partyLine(po.BillTo)},
		{"Ship To", partyLine(po.ShipTo)},
		{"Line Items", fmt.Sprintf("%d", len(po.Items))},
		{"Total Items", fmt.Sprintf("%d", po.TotalItems)},
	}

	for _, row := range rows {
		label := LabelStyle.Render(row[0] + ":")
		b.WriteString(fmt.Sprintf("%s %s\n", label, ValueStyle.Render(row[1])))
	}

	if len(po.Items) > 0 {
		b.WriteString("\n")
		for _, item := range po.Items {
			line := fmt.Sprintf("  %s  %s x%.0f %s @ %.2f",
				item.LineNumber, item.ProductID, item.Quantity, item.UOM, item.Price)
			b.WriteString(ValueStyle.Render(line))
			b.WriteString("\n")
		}
	}

	return BoxStyle.Render(b.String())
}

func (m InspectModel) renderInspectDocument() string {
	doc, ok := m.data.(*types.Document)
	if !ok {
		return "Invalid data type for inspect_document"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Document"))
	b.WriteString("\n\n")

	rows := [][]string{
		{"File", doc.ID},
		{"Status", string(doc.Status)},
		{"Created At", doc.CreatedAt.Format("2006-01-02 15:04:05")},
		{"Updated At", doc.UpdatedAt.Format("2006-01-02 15:04:05")},
	}
	if doc.Error != "" {
		rows = append(rows, []string{"Error", doc.Error})
	}

	for _, row := range rows {
		label := LabelStyle.Render(row[0] + ":")
		value := row[1]
		if row[0] == "Status" {
			value = StateStyle(value).Render(value)
		} else {
			value = ValueStyle.Render(value)
		}
		b.WriteString(fmt.Sprintf("%s %s\n", label, value))
	}

	return BoxStyle.Render(b.String())
}

func partyLine(p types.Party) string {
	if p.Name == "" {
		return "(none)"
	}
	if p.CustomerID == "" {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.CustomerID)
}

// RunInspectTUI runs the inspect TUI.
func RunInspectTUI(viewType string, data any) error {
	model := NewInspectModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
