// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal picker for Seatmaster. It follows the
// view-state stream of the repository and walks the operator from a customer
// to a table to a confirmed reservation.
package tui // import "github.com/toeirei/seatmaster/internal/tui"

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/toeirei/seatmaster/internal/core"
	"github.com/toeirei/seatmaster/internal/db"
	"github.com/toeirei/seatmaster/internal/i18n"
	"github.com/toeirei/seatmaster/internal/model"
)

// StateSource is the view-state side the picker needs. *core.Repository
// satisfies it.
type StateSource interface {
	Subscribe(ctx context.Context) <-chan core.ViewState
	Refresh(ctx context.Context) (core.ViewState, error)
}

// Reserver confirms reservations. *core.ReservationService satisfies it.
type Reserver interface {
	Confirm(ctx context.Context, customerID, tableNumber int) (model.Reservation, error)
}

// screen represents which part of the UI is currently active.
type screen int

const (
	screenCustomers screen = iota
	screenTables
	screenConfirm
	screenResult
)

type stateMsg core.ViewState

// streamClosedMsg signals that the view-state subscription ended.
type streamClosedMsg struct{}

type reservedMsg struct {
	reservation model.Reservation
	err         error
}

type copiedMsg struct{ err error }

// Model is the top-level bubbletea model.
type Model struct {
	ctx      context.Context
	source   StateSource
	reserver Reserver
	clock    core.Clock
	states   <-chan core.ViewState

	state     core.ViewState
	screen    screen
	cursor    int
	filter    string
	filtering bool

	customers []model.Customer
	tables    []model.Table
	customer  model.Customer
	table     model.Table

	result     string
	resultErr  error
	lastCopy   string
	status     string
	submitting bool

	keys   keyMap
	help   help.Model
	width  int
	height int

	copyFn func(string) error
}

// New builds the picker. It subscribes to source right away so the first
// frame already shows the latest state. A nil clock selects the system clock.
func New(ctx context.Context, source StateSource, reserver Reserver, clock core.Clock) Model {
	if clock == nil {
		clock = core.SystemClock()
	}
	return Model{
		ctx:      ctx,
		source:   source,
		reserver: reserver,
		clock:    clock,
		states:   source.Subscribe(ctx),
		keys:     defaultKeyMap,
		help:     help.New(),
		copyFn:   clipboard.WriteAll,
	}
}

// Run starts the picker in the alternate screen and blocks until it exits.
func Run(ctx context.Context, source StateSource, reserver Reserver) error {
	_, err := tea.NewProgram(
		New(ctx, source, reserver, nil),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForState(m.states), refreshCmd(m.ctx, m.source))
}

func waitForState(ch <-chan core.ViewState) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return stateMsg(s)
	}
}

func refreshCmd(ctx context.Context, source StateSource) tea.Cmd {
	return func() tea.Msg {
		// The outcome arrives through the stream as well; errors are shown
		// from the published Error state.
		_, _ = source.Refresh(ctx)
		return nil
	}
}

func confirmCmd(ctx context.Context, r Reserver, customerID, table int) tea.Cmd {
	return func() tea.Msg {
		res, err := r.Confirm(ctx, customerID, table)
		return reservedMsg{reservation: res, err: err}
	}
}

func copyCmd(copyFn func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: copyFn(text)}
	}
}

func (m *Model) rebuild() {
	m.customers = db.FilterCustomersByTokens(m.state.Customers, db.TokenizeSearchQuery(m.filter))
	m.tables = m.state.AvailableTables()
	m.clampCursor()
}

func (m *Model) listLen() int {
	switch m.screen {
	case screenCustomers:
		return len(m.customers)
	case screenTables:
		return len(m.tables)
	default:
		return 0
	}
}

func (m *Model) clampCursor() {
	n := m.listLen()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case stateMsg:
		m.state = core.ViewState(msg)
		m.rebuild()
		return m, waitForState(m.states)

	case streamClosedMsg:
		return m, tea.Quit

	case reservedMsg:
		m.submitting = false
		m.screen = screenResult
		m.resultErr = msg.err
		if msg.err != nil {
			m.result = i18n.T("reserve.failed", msg.err)
			return m, nil
		}
		m.result = i18n.T("reserve.success", m.customer.String(), msg.reservation.TableNumber)
		m.lastCopy = fmt.Sprintf("%s: %s, %s", m.customer.String(), i18n.T("tables.table", msg.reservation.TableNumber), msg.reservation.ExpiresAt.Local().Format("15:04"))
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.status = i18n.T("tui.copy_failed", msg.err)
		} else {
			m.status = i18n.T("tui.copied")
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.filtering {
		return m.handleFilterKey(msg)
	}

	switch m.screen {
	case screenCustomers:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.cursor--
		case key.Matches(msg, m.keys.Down):
			m.cursor++
		case key.Matches(msg, m.keys.Filter):
			m.filtering = true
			m.status = ""
		case key.Matches(msg, m.keys.Refresh):
			m.status = i18n.T("tui.refreshing")
			return m, refreshCmd(m.ctx, m.source)
		case key.Matches(msg, m.keys.Copy):
			if m.lastCopy != "" {
				return m, copyCmd(m.copyFn, m.lastCopy)
			}
		case key.Matches(msg, m.keys.Back):
			if m.filter != "" {
				m.filter = ""
				m.rebuild()
			}
		case key.Matches(msg, m.keys.Select):
			if len(m.customers) == 0 {
				return m, nil
			}
			m.customer = m.customers[m.cursor]
			if r, ok := m.state.ReservationFor(m.customer.ID); ok && !r.Expired(m.clock.Now()) {
				m.status = i18n.T("reserve.already_reserved", m.customer.String(), r.TableNumber)
				return m, nil
			}
			m.status = ""
			m.screen = screenTables
			m.cursor = 0
		}
		m.clampCursor()

	case screenTables:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.cursor--
		case key.Matches(msg, m.keys.Down):
			m.cursor++
		case key.Matches(msg, m.keys.Refresh):
			return m, refreshCmd(m.ctx, m.source)
		case key.Matches(msg, m.keys.Back):
			m.screen = screenCustomers
			m.cursor = 0
		case key.Matches(msg, m.keys.Select):
			if len(m.tables) == 0 {
				return m, nil
			}
			m.table = m.tables[m.cursor]
			m.screen = screenConfirm
		}
		m.clampCursor()

	case screenConfirm:
		switch {
		case key.Matches(msg, m.keys.Yes):
			if m.submitting {
				return m, nil
			}
			m.submitting = true
			return m, confirmCmd(m.ctx, m.reserver, m.customer.ID, m.table.Number)
		case key.Matches(msg, m.keys.No):
			m.screen = screenTables
		}

	case screenResult:
		switch {
		case key.Matches(msg, m.keys.Copy):
			if m.lastCopy != "" {
				return m, copyCmd(m.copyFn, m.lastCopy)
			}
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.Back):
			m.screen = screenCustomers
			m.cursor = 0
			m.result = ""
			m.resultErr = nil
			m.status = ""
		}
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
	case tea.KeyEsc:
		m.filtering = false
		m.filter = ""
	case tea.KeyBackspace:
		if len(m.filter) > 0 {
			r := []rune(m.filter)
			m.filter = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.filter += " "
	case tea.KeyRunes:
		m.filter += string(msg.Runes)
	}
	m.cursor = 0
	m.rebuild()
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(i18n.T("tui.title")))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	switch m.screen {
	case screenCustomers:
		b.WriteString(m.customersView())
	case screenTables:
		b.WriteString(m.tablesView())
	case screenConfirm:
		b.WriteString(dialogBoxStyle.Render(i18n.T("tui.confirm_prompt", m.customer.String(), m.table.Number)))
	case screenResult:
		style := successStyle
		if m.resultErr != nil {
			style = errorStyle
		}
		b.WriteString(style.Render(m.result))
	}

	if m.status != "" {
		b.WriteString("\n\n")
		b.WriteString(specialStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return docStyle.Render(b.String())
}

func (m Model) statusLine() string {
	s := m.state
	line := i18n.T("tui.status", map[string]any{
		"Status":    s.Status.String(),
		"Source":    s.Source.String(),
		"Customers": len(s.Customers),
		"Available": len(s.AvailableTables()),
		"Tables":    len(s.Tables),
	})
	if s.Status == core.StatusError && s.Err != nil {
		return lipgloss.JoinVertical(lipgloss.Left, statusStyle.Render(line), errorStyle.Render(i18n.T("tui.offline", s.Err)))
	}
	return statusStyle.Render(line)
}

// visibleRange returns the window of list rows that fits the terminal.
func (m Model) visibleRange(n int) (int, int) {
	rows := m.height - 12
	if rows <= 0 || rows >= n {
		return 0, n
	}
	start := m.cursor - rows/2
	start = max(0, min(start, n-rows))
	return start, start + rows
}

func (m Model) customersView() string {
	var b strings.Builder
	header := i18n.T("customers.title")
	if m.filtering || m.filter != "" {
		header += "  " + specialStyle.Render(i18n.T("tui.filter", m.filter))
	}
	b.WriteString(header + "\n")
	if len(m.customers) == 0 {
		b.WriteString(statusStyle.Render(i18n.T("customers.empty")))
		return b.String()
	}
	now := m.clock.Now()
	start, end := m.visibleRange(len(m.customers))
	for i := start; i < end; i++ {
		c := m.customers[i]
		label := fmt.Sprintf("%-4d %s", c.ID, c.String())
		if r, ok := m.state.ReservationFor(c.ID); ok && !r.Expired(now) {
			b.WriteString(inactiveItemStyle.Render(label))
		} else if i == m.cursor {
			b.WriteString(selectedItemStyle.Render("> " + label))
		} else {
			b.WriteString(itemStyle.Render(label))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) tablesView() string {
	var b strings.Builder
	b.WriteString(i18n.T("tables.pick_for", m.customer.String()) + "\n")
	if len(m.tables) == 0 {
		b.WriteString(statusStyle.Render(i18n.T("tables.none_available")))
		return b.String()
	}
	start, end := m.visibleRange(len(m.tables))
	for i := start; i < end; i++ {
		label := i18n.T("tables.table", m.tables[i].Number)
		if i == m.cursor {
			b.WriteString(selectedItemStyle.Render("> " + label))
		} else {
			b.WriteString(itemStyle.Render(label))
		}
		b.WriteString("\n")
	}
	return b.String()
}
