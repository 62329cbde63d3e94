package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/songbook/internal/formatter"
	"github.com/desertthunder/songbook/internal/similarity"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CandidateListView ViewState = iota
	DetailView
	ConfirmView
)

// Reviewer is the moderation surface the TUI drives. [services.Library] implements it.
type Reviewer interface {
	Duplicates(ctx context.Context, policy similarity.Policy, scorer similarity.Scorer) ([]similarity.Candidate, error)
	Reject(ctx context.Context, id string) error
	Dismiss(ctx context.Context, idA, idB string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	reviewer   Reviewer
	policy     similarity.Policy
	scorer     similarity.Scorer
	width      int
	height     int
	list       list.Model
	candidates []similarity.Candidate
	selected   *similarity.Candidate
	target     string // entry id pending deletion
	status     string
	scanning   bool
	err        error
	help       help.Model
	keys       keyMap
}

// NewModel creates a review model scanning with policy. A nil scorer uses the reviewer's configured one.
func NewModel(ctx context.Context, reviewer Reviewer, policy similarity.Policy, scorer similarity.Scorer) *Model {
	m := &Model{
		ctx:      ctx,
		view:     CandidateListView,
		reviewer: reviewer,
		policy:   policy,
		scorer:   scorer,
		help:     help.New(),
		keys:     newKeyMap(),
	}
	m.list = m.newList(nil)
	return m
}

// Init starts the first scan.
func (m *Model) Init() tea.Cmd {
	return m.scan()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if m.err != nil {
			return m.handleErrorKeys(msg)
		}
		switch m.view {
		case CandidateListView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgCandidatesFetched:
		data := msg.data.(candidatesFetched)
		m.scanning = false
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.setCandidates(data.candidates)
		m.view = CandidateListView
		m.selected = nil
		return m, nil

	case MsgEntryDeleted:
		data := msg.data.(entryDeleted)
		m.target = ""
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.status = fmt.Sprintf("Deleted %s, rescanning...", data.id)
		m.view = CandidateListView
		m.selected = nil
		return m, m.scan()

	case MsgPairDismissed:
		data := msg.data.(pairDismissed)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.removePair(data.a, data.b)
		m.status = fmt.Sprintf("Dismissed %s / %s until the next scan", data.a, data.b)
		m.view = CandidateListView
		m.selected = nil
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress esc to go back, q to quit", m.err))
	}

	switch m.view {
	case CandidateListView:
		return m.renderList()
	case DetailView:
		return m.renderDetail()
	case ConfirmView:
		return m.renderConfirm()
	default:
		return ""
	}
}

func (m *Model) handleErrorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.err = nil
		m.view = CandidateListView
		m.selected = nil
	}
	return m, nil
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.rescan):
		m.status = "Rescanning..."
		return m, m.scan()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.list.SelectedItem().(candidateItem); ok {
			c := item.candidate
			m.selected = &c
			m.status = ""
			m.view = DetailView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = CandidateListView
		m.selected = nil
	case key.Matches(msg, m.keys.deleteA):
		m.target = m.selected.A.ID()
		m.view = ConfirmView
	case key.Matches(msg, m.keys.deleteB):
		m.target = m.selected.B.ID()
		m.view = ConfirmView
	case key.Matches(msg, m.keys.dismiss):
		return m, m.dismiss(m.selected.A.ID(), m.selected.B.ID())
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		return m, m.delete(m.target)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.target = ""
		m.view = DetailView
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) newList(items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Duplicate Candidates"
	l.SetShowHelp(false)
	if m.width > 0 {
		l.SetSize(m.width-4, m.height-8)
	}
	return l
}

func (m *Model) setCandidates(candidates []similarity.Candidate) {
	m.candidates = candidates
	items := make([]list.Item, len(candidates))
	for i, c := range candidates {
		items[i] = candidateItem{candidate: c}
	}
	m.list = m.newList(items)
}

// removePair drops a dismissed pair from the current listing only.
func (m *Model) removePair(a, b string) {
	kept := make([]similarity.Candidate, 0, len(m.candidates))
	for _, c := range m.candidates {
		if c.A.ID() == a && c.B.ID() == b {
			continue
		}
		kept = append(kept, c)
	}
	m.setCandidates(kept)
}

func (m *Model) scan() tea.Cmd {
	m.scanning = true
	return func() tea.Msg {
		candidates, err := m.reviewer.Duplicates(m.ctx, m.policy, m.scorer)
		return candidatesFetchedMsg(candidates, err)
	}
}

func (m *Model) delete(id string) tea.Cmd {
	return func() tea.Msg {
		return entryDeletedMsg(id, m.reviewer.Reject(m.ctx, id))
	}
}

func (m *Model) dismiss(a, b string) tea.Cmd {
	return func() tea.Msg {
		return pairDismissedMsg(a, b, m.reviewer.Dismiss(m.ctx, a, b))
	}
}

func (m *Model) renderList() string {
	var b strings.Builder

	op := ">="
	if m.policy.Strict {
		op = ">"
	}
	b.WriteString(styles.help.Render(fmt.Sprintf("Policy: %s (score %s %.2f)", m.policy.Name, op, m.policy.Threshold)))
	b.WriteString("\n\n")

	switch {
	case m.scanning && len(m.candidates) == 0:
		b.WriteString("Scanning lyrics...")
	case len(m.candidates) == 0:
		b.WriteString(styles.ok.Render("✓ No duplicate candidates"))
	default:
		b.WriteString(m.list.View())
	}

	if m.status != "" {
		b.WriteString("\n\n" + styles.warn.Render(m.status))
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.rescan, m.keys.quit}
	b.WriteString("\n\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderDetail() string {
	c := m.selected
	title := styles.title.Render(fmt.Sprintf("%.2f%% similar", c.Percent()))

	paneWidth := 40
	if m.width > 0 {
		paneWidth = max(m.width/2-4, 20)
	}
	left := renderPane(fmt.Sprintf("[a] %s - %s", c.A.Artist, c.A.Title), c.A.ID(), string(c.A.Status), c.A.Lyrics, paneWidth)
	right := renderPane(fmt.Sprintf("[b] %s - %s", c.B.Artist, c.B.Title), c.B.ID(), string(c.B.Status), c.B.Lyrics, paneWidth)
	panes := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	distance := formatter.EditDistance(c.A.Lyrics, c.B.Lyrics)
	diff := fmt.Sprintf("%s\n%s", styles.help.Render(fmt.Sprintf("Diff (edit distance %d)", distance)), renderDiff(c.A.Lyrics, c.B.Lyrics))

	helpKeys := []key.Binding{m.keys.deleteA, m.keys.deleteB, m.keys.dismiss, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, panes, diff, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderConfirm() string {
	entry := &m.selected.A
	if m.target == m.selected.B.ID() {
		entry = &m.selected.B
	}

	title := styles.title.Render(fmt.Sprintf("Delete '%s' by %s?", entry.Title, entry.Artist))
	info := fmt.Sprintf("\nID: %s\nStatus: %s\n\n%s", entry.ID(), entry.Status, styles.warn.Render("This cannot be undone."))

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, m.help.ShortHelpView(helpKeys))
}

func renderPane(heading, id, status, lyrics string, width int) string {
	body := lyrics
	if strings.TrimSpace(body) == "" {
		body = styles.help.Render("(no lyrics)")
	}
	header := fmt.Sprintf("%s\n%s", styles.ok.Render(heading), styles.help.Render(id+" • "+status))
	return styles.pane.Width(width).Render(header + "\n\n" + body)
}

// renderDiff colors the character diff from a to b.
func renderDiff(a, b string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(a, b, false))

	var buf strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			buf.WriteString(styles.removed.Render(d.Text))
		case diffmatchpatch.DiffInsert:
			buf.WriteString(styles.added.Render(d.Text))
		default:
			buf.WriteString(d.Text)
		}
	}
	return buf.String()
}
