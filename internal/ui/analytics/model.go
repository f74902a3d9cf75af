package analytics

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/mailboard/internal/api"
	"github.com/nhle/mailboard/internal/keys"
	"github.com/nhle/mailboard/internal/sync"
	"github.com/nhle/mailboard/internal/theme"
	"github.com/nhle/mailboard/internal/ui"
	"github.com/nhle/mailboard/internal/ui/format"
	"github.com/nhle/mailboard/internal/ui/skeleton"
	"github.com/nhle/mailboard/internal/ui/toast"
)

// PanelLimit is the number of rows requested per analytics panel.
const PanelLimit = 10

// DayFilters are the selectable time windows. Zero means all time.
var DayFilters = []int{0, 7, 30, 90, 365}

// Backend is the analytics API. *api.AnalyticsService satisfies it.
type Backend interface {
	All(ctx context.Context, limit, days int) (*api.Analytics, error)
	StartSync(ctx context.Context) (*api.SyncJob, error)
	CancelSync(ctx context.Context, jobID api.ID) error
}

// Spam is the reputation lookup API. *api.SpamService satisfies it.
type Spam interface {
	CheckEmail(ctx context.Context, email string) (*api.SpamResult, error)
	CheckEmails(ctx context.Context, emails []string) (*api.SpamBatch, error)
}

// Bulk is the bulk sender API. *api.BulkService satisfies it.
type Bulk interface {
	Folders(ctx context.Context) (map[string]api.AccountFolders, error)
	Move(ctx context.Context, req api.BulkMoveRequest) (*api.BulkResult, error)
	Segregate(ctx context.Context, senders []string) (*api.BulkResult, error)
	Segregated(ctx context.Context) ([]api.SegregatedSender, error)
}

// Watcher resumes sync polling. *sync.Monitor satisfies it.
type Watcher interface {
	Watch()
}

// Deps groups the services the analytics view talks to.
type Deps struct {
	Analytics Backend
	Spam      Spam
	Bulk      Bulk
	Watcher   Watcher
}

var (
	scanKey      = key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "spam scan"))
	checkKey     = key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "check sender"))
	segregateKey = key.NewBinding(key.WithKeys("G"), key.WithHelp("G", "segregate"))
	cancelKey    = key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "cancel sync"))
)

type mode int

const (
	modeView mode = iota
	modeMoveForm
	modeConfirmSegregate
)

// Panels that support sender selection.
const (
	panelTopSenders = iota
	panelUnread
)

const (
	targetExisting = "existing"
	targetNew      = "new"
)

type formBindings struct {
	target    string
	folderID  string
	newFolder string
	confirm   bool
}

type loadedMsg struct {
	days       int
	data       *api.Analytics
	segregated map[string]bool
	err        error
}

type spamScanMsg struct {
	batch *api.SpamBatch
	err   error
}

type spamCheckMsg struct {
	email  string
	result *api.SpamResult
	err    error
}

type foldersMsg struct {
	folders map[string]api.AccountFolders
	err     error
}

type bulkDoneMsg struct {
	action     string
	message    string
	segregated []string
	err        error
}

type syncStartedMsg struct {
	job *api.SyncJob
	err error
}

type syncCancelledMsg struct {
	err error
}

// SpamRow is one entry of a spam scan, listed senders first.
type SpamRow struct {
	Email  string
	Result api.SpamResult
}

// Model is the analytics view.
type Model struct {
	mode mode
	deps Deps
	keys *keys.KeyMap

	dayIdx     int
	data       *api.Analytics
	segregated map[string]bool
	loading    bool
	err        error

	panel    int
	cursor   int
	selected map[string]bool

	scanning bool
	spamRows []SpamRow
	spamSum  *api.SpamSummary
	spamErr  error

	job *api.SyncJob
	bar progress.Model

	form    *huh.Form
	fb      *formBindings
	folders map[string]api.AccountFolders

	width  int
	height int
}

// New creates the analytics view.
func New(deps Deps, k *keys.KeyMap, width, height int) Model {
	return Model{
		deps:       deps,
		keys:       k,
		loading:    true,
		segregated: map[string]bool{},
		selected:   map[string]bool{},
		bar:        progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		fb:         &formBindings{},
		width:      width,
		height:     height,
	}
}

// Init loads analytics for the current window.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Reload refetches analytics.
func (m *Model) Reload() tea.Cmd {
	m.loading = true
	return m.load()
}

// Days returns the active time window, zero for all time.
func (m Model) Days() int {
	return DayFilters[m.dayIdx]
}

// Syncing reports whether a background sync is in progress.
func (m Model) Syncing() bool {
	return m.job != nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		if msg.days != m.Days() {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.data = msg.data
			m.segregated = msg.segregated
			m.clampCursor()
		}
		return m, nil

	case spamScanMsg:
		m.scanning = false
		m.spamErr = msg.err
		if msg.err == nil {
			m.spamRows = SortSpam(msg.batch.Results)
			sum := msg.batch.Summary
			m.spamSum = &sum
		}
		return m, nil

	case spamCheckMsg:
		if msg.err != nil {
			return m, ui.ActionFailed("check "+msg.email, msg.err)
		}
		return m, ui.Alert("Spam check", checkMessage(msg.email, *msg.result))

	case foldersMsg:
		if msg.err != nil {
			m.mode = modeView
			return m, ui.ActionFailed("load folders", msg.err)
		}
		m.folders = msg.folders
		*m.fb = formBindings{target: targetExisting}
		if len(folderOptions(msg.folders)) == 0 {
			m.fb.target = targetNew
		}
		m.form = m.buildMoveForm()
		m.mode = modeMoveForm
		return m, m.form.Init()

	case bulkDoneMsg:
		m.mode = modeView
		if msg.err != nil {
			return m, ui.ActionFailed(msg.action, msg.err)
		}
		for _, s := range msg.segregated {
			m.segregated[strings.ToLower(s)] = true
		}
		m.selected = map[string]bool{}
		cmds := []tea.Cmd{ui.Alert("Done", msg.message)}
		if len(msg.segregated) > 0 {
			cmds = append(cmds, m.Reload())
		}
		return m, tea.Batch(cmds...)

	case syncStartedMsg:
		if msg.err != nil {
			m.job = nil
			return m, ui.ActionFailed("start sync", msg.err)
		}
		m.job = msg.job
		return m, nil

	case syncCancelledMsg:
		if msg.err != nil {
			return m, ui.ActionFailed("cancel", msg.err)
		}
		m.job = nil
		return m, nil

	case sync.SyncProgressMsg:
		job := msg.Job
		m.job = &job
		return m, nil

	case sync.SyncFinishedMsg:
		m.job = nil
		return m, tea.Batch(finishedToast(msg.Job), m.Reload())

	case tea.KeyMsg:
		switch m.mode {
		case modeMoveForm, modeConfirmSegregate:
			return m.updateForm(msg)
		}
		return m.handleKey(msg)
	}

	switch m.mode {
	case modeMoveForm, modeConfirmSegregate:
		return m.updateForm(msg)
	}
	return m, nil
}

func finishedToast(job api.SyncJob) tea.Cmd {
	switch job.Status {
	case api.JobCompleted:
		return toast.Show(toast.Success, "Sync completed")
	case api.JobFailed:
		msg := "Sync failed"
		if job.StatusMessage != "" {
			msg += ": " + job.StatusMessage
		}
		return toast.Show(toast.Error, msg)
	}
	return toast.Show(toast.Info, "Sync cancelled")
}

func checkMessage(email string, r api.SpamResult) string {
	if r.Listed {
		return fmt.Sprintf("⚠ %s is LISTED:\n%s", email, r.Reason)
	}
	return fmt.Sprintf("✓ %s is clean (not on Spamhaus blocklist)", email)
}

// SortSpam orders scan results with listed senders first, then by address.
func SortSpam(results map[string]api.SpamResult) []SpamRow {
	rows := make([]SpamRow, 0, len(results))
	for email, r := range results {
		rows = append(rows, SpamRow{Email: email, Result: r})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Result.Listed != rows[j].Result.Listed {
			return rows[i].Result.Listed
		}
		return rows[i].Email < rows[j].Email
	})
	return rows
}

// panelEmails returns the sender addresses of a selectable panel.
func (m Model) panelEmails(panel int) []string {
	if m.data == nil {
		return nil
	}
	var out []string
	switch panel {
	case panelTopSenders:
		for _, s := range m.data.TopSenders {
			out = append(out, s.Email)
		}
	case panelUnread:
		for _, s := range m.data.UnreadBySender {
			out = append(out, s.Email)
		}
	}
	return out
}

// ScanTargets returns the unique senders of the top and unread panels.
func (m Model) ScanTargets() []string {
	var out []string
	for _, p := range []int{panelTopSenders, panelUnread} {
		for _, e := range m.panelEmails(p) {
			if !slices.Contains(out, e) {
				out = append(out, e)
			}
		}
	}
	return out
}

// Selected returns the selected senders in panel order.
func (m Model) Selected() []string {
	var out []string
	for _, e := range m.ScanTargets() {
		if m.selected[e] {
			out = append(out, e)
		}
	}
	return out
}

func (m *Model) clampCursor() {
	n := len(m.panelEmails(m.panel))
	if m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

func (m Model) cursorEmail() (string, bool) {
	emails := m.panelEmails(m.panel)
	if m.cursor < len(emails) {
		return emails[m.cursor], true
	}
	return "", false
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if n := len(m.panelEmails(m.panel)); n > 0 {
			m.cursor = (m.cursor + 1) % n
		}

	case key.Matches(msg, m.keys.Up):
		if n := len(m.panelEmails(m.panel)); n > 0 {
			m.cursor--
			if m.cursor < 0 {
				m.cursor = n - 1
			}
		}

	case key.Matches(msg, m.keys.NextPage), key.Matches(msg, m.keys.PrevPage):
		if m.panel == panelTopSenders {
			m.panel = panelUnread
		} else {
			m.panel = panelTopSenders
		}
		m.clampCursor()

	case key.Matches(msg, m.keys.Mark):
		if e, ok := m.cursorEmail(); ok {
			if m.selected[e] {
				delete(m.selected, e)
			} else {
				m.selected[e] = true
			}
		}

	case key.Matches(msg, m.keys.MarkAll):
		all := m.ScanTargets()
		if len(all) > 0 && len(m.Selected()) == len(all) {
			m.selected = map[string]bool{}
		} else {
			for _, e := range all {
				m.selected[e] = true
			}
		}

	case key.Matches(msg, m.keys.CycleFolder):
		m.dayIdx = (m.dayIdx + 1) % len(DayFilters)
		return m, m.Reload()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Reload()

	case key.Matches(msg, scanKey):
		targets := m.ScanTargets()
		if len(targets) == 0 {
			return m, ui.Alert("Spam scan", "No senders to scan. Please sync analytics data first.")
		}
		m.scanning = true
		m.spamErr = nil
		return m, m.scan(targets)

	case key.Matches(msg, checkKey):
		if e, ok := m.cursorEmail(); ok {
			return m, m.check(e)
		}

	case key.Matches(msg, m.keys.Move):
		if len(m.Selected()) == 0 {
			return m, ui.Alert("Bulk move", "Please select at least one sender")
		}
		return m, m.loadFolders()

	case key.Matches(msg, segregateKey):
		selected := m.Selected()
		if len(selected) == 0 {
			return m, ui.Alert("Segregate", "Please select at least one sender")
		}
		m.fb.confirm = false
		m.form = m.buildSegregateForm(selected)
		m.mode = modeConfirmSegregate
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Sync):
		if m.job != nil {
			return m, toast.Show(toast.Info, "A sync is already running")
		}
		m.job = &api.SyncJob{Status: api.JobRunning, StatusMessage: "Starting..."}
		return m, m.startSync()

	case key.Matches(msg, cancelKey):
		if m.job != nil && m.job.JobID != "" {
			return m, m.cancelSync(m.job.JobID)
		}
	}
	return m, nil
}

func folderOptions(folders map[string]api.AccountFolders) []huh.Option[string] {
	accounts := make([]string, 0, len(folders))
	for account := range folders {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)

	var opts []huh.Option[string]
	for _, account := range accounts {
		af := folders[account]
		if af.Error != "" {
			continue
		}
		for _, f := range af.Folders {
			opts = append(opts, huh.NewOption(account+" / "+f.Name, f.ID.String()))
		}
	}
	return opts
}

func (m Model) buildMoveForm() *huh.Form {
	n := len(m.Selected())
	isNew := func() bool { return m.fb.target == targetNew }
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Move Emails from Selected Senders").
				Description(fmt.Sprintf("Move all emails from %s to:", format.Plural(n, "sender"))).
				Options(
					huh.NewOption("Choose existing folder", targetExisting),
					huh.NewOption("Create new folder", targetNew),
				).
				Value(&m.fb.target),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Folder").
				Options(folderOptions(m.folders)...).
				Value(&m.fb.folderID),
		).WithHideFunc(isNew),
		huh.NewGroup(
			huh.NewInput().
				Title("New folder name").
				Placeholder("Enter folder name").
				Value(&m.fb.newFolder).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("please enter a folder name")
					}
					return nil
				}),
		).WithHideFunc(func() bool { return !isNew() }),
	).WithWidth(ui.FormWidth(m.width)).
		WithHeight(ui.FormHeight(m.height)).
		WithKeyMap(ui.FormKeyMap())
}

// SegregatePlan describes where each sender's mail will go.
func SegregatePlan(senders []string, segregated map[string]bool) string {
	var b strings.Builder
	var already int
	for _, s := range senders {
		if segregated[strings.ToLower(s)] {
			already++
		}
	}

	fmt.Fprintf(&b, "This will create a folder for each of the %s under a \"Segregated\" parent folder.\n",
		format.Plural(len(senders), "selected sender"))
	if already > 0 {
		fmt.Fprintf(&b, "Note: %s already segregated. Only new emails (received since last run) will be moved.\n",
			format.Plural(already, "sender"))
	}
	b.WriteString("\n")
	for _, s := range senders {
		tag := "(new)"
		if segregated[strings.ToLower(s)] {
			tag = "(update)"
		}
		fmt.Fprintf(&b, "%s → Segregated/%s %s\n", s, format.LocalPart(s), tag)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) buildSegregateForm(selected []string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Segregate Emails by Sender").
				Description(SegregatePlan(selected, m.segregated)).
				Affirmative("Segregate Emails").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(ui.FormWidth(m.width)).
		WithHeight(ui.FormHeight(m.height)).
		WithKeyMap(ui.FormKeyMap())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		done := m.mode
		m.mode = modeView
		switch done {
		case modeMoveForm:
			return m, m.move(m.moveRequest())
		case modeConfirmSegregate:
			if m.fb.confirm {
				return m, m.segregate(m.Selected())
			}
		}
		return m, nil
	case huh.StateAborted:
		m.mode = modeView
		return m, nil
	}
	return m, cmd
}

func (m Model) moveRequest() api.BulkMoveRequest {
	req := api.BulkMoveRequest{SenderEmails: m.Selected()}
	if m.fb.target == targetNew {
		req.CreateNew = true
		req.NewFolderName = strings.TrimSpace(m.fb.newFolder)
	} else {
		req.FolderID = m.fb.folderID
	}
	return req
}

// Capturing reports whether a form is consuming key input.
func (m Model) Capturing() bool {
	return m.mode != modeView
}

// Hints returns the status bar key hints.
func (m Model) Hints() string {
	if m.mode != modeView {
		return "enter confirm | esc cancel"
	}
	return "f days | h/l panel | space select | A all | m move | G segregate | p scan | c check | s sync | C cancel"
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func daysLabel(days int) string {
	if days == 0 {
		return "All time"
	}
	return fmt.Sprintf("Last %d days", days)
}

// View renders the analytics view.
func (m Model) View() string {
	if m.mode != modeView {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	width := max(20, m.width-4)

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Analytics"))
	b.WriteString("  ")
	b.WriteString(theme.DimmedStyle.Render(daysLabel(m.Days())))
	if n := len(m.Selected()); n > 0 {
		b.WriteString("  ")
		b.WriteString(theme.WarningStyle.Render(format.Plural(n, "sender") + " selected"))
	}
	b.WriteString("\n\n")

	if m.job != nil {
		b.WriteString(m.renderSync(width))
		b.WriteString("\n\n")
	}

	switch {
	case m.err != nil:
		b.WriteString(ui.ErrorPlaceholder(width, 5, "analytics", m.err))
		b.WriteString("\n")
		b.WriteString(theme.HelpStyle.Render("press s to sync data first"))
	case m.loading && m.data == nil:
		b.WriteString(skeleton.Stats(width, 4))
		b.WriteString("\n")
		b.WriteString(skeleton.Table(width, 6, 2))
	case m.data != nil:
		b.WriteString(m.renderSummary())
		b.WriteString("\n\n")
		b.WriteString(m.renderPanels(width))
		if spam := m.renderSpam(); spam != "" {
			b.WriteString("\n\n")
			b.WriteString(spam)
		}
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) renderSync(width int) string {
	job := m.job
	status := job.StatusMessage
	if status == "" {
		status = "Syncing..."
	}
	bar := m.bar
	bar.Width = min(60, width)

	lines := []string{
		theme.TitleStyle.Render(status),
		bar.ViewAs(min(1, max(0, job.Progress/100))),
	}
	if job.CurrentAccount != "" {
		lines = append(lines, theme.DimmedStyle.Render(job.CurrentAccount))
	}
	lines = append(lines, theme.DimmedStyle.Render(format.SyncStats(*job)))
	return strings.Join(lines, "\n")
}

func (m Model) renderSummary() string {
	s := m.data.Summary
	stat := func(label, value string) string {
		return theme.DetailPanelStyle.Padding(0, 1).Render(
			theme.DimmedStyle.Render(label) + "\n" + lipgloss.NewStyle().Bold(true).Render(value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		stat("Total emails", format.Count(s.TotalEmails)),
		stat("Unread", format.Count(s.UnreadEmails)),
		stat("Senders", format.Count(s.UniqueSenders)),
		stat("Read rate", format.Percent(s.ReadRatio)),
	)
}

type panelRow struct {
	email   string
	name    string
	value   string
	style   lipgloss.Style
	details string
}

func (m Model) renderPanels(width int) string {
	d := m.data
	colWidth := max(20, width/2-1)

	var top, unread, replies, low []panelRow
	for _, s := range d.TopSenders {
		top = append(top, panelRow{email: s.Email, name: s.Name, value: fmt.Sprintf("%d emails", s.Count)})
	}
	for _, s := range d.UnreadBySender {
		style := lipgloss.NewStyle()
		switch {
		case s.UnreadCount > 10:
			style = theme.ErrorStyle
		case s.UnreadCount > 5:
			style = theme.WarningStyle
		}
		unread = append(unread, panelRow{email: s.Email, name: s.Name, value: fmt.Sprintf("%d unread", s.UnreadCount), style: style})
	}
	for _, r := range d.ReplyRanking {
		replies = append(replies, panelRow{email: r.Email, value: fmt.Sprintf("%d sent", r.SentCount)})
	}
	for _, r := range d.LowReplyRatio {
		style := theme.WarningStyle
		if r.ReplyRatio < 0.1 {
			style = theme.ErrorStyle
		}
		low = append(low, panelRow{
			email:   r.Email,
			value:   format.ReplyRatio(r.ReplyRatio),
			style:   style,
			details: fmt.Sprintf("%d received, %d replied", r.Received, r.Replies),
		})
	}

	row1 := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderPanel("Top Senders", top, colWidth, panelTopSenders),
		" ",
		m.renderPanel("Unread by Sender", unread, colWidth, panelUnread),
	)
	row2 := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderPanel("Reply Ranking", replies, colWidth, -1),
		" ",
		m.renderPanel("Low Reply Ratio", low, colWidth, -1),
	)
	return row1 + "\n" + row2
}

func (m Model) renderPanel(title string, rows []panelRow, width, panel int) string {
	var b strings.Builder
	header := theme.TitleStyle
	if panel == m.panel {
		header = header.Foreground(theme.ColorBlue)
	}
	b.WriteString(header.Render(title))
	b.WriteString("\n")

	if len(rows) == 0 {
		b.WriteString(theme.DimmedStyle.Italic(true).Render("No data available"))
	}
	for i, r := range rows {
		var line strings.Builder
		if panel >= 0 {
			if m.selected[r.email] {
				line.WriteString("[x] ")
			} else {
				line.WriteString("[ ] ")
			}
		}
		line.WriteString(r.email)
		if m.segregated[strings.ToLower(r.email)] {
			line.WriteString(" " + theme.SuccessStyle.Render("✓"))
		}
		line.WriteString("  " + r.style.Render(r.value))
		if r.name != "" {
			line.WriteString("\n    " + theme.DimmedStyle.Render(r.name))
		}
		if r.details != "" {
			line.WriteString("\n    " + theme.DimmedStyle.Render(r.details))
		}

		if panel == m.panel && i == m.cursor {
			b.WriteString(theme.SelectedItemStyle.Render(line.String()))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line.String()))
		}
		b.WriteString("\n")
	}

	return theme.BorderStyle.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderSpam() string {
	switch {
	case m.scanning:
		return theme.DimmedStyle.Render("Checking against Spamhaus...")
	case m.spamErr != nil:
		return theme.ErrorStyle.Render("Error: " + m.spamErr.Error())
	case m.spamSum == nil:
		return ""
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Spam Check"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s  %s  Total: %d\n",
		theme.SuccessStyle.Render(fmt.Sprintf("✓ %d clean", m.spamSum.Clean)),
		theme.ErrorStyle.Render(fmt.Sprintf("⚠ %d listed", m.spamSum.Listed)),
		m.spamSum.Total)
	for _, r := range m.spamRows {
		if r.Result.Listed {
			fmt.Fprintf(&b, "%s  %s  %s\n", theme.ErrorStyle.Render("⚠ LISTED"), r.Email, theme.DimmedStyle.Render(r.Result.Reason))
		} else {
			fmt.Fprintf(&b, "%s  %s\n", theme.SuccessStyle.Render("✓ Clean"), r.Email)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) load() tea.Cmd {
	deps := m.deps
	days := m.Days()
	return func() tea.Msg {
		var (
			data       *api.Analytics
			segregated = map[string]bool{}
		)
		g, ctx := errgroup.WithContext(context.Background())
		g.Go(func() error {
			var err error
			data, err = deps.Analytics.All(ctx, PanelLimit, days)
			return err
		})
		if deps.Bulk != nil {
			g.Go(func() error {
				// Badges are optional; a failure only hides them.
				if senders, err := deps.Bulk.Segregated(ctx); err == nil {
					segregated = api.SegregatedSet(senders)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return loadedMsg{days: days, err: err}
		}
		return loadedMsg{days: days, data: data, segregated: segregated}
	}
}

func (m Model) scan(emails []string) tea.Cmd {
	spam := m.deps.Spam
	return func() tea.Msg {
		batch, err := spam.CheckEmails(context.Background(), emails)
		return spamScanMsg{batch: batch, err: err}
	}
}

func (m Model) check(email string) tea.Cmd {
	spam := m.deps.Spam
	return func() tea.Msg {
		r, err := spam.CheckEmail(context.Background(), email)
		return spamCheckMsg{email: email, result: r, err: err}
	}
}

func (m Model) loadFolders() tea.Cmd {
	bulk := m.deps.Bulk
	return func() tea.Msg {
		folders, err := bulk.Folders(context.Background())
		return foldersMsg{folders: folders, err: err}
	}
}

func (m Model) move(req api.BulkMoveRequest) tea.Cmd {
	bulk := m.deps.Bulk
	return func() tea.Msg {
		res, err := bulk.Move(context.Background(), req)
		if err != nil {
			return bulkDoneMsg{action: "move emails", err: err}
		}
		return bulkDoneMsg{message: fmt.Sprintf("Successfully moved %d emails from %d sender(s)",
			res.TotalMoved, len(req.SenderEmails))}
	}
}

func (m Model) segregate(senders []string) tea.Cmd {
	bulk := m.deps.Bulk
	return func() tea.Msg {
		res, err := bulk.Segregate(context.Background(), senders)
		if err != nil {
			return bulkDoneMsg{action: "segregate emails", err: err}
		}
		msg := fmt.Sprintf("No new emails to move. All %d sender(s) were already fully segregated.", len(senders))
		if res.TotalMoved > 0 {
			msg = fmt.Sprintf("Successfully moved %d new emails from %d sender(s) to their segregated folders.",
				res.TotalMoved, len(senders))
		}
		return bulkDoneMsg{message: msg, segregated: senders}
	}
}

func (m Model) startSync() tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		job, err := deps.Analytics.StartSync(context.Background())
		if err != nil {
			return syncStartedMsg{err: err}
		}
		if deps.Watcher != nil {
			deps.Watcher.Watch()
		}
		if job.Status == "" {
			job.Status = api.JobRunning
		}
		return syncStartedMsg{job: job}
	}
}

func (m Model) cancelSync(jobID api.ID) tea.Cmd {
	a := m.deps.Analytics
	return func() tea.Msg {
		return syncCancelledMsg{err: a.CancelSync(context.Background(), jobID)}
	}
}
