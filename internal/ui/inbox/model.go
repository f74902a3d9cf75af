package inbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/nhle/mailboard/internal/api"
	"github.com/nhle/mailboard/internal/keys"
	"github.com/nhle/mailboard/internal/pager"
	"github.com/nhle/mailboard/internal/state"
	"github.com/nhle/mailboard/internal/theme"
	"github.com/nhle/mailboard/internal/ui"
	"github.com/nhle/mailboard/internal/ui/format"
	"github.com/nhle/mailboard/internal/ui/skeleton"
	"github.com/nhle/mailboard/internal/ui/toast"
)

// Backend is the part of the accounts API the inbox needs.
// *api.AccountsService satisfies it.
type Backend interface {
	pager.Source
	List(ctx context.Context) ([]api.Account, error)
	Folders(ctx context.Context, id api.ID) ([]api.Folder, error)
	Move(ctx context.Context, id api.ID, messageID string, req api.MoveEmailRequest) error
}

// OpenMessageMsg asks the parent to show a message in the detail view.
type OpenMessageMsg struct {
	AccountID    api.ID
	AccountEmail string
	MessageID    string
}

// Column keys for persisted widths.
const (
	colFrom    = "from"
	colSubject = "subject"
	colDate    = "date"
)

var defaultWidths = map[string]int{
	colFrom:    22,
	colSubject: 36,
	colDate:    12,
}

const resizeStep = 2

var errAllFailed = errors.New("every account failed to respond")

type accountsLoadedMsg struct {
	accounts []api.Account
	err      error
}

type foldersLoadedMsg struct {
	accountID api.ID
	folders   []api.Folder
	err       error
}

type pageLoadedMsg struct {
	page *pager.Page
	err  error
}

type moveFoldersMsg struct {
	message pager.Message
	folders []api.Folder
	err     error
}

type movedMsg struct{ err error }

type moveBindings struct {
	folderID string
}

// Model is the inbox view: the message table for the current account and
// folder selection, paged through a pager.Pager.
type Model struct {
	backend Backend
	pager   *pager.Pager
	keys    *keys.KeyMap
	now     func() time.Time

	accounts   []api.Account
	folders    []api.Folder
	foldersErr error

	accountID  string
	folderID   string
	sortColumn pager.Column
	sortDir    pager.Direction
	widths     map[string]int

	page    pager.Page
	rows    []pager.Message
	cursor  int
	loading bool
	err     error
	noAcct  bool

	moveMsg  *pager.Message
	moveForm *huh.Form
	mb       *moveBindings

	width  int
	height int
}

// New creates the inbox view.
func New(b Backend, p *pager.Pager, k *keys.KeyMap, width, height int) Model {
	return Model{
		backend:    b,
		pager:      p,
		keys:       k,
		now:        time.Now,
		accountID:  state.All,
		folderID:   state.All,
		sortColumn: pager.ColumnDate,
		sortDir:    pager.Descending,
		widths:     map[string]int{},
		mb:         &moveBindings{},
		loading:    true,
		width:      width,
		height:     height,
	}
}

// Init loads the accounts and the first page.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Load reloads accounts, folders and the first page of the selection.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	m.err = nil
	b := m.backend
	return func() tea.Msg {
		accounts, err := b.List(context.Background())
		return accountsLoadedMsg{accounts: accounts, err: err}
	}
}

// ApplyState adopts the persisted selection, sort and column widths. A
// changed account or folder resets paging and reloads.
func (m *Model) ApplyState(s state.ViewState) tea.Cmd {
	m.sortColumn = pager.Column(s.SortColumn)
	m.sortDir = pager.Direction(s.SortDirection)
	m.widths = s.ColumnWidths
	m.rows = pager.SortMessages(m.page.Messages, m.sortColumn, m.sortDir)

	account, folder := s.AccountID, s.FolderID
	if s.AllAccounts() {
		account = state.All
	}
	if s.AllFolders() {
		folder = state.All
	}
	if account == m.accountID && folder == m.folderID {
		return nil
	}
	accountChanged := account != m.accountID
	m.accountID, m.folderID = account, folder
	if accountChanged {
		m.folders = nil
		m.foldersErr = nil
	}
	if len(m.accounts) == 0 {
		return nil
	}

	m.pager.SetSelection(m.selection())
	m.loading = true
	m.err = nil
	m.cursor = 0

	cmds := []tea.Cmd{m.fetch(m.pager.First)}
	if accountChanged && m.accountID != state.All {
		cmds = append(cmds, m.loadFolders(api.ID(m.accountID)))
	}
	return tea.Batch(cmds...)
}

func (m Model) selection() pager.Selection {
	if m.accountID == state.All {
		return pager.AllAccounts{}
	}
	sel := pager.SpecificAccount{AccountID: api.ID(m.accountID)}
	if m.folderID != state.All {
		sel.FolderID = m.folderID
	}
	return sel
}

// Update handles messages for the inbox view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m.updateMoveForm(msg)

	case accountsLoadedMsg:
		return m.handleAccounts(msg)

	case foldersLoadedMsg:
		if string(msg.accountID) != m.accountID {
			return m, nil
		}
		m.foldersErr = msg.err
		m.folders = SortFolders(msg.folders)
		return m, nil

	case pageLoadedMsg:
		return m.handlePage(msg)

	case moveFoldersMsg:
		if msg.err != nil {
			m.moveMsg = nil
			return m, ui.ActionFailed("load folders", msg.err)
		}
		m.moveMsg = &msg.message
		m.mb.folderID = ""
		m.moveForm = m.buildMoveForm(SortFolders(msg.folders))
		return m, m.moveForm.Init()

	case movedMsg:
		if msg.err != nil {
			return m, ui.ActionFailed("move email", msg.err)
		}
		m.loading = true
		return m, tea.Batch(
			toast.Show(toast.Success, "Email moved"),
			m.fetch(m.pager.FetchPage),
		)

	case tea.KeyMsg:
		if m.moveForm != nil {
			return m.updateMoveForm(msg)
		}
		return m.handleKey(msg)
	}

	return m.updateMoveForm(msg)
}

func (m Model) handleAccounts(msg accountsLoadedMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		m.loading = false
		m.err = msg.err
		return m, nil
	}

	m.accounts = msg.accounts
	m.pager.SetAccounts(msg.accounts)
	m.noAcct = len(msg.accounts) == 0
	if m.noAcct {
		m.loading = false
		m.page = pager.Page{}
		m.rows = nil
		return m, nil
	}

	var cmds []tea.Cmd
	if m.accountID != state.All && m.accountIndex(api.ID(m.accountID)) < 0 {
		m.accountID, m.folderID = state.All, state.All
		cmds = append(cmds, ui.Dispatch(state.SelectAccount{AccountID: state.All}))
	}

	m.pager.SetSelection(m.selection())
	cmds = append(cmds, m.fetch(m.pager.First))
	if m.accountID != state.All {
		cmds = append(cmds, m.loadFolders(api.ID(m.accountID)))
	} else {
		m.folders = nil
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handlePage(msg pageLoadedMsg) (Model, tea.Cmd) {
	switch {
	case errors.Is(msg.err, pager.ErrStale):
		// A newer fetch owns the loading state.
		return m, nil
	case errors.Is(msg.err, pager.ErrNoNextPage), errors.Is(msg.err, pager.ErrNoPreviousPage):
		m.loading = false
		return m, nil
	case msg.err != nil:
		m.loading = false
		m.err = msg.err
		return m, nil
	}

	m.loading = false
	m.page = *msg.page
	m.rows = pager.SortMessages(m.page.Messages, m.sortColumn, m.sortDir)
	m.cursor = min(m.cursor, max(0, len(m.rows)-1))
	m.err = nil

	if m.page.AllFailed() {
		m.err = errAllFailed
		return m, nil
	}
	if n := len(m.page.FailedAccounts); n > 0 {
		return m, toast.Show(toast.Warning,
			fmt.Sprintf("Could not load %s; showing the rest", format.Plural(n, "account")))
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return OpenMessageMsg{
				AccountID:    row.AccountID,
				AccountEmail: row.AccountEmail,
				MessageID:    string(row.ID),
			}
		}

	case key.Matches(msg, m.keys.NextPage):
		if !m.pager.HasNext() {
			return m, nil
		}
		m.loading = true
		m.cursor = 0
		return m, m.fetch(m.pager.Advance)

	case key.Matches(msg, m.keys.PrevPage):
		if !m.pager.HasPrevious() {
			return m, nil
		}
		m.loading = true
		m.cursor = 0
		return m, m.fetch(m.pager.Retreat)

	case key.Matches(msg, m.keys.FirstPage):
		m.loading = true
		m.cursor = 0
		return m, m.fetch(m.pager.First)

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Load()

	case key.Matches(msg, m.keys.CycleAccount):
		if len(m.accounts) == 0 {
			return m, nil
		}
		return m, ui.Dispatch(state.SelectAccount{AccountID: m.nextAccountID()})

	case key.Matches(msg, m.keys.CycleFolder):
		if m.accountID == state.All || len(m.folders) == 0 {
			return m, nil
		}
		return m, ui.Dispatch(state.SelectFolder{FolderID: m.nextFolderID()})

	case key.Matches(msg, m.keys.SortFrom):
		return m, ui.Dispatch(state.SortBy{Column: string(pager.ColumnFrom)})

	case key.Matches(msg, m.keys.SortSubject):
		return m, ui.Dispatch(state.SortBy{Column: string(pager.ColumnSubject)})

	case key.Matches(msg, m.keys.SortDate):
		return m, ui.Dispatch(state.SortBy{Column: string(pager.ColumnDate)})

	case key.Matches(msg, m.keys.Narrower):
		col := string(m.sortColumn)
		return m, ui.Dispatch(state.ResizeColumn{Column: col, Width: m.columnWidth(col) - resizeStep})

	case key.Matches(msg, m.keys.Wider):
		col := string(m.sortColumn)
		return m, ui.Dispatch(state.ResizeColumn{Column: col, Width: m.columnWidth(col) + resizeStep})

	case key.Matches(msg, m.keys.Move):
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.loadMoveFolders(row)
	}

	return m, nil
}

// nextAccountID cycles all -> first account -> ... -> last account -> all.
func (m Model) nextAccountID() string {
	if m.accountID == state.All {
		return string(m.accounts[0].ID)
	}
	i := m.accountIndex(api.ID(m.accountID))
	if i < 0 || i == len(m.accounts)-1 {
		return state.All
	}
	return string(m.accounts[i+1].ID)
}

// nextFolderID cycles all -> first folder -> ... -> last folder -> all.
func (m Model) nextFolderID() string {
	if m.folderID == state.All {
		return string(m.folders[0].ID)
	}
	for i, f := range m.folders {
		if string(f.ID) == m.folderID {
			if i == len(m.folders)-1 {
				return state.All
			}
			return string(m.folders[i+1].ID)
		}
	}
	return state.All
}

func (m Model) accountIndex(id api.ID) int {
	for i, a := range m.accounts {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (m Model) selected() (pager.Message, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return pager.Message{}, false
	}
	return m.rows[m.cursor], true
}

func (m Model) columnWidth(col string) int {
	if w, ok := m.widths[col]; ok && w > 0 {
		return w
	}
	return defaultWidths[col]
}

func (m Model) buildMoveForm(folders []api.Folder) *huh.Form {
	options := make([]huh.Option[string], 0, len(folders))
	for _, f := range folders {
		options = append(options, huh.NewOption(f.Name, string(f.ID)))
	}

	subject := ""
	if m.moveMsg != nil {
		subject = m.moveMsg.Subject
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Move to folder").
				Description(subject).
				Options(options...).
				Value(&m.mb.folderID),
		),
	).WithWidth(min(80, max(40, m.width-4))).WithKeyMap(ui.FormKeyMap())
}

func (m Model) updateMoveForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.moveForm == nil {
		return m, nil
	}
	mdl, cmd := m.moveForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.moveForm = f
	}

	switch m.moveForm.State {
	case huh.StateCompleted:
		target := *m.moveMsg
		m.moveForm, m.moveMsg = nil, nil
		return m, m.move(target, m.mb.folderID)
	case huh.StateAborted:
		m.moveForm, m.moveMsg = nil, nil
		return m, nil
	}
	return m, cmd
}

// Capturing reports whether the view is consuming all key input.
func (m Model) Capturing() bool {
	return m.moveForm != nil
}

func (m Model) fetch(op func(context.Context) (*pager.Page, error)) tea.Cmd {
	return func() tea.Msg {
		page, err := op(context.Background())
		return pageLoadedMsg{page: page, err: err}
	}
}

func (m Model) loadFolders(id api.ID) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		folders, err := b.Folders(context.Background(), id)
		return foldersLoadedMsg{accountID: id, folders: folders, err: err}
	}
}

func (m Model) loadMoveFolders(row pager.Message) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		folders, err := b.Folders(context.Background(), row.AccountID)
		return moveFoldersMsg{message: row, folders: folders, err: err}
	}
}

func (m Model) move(row pager.Message, folderID string) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		err := b.Move(context.Background(), row.AccountID, string(row.ID), api.MoveEmailRequest{
			ToFolderID:   folderID,
			FromFolderID: row.FolderID,
		})
		return movedMsg{err: err}
	}
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Hints returns the status bar key hints for the inbox.
func (m Model) Hints() string {
	if m.moveForm != nil {
		return "enter select | esc cancel"
	}
	return "enter open | h/l page | a account | f folder | F/S/D sort | </> width | m move | r refresh"
}

// View renders the inbox.
func (m Model) View() string {
	if m.moveForm != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.moveForm.View())
	}

	width := max(20, m.width-4)
	bodyHeight := max(1, m.height-2)

	var body string
	switch {
	case m.noAcct:
		body = ui.Placeholder(width, bodyHeight, "Connect an email account to view your inbox")
	case m.err != nil:
		body = ui.ErrorPlaceholder(width, bodyHeight, "inbox", m.err)
	case m.loading && len(m.rows) == 0:
		body = m.renderTitle() + "\n\n" + skeleton.Table(width, min(10, max(1, bodyHeight-4)), 4)
	default:
		body = m.renderInbox(width)
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(body)
}

func (m Model) renderTitle() string {
	title := "Inbox · All accounts"
	if i := m.accountIndex(api.ID(m.accountID)); i >= 0 {
		title = "Inbox · " + m.accounts[i].EmailAddress
		if m.folderID != state.All {
			title += " / " + m.folderName(m.folderID)
		}
	}
	if m.loading {
		title += theme.DimmedStyle.Render("  loading…")
	}
	return theme.TitleStyle.Render(title)
}

func (m Model) folderName(id string) string {
	for _, f := range m.folders {
		if string(f.ID) == id {
			return f.Name
		}
	}
	return id
}

func (m Model) showAccountMarker() bool {
	return m.accountID == state.All && len(m.accounts) > 1
}

func (m Model) renderInbox(width int) string {
	var b strings.Builder

	b.WriteString(m.renderTitle())
	b.WriteString("\n")

	if m.showAccountMarker() {
		b.WriteString(m.renderLegend())
		b.WriteString("\n")
	}
	if m.accountID != state.All {
		b.WriteString(m.renderFolders(width))
		b.WriteString("\n")
	}

	pagination := format.Pagination(m.page.Index, m.pager.PageSize(), len(m.rows), m.page.Total,
		m.pager.HasPrevious(), m.pager.HasNext())
	if pagination != "" {
		b.WriteString(theme.DimmedStyle.Render(pagination))
		b.WriteString("\n")
	}

	if len(m.page.SkippedAccounts) > 0 {
		b.WriteString(theme.WarningStyle.Render(fmt.Sprintf(
			"%s need re-authentication and were skipped",
			format.Plural(len(m.page.SkippedAccounts), "account"))))
		b.WriteString("\n")
	}

	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString(theme.DimmedStyle.Italic(true).Render("No emails found"))
		return b.String()
	}

	b.WriteString(m.renderHeaderRow(width))
	b.WriteString("\n")

	for i, row := range m.visibleRows() {
		b.WriteString(m.renderRow(row, i+m.scrollOffset() == m.cursor, width))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// renderLegend lists each account's local part in its marker color.
func (m Model) renderLegend() string {
	items := make([]string, 0, len(m.accounts))
	for i, a := range m.accounts {
		swatch := lipgloss.NewStyle().Foreground(theme.AccountColor(i)).Render("■")
		items = append(items, swatch+" "+format.LocalPart(a.EmailAddress))
	}
	return strings.Join(items, "  ")
}

func (m Model) renderFolders(width int) string {
	if m.foldersErr != nil {
		return theme.ErrorStyle.Render("Failed to load folders")
	}

	items := []string{m.folderLabel("All Mail", 0, m.folderID == state.All)}
	for _, f := range m.folders {
		items = append(items, m.folderLabel(f.Name, f.UnreadCount, string(f.ID) == m.folderID))
	}
	return ansi.Truncate(strings.Join(items, " "), width, "…")
}

func (m Model) folderLabel(name string, unread int, active bool) string {
	label := name
	if unread > 0 {
		label += fmt.Sprintf(" (%d)", unread)
	}
	if active {
		return lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Padding(0, 1).Render("[" + label + "]")
	}
	return theme.TabStyle.Padding(0, 1).Render(label)
}

func (m Model) previewWidth(width int) int {
	used := m.columnWidth(colFrom) + m.columnWidth(colSubject) + m.columnWidth(colDate) + 3
	if m.showAccountMarker() {
		used += 2
	}
	return max(0, width-used)
}

func (m Model) sortIndicator(col pager.Column) string {
	if m.sortColumn != col {
		return ""
	}
	if m.sortDir == pager.Ascending {
		return " ▲"
	}
	return " ▼"
}

func (m Model) renderHeaderRow(width int) string {
	cells := []string{
		cell("From"+m.sortIndicator(pager.ColumnFrom), m.columnWidth(colFrom)),
		cell("Subject"+m.sortIndicator(pager.ColumnSubject), m.columnWidth(colSubject)),
		cell("Preview", m.previewWidth(width)),
		cell("Date"+m.sortIndicator(pager.ColumnDate), m.columnWidth(colDate)),
	}
	line := strings.Join(cells, " ")
	if m.showAccountMarker() {
		line = "  " + line
	}
	return lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGray).Render(line)
}

func (m Model) renderRow(row pager.Message, selected bool, width int) string {
	subject := row.Subject
	if subject == "" {
		subject = "(No subject)"
	}

	line := strings.Join([]string{
		cell(pager.SenderName(row.From), m.columnWidth(colFrom)),
		cell(subject, m.columnWidth(colSubject)),
		theme.DimmedStyle.Render(cell(row.Snippet, m.previewWidth(width))),
		cell(format.Date(row.Date.Time, m.now()), m.columnWidth(colDate)),
	}, " ")

	style := lipgloss.NewStyle()
	if row.IsUnread {
		style = theme.UnreadStyle
	}
	if selected {
		style = style.Reverse(true)
	}
	line = style.Render(line)

	if m.showAccountMarker() {
		i := max(0, m.accountIndex(row.AccountID))
		line = lipgloss.NewStyle().Foreground(theme.AccountColor(i)).Render("▌") + " " + line
	}
	return line
}

// cell truncates s to exactly width cells.
func cell(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	s = ansi.Truncate(s, width, "…")
	if pad := width - ansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func (m Model) tableHeight() int {
	// Title, legend or folders, pagination, spacer, header and padding.
	return max(1, m.height-8)
}

func (m Model) scrollOffset() int {
	h := m.tableHeight()
	if m.cursor < h {
		return 0
	}
	return m.cursor - h + 1
}

func (m Model) visibleRows() []pager.Message {
	start := m.scrollOffset()
	end := min(len(m.rows), start+m.tableHeight())
	return m.rows[start:end]
}

// Cursor returns the position of the highlighted row.
func (m Model) Cursor() int {
	return m.cursor
}

// Rows returns the messages of the current page in display order.
func (m Model) Rows() []pager.Message {
	return m.rows
}
