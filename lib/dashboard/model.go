// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/flagdash/lib/featureflag"
	"github.com/bureau-foundation/flagdash/lib/flagclient"
	"github.com/bureau-foundation/flagdash/lib/session"
	"github.com/bureau-foundation/flagdash/lib/tui"
)

// screen identifies the top-level view.
type screen int

const (
	viewLogin screen = iota
	viewTable
	viewDetail
)

// statusLevel colors the status line.
type statusLevel int

const (
	statusInfo statusLevel = iota
	statusWarn
	statusError
)

// statusFadeDelay is how long a status message stays visible.
const statusFadeDelay = 5 * time.Second

const (
	sessionExpiredNotice = "Your session has expired. Please sign in again."
	signedOutNotice      = "Signed out in another window."
)

// Options configures a dashboard Model.
type Options struct {
	// Client issues the flag requests. Required.
	Client FlagAPI

	// Guard owns the persisted session. Required. NewModel restores
	// the session through it.
	Guard *Guard

	// State holds the current environment. Defaults to DEVELOPMENT
	// over the three known environments.
	State *State

	// Server is the API root shown in the header and on the login
	// view.
	Server string

	// Theme defaults to tui.DefaultTheme.
	Theme *tui.Theme

	// Logger receives diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// Context bounds every request the dashboard issues. Defaults to
	// context.Background().
	Context context.Context

	// Now is the clock used for change highlights. Defaults to
	// time.Now.
	Now func() time.Time
}

// Model is the bubbletea model of the flag dashboard. It is a value
// type: shared mutable state (refresh sequencing, heat, environment)
// lives behind pointers so copies made by Update stay consistent.
type Model struct {
	ctx    context.Context
	client FlagAPI
	guard  *Guard
	state  *State
	theme  tui.Theme
	keys   KeyMap
	logger *slog.Logger
	server string
	clock  func() time.Time

	session *session.Session
	view    screen
	login   LoginModel

	flags             []featureflag.Flag
	rows              []Row
	visible           []int
	matches           map[string]RowMatch
	loadedEnvironment featureflag.Environment
	digests           map[string][32]byte
	cursor            int
	offset            int
	loading           bool

	refresh     *flagSync
	heat        *tui.HeatTracker
	tickRunning bool

	filter   FilterModel
	form     *FormModel
	confirm  *confirmState
	dropdown *tui.DropdownOverlay
	detail   *detailState

	spinner  spinner.Model
	spinning bool
	help     help.Model

	status      string
	statusLevel statusLevel
	statusID    int

	width  int
	height int
}

// NewModel creates the dashboard. When the guard restores a session
// the dashboard opens on the flag table; otherwise on the login view.
func NewModel(options Options) Model {
	theme := tui.DefaultTheme
	if options.Theme != nil {
		theme = *options.Theme
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx := options.Context
	if ctx == nil {
		ctx = context.Background()
	}
	state := options.State
	if state == nil {
		state = NewState(featureflag.Development, nil)
	}
	clock := options.Now
	if clock == nil {
		clock = time.Now
	}

	helpModel := help.New()
	helpModel.Styles.ShortKey = helpModel.Styles.ShortKey.Foreground(theme.Accent)
	helpModel.Styles.ShortDesc = helpModel.Styles.ShortDesc.Foreground(theme.HelpText)
	helpModel.Styles.FullKey = helpModel.Styles.FullKey.Foreground(theme.Accent)
	helpModel.Styles.FullDesc = helpModel.Styles.FullDesc.Foreground(theme.HelpText)

	model := Model{
		ctx:     ctx,
		client:  options.Client,
		guard:   options.Guard,
		state:   state,
		theme:   theme,
		keys:    DefaultKeyMap,
		logger:  logger,
		server:  options.Server,
		clock:   clock,
		refresh: &flagSync{},
		heat:    tui.NewHeatTracker(),
		filter:  NewFilterModel(theme),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    helpModel,
	}

	restored, err := model.guard.Restore()
	switch {
	case err != nil:
		logger.Warn("restoring session", "error", err)
		model.view = viewLogin
		model.login = NewLoginModel(theme, "")
		model.login.Notice = "Could not read the saved session. Please sign in."
	case restored == nil:
		model.view = viewLogin
		model.login = NewLoginModel(theme, "")
	default:
		model.session = restored
		model.view = viewTable
		model.login = NewLoginModel(theme, restored.Username)
		// Init cannot mutate the model, so the first refresh is
		// marked in flight here.
		model.loading = true
		model.spinning = true
	}
	return model
}

// Init starts the first refresh when a session was restored.
func (model Model) Init() tea.Cmd {
	if model.view == viewLogin {
		return nil
	}
	return tea.Batch(model.loadFlags(), model.spinner.Tick)
}

// Update implements tea.Model.
func (model Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch message := msg.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.help.Width = message.Width
		model.ensureVisible()
		return model, nil

	case tea.KeyMsg:
		return model.handleKey(message)

	case tea.MouseMsg:
		return model.handleMouse(message)

	case flagsLoadedMsg:
		return model.handleFlagsLoaded(message)

	case flagFetchedMsg:
		return model.handleFlagFetched(message)

	case mutationResultMsg:
		return model.handleMutationResult(message)

	case auditLoadedMsg:
		return model.handleAuditLoaded(message)

	case loginResultMsg:
		return model.handleLoginResult(message)

	case logoutResultMsg:
		if message.err != nil {
			model.logger.Error("clearing session", "error", message.err)
		}
		return model, nil

	case sessionChangedMsg:
		return model.handleSessionChanged(message.change)

	case logRecordMsg:
		level := statusInfo
		switch {
		case message.Level >= slog.LevelError:
			level = statusError
		case message.Level >= slog.LevelWarn:
			level = statusWarn
		}
		return model, model.setStatus(message.Summary, level)

	case statusFadeMsg:
		if message.id == model.statusID {
			model.status = ""
		}
		return model, nil

	case heatTickMsg:
		return model.handleHeatTick()

	case spinner.TickMsg:
		if !model.loading && !model.login.submitting {
			model.spinning = false
			return model, nil
		}
		var cmd tea.Cmd
		model.spinner, cmd = model.spinner.Update(message)
		return model, cmd
	}
	return model, nil
}

// handleKey routes a key press to whichever layer has focus: the
// login view, an open overlay, the filter input, then the current
// view.
func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if message.String() == "ctrl+c" {
		return model, tea.Quit
	}

	if model.view == viewLogin {
		if model.login.submitting {
			return model, nil
		}
		submit, cmd := model.login.update(message)
		if submit {
			return model, model.submitLogin()
		}
		return model, cmd
	}

	if model.form != nil {
		action, cmd := model.form.Update(message)
		switch action {
		case formCancel:
			model.form = nil
			return model, nil
		case formSubmit:
			return model, model.Submit()
		}
		return model, cmd
	}

	if model.confirm != nil {
		switch message.String() {
		case "y", "Y", "enter":
			return model, model.ConfirmDelete()
		case "n", "N", "esc", "q":
			model.DeclineDelete()
		}
		return model, nil
	}

	if model.dropdown != nil {
		return model.handleDropdownKey(message)
	}

	if model.filter.Active {
		return model.handleFilterKey(message)
	}

	if model.view == viewDetail {
		return model.handleDetailKey(message)
	}
	return model.handleTableKey(message)
}

func (model Model) handleTableKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.Help):
		model.help.ShowAll = !model.help.ShowAll
		model.ensureVisible()

	case key.Matches(message, model.keys.Up):
		model.moveCursor(-1)
	case key.Matches(message, model.keys.Down):
		model.moveCursor(1)
	case key.Matches(message, model.keys.PageUp):
		model.moveCursor(-max(model.tableRows(), 1))
	case key.Matches(message, model.keys.PageDown):
		model.moveCursor(max(model.tableRows(), 1))
	case key.Matches(message, model.keys.Home):
		model.moveCursor(-len(model.visible))
	case key.Matches(message, model.keys.End):
		model.moveCursor(len(model.visible))

	case key.Matches(message, model.keys.Toggle):
		if flag, ok := model.selectedFlag(); ok {
			return model, model.Toggle(flag.FlagKey)
		}
	case key.Matches(message, model.keys.Edit):
		if flag, ok := model.selectedFlag(); ok {
			return model.editSelected(flag)
		}
	case key.Matches(message, model.keys.Delete):
		if flag, ok := model.selectedFlag(); ok {
			model.Delete(flag)
		}
	case key.Matches(message, model.keys.Detail):
		if flag, ok := model.selectedFlag(); ok {
			model.view = viewDetail
			return model, model.openDetail(flag)
		}
	case key.Matches(message, model.keys.Copy):
		if flag, ok := model.selectedFlag(); ok {
			return model, tea.Batch(
				copyToClipboard(flag.FlagKey),
				model.setStatus("Copied "+flag.FlagKey, statusInfo),
			)
		}

	case key.Matches(message, model.keys.Create):
		model.ShowCreate()
	case key.Matches(message, model.keys.Refresh):
		return model, model.loadFlags()

	case key.Matches(message, model.keys.EnvironmentMenu):
		model.openEnvironmentMenu()
	case key.Matches(message, model.keys.Environment1):
		return model.selectEnvironment(0)
	case key.Matches(message, model.keys.Environment2):
		return model.selectEnvironment(1)
	case key.Matches(message, model.keys.Environment3):
		return model.selectEnvironment(2)

	case key.Matches(message, model.keys.FilterActivate):
		model.filter.Activate()
		model.ensureVisible()
	case key.Matches(message, model.keys.FilterClear):
		if model.filter.Query() != "" {
			model.filter.Clear()
			model.refilter()
		}

	case key.Matches(message, model.keys.Logout):
		return model, model.Logout()
	}
	return model, nil
}

func (model Model) handleDetailKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if model.detail == nil {
		model.view = viewTable
		return model.handleTableKey(message)
	}
	flag := model.detail.flag
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit
	case key.Matches(message, model.keys.Back):
		model.view = viewTable
		model.detail = nil
	case key.Matches(message, model.keys.Up):
		model.scrollDetail(-1)
	case key.Matches(message, model.keys.Down):
		model.scrollDetail(1)
	case key.Matches(message, model.keys.PageUp):
		model.scrollDetail(-max(model.bodyHeight()-1, 1))
	case key.Matches(message, model.keys.PageDown):
		model.scrollDetail(max(model.bodyHeight()-1, 1))
	case key.Matches(message, model.keys.Toggle):
		return model, model.Toggle(flag.FlagKey)
	case key.Matches(message, model.keys.Edit):
		return model.editSelected(flag)
	case key.Matches(message, model.keys.Delete):
		model.Delete(flag)
	case key.Matches(message, model.keys.Copy):
		return model, tea.Batch(
			copyToClipboard(flag.FlagKey),
			model.setStatus("Copied "+flag.FlagKey, statusInfo),
		)
	case key.Matches(message, model.keys.Refresh):
		return model, model.loadFlags()
	case key.Matches(message, model.keys.Help):
		model.help.ShowAll = !model.help.ShowAll
	}
	return model, nil
}

func (model Model) handleDropdownKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.String() {
	case "up", "k":
		model.dropdown.MoveUp()
	case "down", "j":
		model.dropdown.MoveDown()
	case "enter", " ":
		option, ok := model.dropdown.Selected()
		model.dropdown = nil
		if ok {
			return model, model.ChangeEnvironment(featureflag.Environment(option.Value))
		}
	case "esc", "q", "E":
		model.dropdown = nil
	}
	return model, nil
}

func (model Model) handleFilterKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.String() {
	case "esc":
		model.filter.Clear()
		model.refilter()
		model.ensureVisible()
		return model, nil
	case "enter":
		model.filter.Deactivate()
		model.ensureVisible()
		return model, nil
	case "up":
		model.moveCursor(-1)
		return model, nil
	case "down":
		model.moveCursor(1)
		return model, nil
	}
	before := model.filter.Query()
	cmd := model.filter.Update(message)
	if model.filter.Query() != before {
		model.cursor = 0
		model.offset = 0
		model.refilter()
	}
	return model, cmd
}

// handleMouse scrolls the table with the wheel and selects rows on
// click. The environment dropdown takes clicks while open.
func (model Model) handleMouse(message tea.MouseMsg) (tea.Model, tea.Cmd) {
	if model.view == viewLogin || model.form != nil || model.confirm != nil {
		return model, nil
	}
	if model.dropdown != nil {
		if message.Action != tea.MouseActionPress || message.Button != tea.MouseButtonLeft {
			return model, nil
		}
		if !model.dropdown.Contains(message.X, message.Y) {
			model.dropdown = nil
			return model, nil
		}
		index := model.dropdown.OptionAtY(message.Y)
		if index < 0 {
			return model, nil
		}
		option := model.dropdown.Options[index]
		model.dropdown = nil
		return model, model.ChangeEnvironment(featureflag.Environment(option.Value))
	}

	switch message.Button {
	case tea.MouseButtonWheelUp:
		if model.view == viewDetail {
			model.scrollDetail(-3)
		} else {
			model.moveCursor(-3)
		}
	case tea.MouseButtonWheelDown:
		if model.view == viewDetail {
			model.scrollDetail(3)
		} else {
			model.moveCursor(3)
		}
	case tea.MouseButtonLeft:
		if message.Action != tea.MouseActionPress || model.view != viewTable {
			return model, nil
		}
		if message.Y == 0 && message.X >= model.environmentBadgeX() {
			model.openEnvironmentMenu()
			return model, nil
		}
		row := message.Y - model.tableTop() - 1
		if row >= 0 && row < model.tableRows() {
			index := model.offset + row
			if index < len(model.visible) {
				model.cursor = index
			}
		}
	}
	return model, nil
}

// editSelected opens the edit form for flag, fetching the current
// record first.
func (model Model) editSelected(flag featureflag.Flag) (tea.Model, tea.Cmd) {
	if !flag.HasID() {
		return model, model.setStatus("Flag "+flag.FlagKey+" has no id and cannot be edited", statusWarn)
	}
	return model, model.EditFlag(*flag.ID)
}

func (model Model) selectEnvironment(index int) (tea.Model, tea.Cmd) {
	environment, ok := model.state.EnvironmentAt(index)
	if !ok {
		return model, nil
	}
	return model, model.ChangeEnvironment(environment)
}

func (model *Model) openEnvironmentMenu() {
	var options []tui.DropdownOption
	for _, environment := range model.state.Environments() {
		options = append(options, tui.DropdownOption{
			Label: environment.Label(),
			Value: string(environment),
		})
	}
	model.dropdown = tui.NewDropdown(options, string(model.state.Environment()), model.environmentBadgeX(), 1)
}

// handleSessionChanged follows a session another process saved or
// removed.
func (model Model) handleSessionChanged(change session.Change) (tea.Model, tea.Cmd) {
	if change.Err != nil {
		model.logger.Warn("reading changed session", "error", change.Err)
		return model, nil
	}

	if change.Session == nil {
		if model.view == viewLogin {
			return model, nil
		}
		if err := model.guard.Forget(); err != nil {
			model.logger.Error("clearing session token", "error", err)
		}
		notice := signedOutNotice
		if model.guard.ConsumeExpired() {
			notice = sessionExpiredNotice
		}
		model.signOut(notice)
		return model, nil
	}

	if model.session != nil && model.session.Token == change.Session.Token {
		return model, nil
	}
	if err := model.guard.Adopt(change.Session); err != nil {
		model.logger.Error("adopting changed session", "error", err)
		return model, nil
	}
	model.session = change.Session
	if model.view == viewLogin {
		model.view = viewTable
		model.login.Notice = ""
	}
	return model, model.loadFlags()
}

// ForwardSessionChanges delivers session watcher events to the
// program until changes closes or ctx is cancelled.
func ForwardSessionChanges(ctx context.Context, changes <-chan session.Change, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			send(SessionChanged(change))
		}
	}
}

// handleError reports a failed request. A rejected session returns
// to the login view; anything else lands in the status line.
func (model Model) handleError(action string, err error) (tea.Model, tea.Cmd) {
	if isUnauthorized(err) {
		model.guard.ConsumeExpired()
		model.signOut(sessionExpiredNotice)
		return model, nil
	}
	model.logger.Debug(action, "error", err)
	return model, model.setStatus(action+": "+describeError(err), statusError)
}

// signOut returns to the login view and forgets everything loaded
// under the previous session. Requests still in flight finish, but
// their results are ignored while the login view is showing.
func (model *Model) signOut(notice string) {
	username := ""
	if model.session != nil {
		username = model.session.Username
	}
	model.session = nil
	model.view = viewLogin
	model.login = NewLoginModel(model.theme, username)
	model.login.Notice = notice

	model.loading = false
	model.flags = nil
	model.rows = nil
	model.visible = nil
	model.matches = nil
	model.digests = nil
	model.loadedEnvironment = ""
	model.cursor = 0
	model.offset = 0
	model.form = nil
	model.confirm = nil
	model.dropdown = nil
	model.detail = nil
	model.heat.Reset()
	model.filter.Clear()
}

// setStatus shows text in the status line and schedules its fade.
func (model *Model) setStatus(text string, level statusLevel) tea.Cmd {
	model.statusID++
	model.status = text
	model.statusLevel = level
	id := model.statusID
	return tea.Tick(statusFadeDelay, func(time.Time) tea.Msg {
		return statusFadeMsg{id: id}
	})
}

// startSpinner starts the spinner tick chain unless it is running.
func (model *Model) startSpinner() tea.Cmd {
	if model.spinning {
		return nil
	}
	model.spinning = true
	return model.spinner.Tick
}

func (model Model) now() time.Time {
	return model.clock()
}

// selectedFlag returns the flag under the cursor.
func (model Model) selectedFlag() (featureflag.Flag, bool) {
	if model.cursor < 0 || model.cursor >= len(model.visible) {
		return featureflag.Flag{}, false
	}
	index := model.visible[model.cursor]
	if index < 0 || index >= len(model.flags) {
		return featureflag.Flag{}, false
	}
	return model.flags[index], true
}

// refilter recomputes the visible rows from the filter query.
func (model *Model) refilter() {
	model.visible, model.matches = model.filter.Apply(model.rows)
	model.clampCursor()
}

// restoreSelection moves the cursor back to the row with identity,
// if it is still visible.
func (model *Model) restoreSelection(identity string) {
	if identity != "" {
		for position, index := range model.visible {
			if model.rows[index].Identity() == identity {
				model.cursor = position
				break
			}
		}
	}
	model.clampCursor()
}

func (model *Model) moveCursor(delta int) {
	model.cursor += delta
	model.clampCursor()
}

func (model *Model) clampCursor() {
	model.cursor = min(max(model.cursor, 0), max(len(model.visible)-1, 0))
	model.ensureVisible()
}

// ensureVisible scrolls the table so the cursor row is on screen.
func (model *Model) ensureVisible() {
	rows := model.tableRows()
	if rows <= 0 {
		model.offset = 0
		return
	}
	if model.cursor < model.offset {
		model.offset = model.cursor
	}
	if model.cursor >= model.offset+rows {
		model.offset = model.cursor - rows + 1
	}
	model.offset = min(max(model.offset, 0), max(len(model.visible)-rows, 0))
}

func (model *Model) scrollDetail(delta int) {
	if model.detail == nil {
		return
	}
	detail := *model.detail
	detail.offset = max(detail.offset+delta, 0)
	model.detail = &detail
}

func isUnauthorized(err error) bool {
	return errors.Is(err, flagclient.ErrUnauthorized)
}

// describeError shortens service errors for the status line.
func describeError(err error) string {
	var apiErr *flagclient.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return fmt.Sprintf("%d %s", apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Sprintf("HTTP %d", apiErr.StatusCode)
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return err.Error()
}
