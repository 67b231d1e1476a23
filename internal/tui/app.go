package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"gmconsole/internal/api"
	"gmconsole/internal/config"
	"gmconsole/internal/dice"
	"gmconsole/internal/journal"
	"gmconsole/internal/modal"
	"gmconsole/internal/session"
	statesync "gmconsole/internal/sync"
)

// App ties together the console views and the shared state machines.
type App struct {
	ctx     context.Context
	client  *api.Client
	cfg     config.Config
	lock    *session.Lock
	arbiter *modal.Arbiter
	journal *journal.Journal
	roller  *dice.Roller
	poller  *statesync.Poller

	tab  tabID
	conn statesync.Status
	doc  api.ConfigDoc

	// audio tab
	audio       *statesync.Binding[api.AudioRegistry]
	audioCursor int
	voices      []api.Voice
	tracks      []api.Track
	picker      *picker

	// heroes tab
	heroes     []api.Character
	heroCursor int
	heroBind   *statesync.Binding[api.Character]

	// vault tab
	envVars   []api.EnvVar
	envCursor int
	showVals  bool

	// overview tab
	campaigns      []api.Campaign
	campaignCursor int
	events         []journal.EventEntry
	services       []string
	svcRunning     map[string]bool
	serviceCursor  int
	overviewPane   overviewPane

	// logs tab
	logService string
	logLines   []string

	// dice tab
	diceInput string
	diceMode  dice.Mode
	rolls     []journal.RollEntry

	modalInput textinput.Model
	status     string
}

type tabID string

const (
	tabOverview tabID = "overview"
	tabAudio    tabID = "audio"
	tabHeroes   tabID = "heroes"
	tabVault    tabID = "vault"
	tabLogs     tabID = "logs"
	tabDice     tabID = "dice"
)

var tabOrder = []tabID{tabOverview, tabAudio, tabHeroes, tabVault, tabLogs, tabDice}

// exemptTab reports whether a tab stays reachable while the session is
// locked. Only the vault holds sensitive material.
func exemptTab(t tabID) bool {
	return t != tabVault
}

type overviewPane string

const (
	paneCampaigns overviewPane = "campaigns"
	paneServices  overviewPane = "services"
)

type Deps struct {
	Client  *api.Client
	Lock    *session.Lock
	Arbiter *modal.Arbiter
	Journal *journal.Journal
	Roller  *dice.Roller
}

func New(ctx context.Context, cfg config.Config, deps Deps) *App {
	input := textinput.New()
	input.CharLimit = 256
	start := tabOverview
	for _, t := range tabOrder {
		if string(t) == cfg.UI.StartTab {
			start = t
		}
	}
	return &App{
		ctx:          ctx,
		client:       deps.Client,
		cfg:          cfg,
		lock:         deps.Lock,
		arbiter:      deps.Arbiter,
		journal:      deps.Journal,
		roller:       deps.Roller,
		tab:          start,
		audio:        statesync.NewBinding(api.AudioRegistry{}),
		overviewPane: paneCampaigns,
		logService:   "brain",
		services:     []string{"brain", "audio", "bridge"},
		diceInput:    "d20",
		modalInput:   input,
	}
}

// SetPoller hands the app the poller so keys can force a refresh. Called
// once during wiring, before the program starts.
func (a *App) SetPoller(p *statesync.Poller) { a.poller = p }

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadVoices(), a.loadTracks(), a.loadHeroes(), a.loadCampaigns(), a.loadServices(), a.loadEnv(), a.loadRolls(), a.loadEvents())
}

// messages

// SyncMsg carries one poller event into the update loop. The poller's sink
// wraps events in this and sends them through the running program.
type SyncMsg struct {
	Event statesync.Event
}

// ModalMsg signals that the arbiter's active request changed.
type ModalMsg struct{}

type voicesMsg []api.Voice

type tracksMsg []api.Track

type heroesMsg []api.Character

type heroMsg api.Character

type heroClosedMsg struct{}

type campaignsMsg []api.Campaign

type servicesMsg []api.ServiceStatus

type envMsg []api.EnvVar

type logsMsg struct {
	service string
	text    string
}

type rollsMsg []journal.RollEntry

type eventsMsg []journal.EventEntry

// changedMsg reports a completed mutation; the named collection reloads.
type changedMsg struct {
	what string // "heroes", "env", "campaigns", "rolls"
	note string
}

type unlockedMsg struct{}

type lockDeniedMsg struct{}

type statusMsg string

type errMsg struct{ error }

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		if a.arbiter.Active() != nil {
			return a.handleArbiterKey(m)
		}
		if a.picker != nil {
			return a.handlePickerKey(m)
		}
		return a.handleKey(m)

	case SyncMsg:
		return a.handleSyncEvent(m.Event)

	case ModalMsg:
		a.syncModalInput()

	case voicesMsg:
		a.voices = []api.Voice(m)
	case tracksMsg:
		a.tracks = []api.Track(m)
	case heroesMsg:
		a.heroes = []api.Character(m)
		if a.heroCursor >= len(a.heroes) {
			a.heroCursor = 0
		}
	case heroMsg:
		// each open sheet gets its own binding; audio stays untouched
		a.heroBind = statesync.NewBinding(api.Character(m))
	case heroClosedMsg:
		a.heroBind = nil
	case campaignsMsg:
		a.campaigns = []api.Campaign(m)
		if a.campaignCursor >= len(a.campaigns) {
			a.campaignCursor = 0
		}
	case servicesMsg:
		if len(m) > 0 {
			a.services = a.services[:0]
			a.svcRunning = make(map[string]bool, len(m))
			for _, s := range m {
				a.services = append(a.services, s.ID)
				a.svcRunning[s.ID] = s.Running
			}
			if a.serviceCursor >= len(a.services) {
				a.serviceCursor = 0
			}
		}
	case envMsg:
		a.envVars = []api.EnvVar(m)
		if a.envCursor >= len(a.envVars) {
			a.envCursor = 0
		}
	case logsMsg:
		if m.service == a.logService {
			a.logLines = tailLines(m.text, 200)
		}
		if a.tab == tabLogs {
			return a, a.logTick()
		}
	case rollsMsg:
		a.rolls = []journal.RollEntry(m)
	case eventsMsg:
		a.events = []journal.EventEntry(m)
	case changedMsg:
		a.status = m.note
		switch m.what {
		case "heroes":
			return a, a.loadHeroes()
		case "env":
			return a, a.loadEnv()
		case "campaigns":
			return a, a.loadCampaigns()
		case "rolls":
			return a, a.loadRolls()
		}
	case unlockedMsg:
		a.status = "session unlocked"
	case lockDeniedMsg:
		a.status = "invalid PIN"
	case statusMsg:
		a.status = string(m)
	case errMsg:
		a.status = "error: " + m.Error()
	}
	return a, nil
}

// handleSyncEvent applies one poller event. Failed polls carry errors but
// never clear previously synced state.
func (a *App) handleSyncEvent(ev statesync.Event) (tea.Model, tea.Cmd) {
	switch e := ev.(type) {
	case statesync.StatusEvent:
		a.conn = e.Status
	case statesync.ConfigEvent:
		a.doc = e.Doc
		a.audio.Reconcile(e.Doc.AudioRegistry)
	case statesync.AuthEvent:
		a.lock.Apply(e.Status)
	case statesync.ErrorEvent:
		a.lock.ApplyError()
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "tab":
		a.tab = nextTab(a.tab, 1)
		return a, a.enterTabCmd()
	case "shift+tab":
		a.tab = nextTab(a.tab, -1)
		return a, a.enterTabCmd()
	case "1", "2", "3", "4", "5", "6":
		idx := int(m.String()[0] - '1')
		if idx < len(tabOrder) {
			a.tab = tabOrder[idx]
			return a, a.enterTabCmd()
		}
		return a, nil
	case "R":
		if a.poller != nil {
			a.poller.Refresh()
			a.status = "refreshing..."
		}
		return a, nil
	case "L":
		return a, a.lockNowCmd()
	case "P":
		return a, a.toggleRememberPinCmd()
	case "u":
		if a.lock.State() == session.StateLocked {
			return a, a.unlockCmd()
		}
	}

	// locked tabs accept no further input
	if a.lock.Gated(exemptTab(a.tab)) {
		return a, nil
	}

	switch a.tab {
	case tabOverview:
		return a.handleOverviewKey(m)
	case tabAudio:
		return a.handleAudioKey(m)
	case tabHeroes:
		return a.handleHeroesKey(m)
	case tabVault:
		return a.handleVaultKey(m)
	case tabLogs:
		return a.handleLogsKey(m)
	case tabDice:
		return a.handleDiceKey(m)
	}
	return a, nil
}

func (a *App) enterTabCmd() tea.Cmd {
	a.status = ""
	switch a.tab {
	case tabLogs:
		return a.loadLogs(a.logService)
	case tabVault:
		return a.loadEnv()
	case tabHeroes:
		return a.loadHeroes()
	case tabOverview:
		return tea.Batch(a.loadCampaigns(), a.loadServices(), a.loadEvents())
	case tabDice:
		return a.loadRolls()
	}
	return nil
}

func nextTab(cur tabID, dir int) tabID {
	for i, t := range tabOrder {
		if t == cur {
			return tabOrder[(i+dir+len(tabOrder))%len(tabOrder)]
		}
	}
	return tabOrder[0]
}

func (a *App) handleOverviewKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "left", "right", "h", "l":
		if a.overviewPane == paneCampaigns {
			a.overviewPane = paneServices
		} else {
			a.overviewPane = paneCampaigns
		}
	case "up", "k":
		if a.overviewPane == paneCampaigns && a.campaignCursor > 0 {
			a.campaignCursor--
		}
		if a.overviewPane == paneServices && a.serviceCursor > 0 {
			a.serviceCursor--
		}
	case "down", "j":
		if a.overviewPane == paneCampaigns && a.campaignCursor < len(a.campaigns)-1 {
			a.campaignCursor++
		}
		if a.overviewPane == paneServices && a.serviceCursor < len(a.services)-1 {
			a.serviceCursor++
		}
	case "enter":
		if a.overviewPane == paneCampaigns && len(a.campaigns) > 0 {
			return a, a.activateCampaignCmd(a.campaigns[a.campaignCursor])
		}
		if a.overviewPane == paneServices {
			return a, a.restartServiceCmd(a.services[a.serviceCursor])
		}
	case "backspace", "delete":
		if a.overviewPane == paneCampaigns && len(a.campaigns) > 0 {
			return a, a.deleteCampaignCmd(a.campaigns[a.campaignCursor])
		}
	case "A":
		if a.overviewPane == paneServices {
			return a, a.restartAllCmd()
		}
	}
	return a, nil
}

func (a *App) handleAudioKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := a.audioRows()
	switch m.String() {
	case "up", "k":
		if a.audioCursor > 0 {
			a.audioCursor--
		}
	case "down", "j":
		if a.audioCursor < len(rows)-1 {
			a.audioCursor++
		}
	case "enter":
		if len(rows) == 0 {
			return a, nil
		}
		return a.openAudioEditor(rows[a.audioCursor])
	case "a":
		return a, a.addArchetypeCmd()
	case "t":
		return a, a.addSoundscapeCmd()
	case "backspace", "delete":
		if len(rows) == 0 {
			return a, nil
		}
		a.removeAudioRow(rows[a.audioCursor])
	case "s":
		if !a.audio.Dirty() {
			a.status = "no unsaved changes"
			return a, nil
		}
		return a, a.saveAudioCmd()
	}
	return a, nil
}

func (a *App) handleHeroesKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.heroBind != nil {
		switch m.String() {
		case "esc":
			if a.heroBind.Dirty() {
				return a, a.closeHeroCmd()
			}
			a.heroBind = nil
		case "e":
			return a, a.editHeroNotesCmd()
		case "+":
			a.heroBind.Edit(func(h *api.Character) {
				if h.HP < h.HPMax {
					h.HP++
				}
			})
		case "-":
			a.heroBind.Edit(func(h *api.Character) {
				if h.HP > 0 {
					h.HP--
				}
			})
		case "s":
			if !a.heroBind.Dirty() {
				a.status = "no unsaved changes"
				return a, nil
			}
			return a, a.saveHeroCmd()
		}
		return a, nil
	}
	switch m.String() {
	case "up", "k":
		if a.heroCursor > 0 {
			a.heroCursor--
		}
	case "down", "j":
		if a.heroCursor < len(a.heroes)-1 {
			a.heroCursor++
		}
	case "enter":
		if len(a.heroes) > 0 {
			return a, a.openHeroCmd(a.heroes[a.heroCursor].ID)
		}
	case "n":
		return a, a.createHeroCmd()
	case "backspace", "delete":
		if len(a.heroes) > 0 {
			return a, a.deleteHeroCmd(a.heroes[a.heroCursor])
		}
	case "r":
		return a, a.loadHeroes()
	}
	return a, nil
}

func (a *App) handleVaultKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "up", "k":
		if a.envCursor > 0 {
			a.envCursor--
		}
	case "down", "j":
		if a.envCursor < len(a.envVars)-1 {
			a.envCursor++
		}
	case "n":
		return a, a.addEnvCmd()
	case "enter":
		if len(a.envVars) > 0 {
			return a, a.editEnvCmd(a.envVars[a.envCursor])
		}
	case "backspace", "delete":
		if len(a.envVars) > 0 {
			return a, a.deleteEnvCmd(a.envVars[a.envCursor].Key)
		}
	case "v":
		a.showVals = !a.showVals
	case "r":
		return a, a.loadEnv()
	}
	return a, nil
}

func (a *App) handleLogsKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "left", "right", "h", "l":
		a.logService = nextService(a.services, a.logService, m.String())
		a.logLines = nil
		return a, a.loadLogs(a.logService)
	case "r":
		return a, a.loadLogs(a.logService)
	}
	return a, nil
}

func nextService(services []string, cur, key string) string {
	dir := 1
	if key == "left" || key == "h" {
		dir = -1
	}
	for i, s := range services {
		if s == cur {
			return services[(i+dir+len(services))%len(services)]
		}
	}
	return services[0]
}

func (a *App) handleDiceKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "ctrl+a":
		a.diceMode = toggleMode(a.diceMode, dice.ModeAdvantage)
		return a, nil
	case "ctrl+d":
		a.diceMode = toggleMode(a.diceMode, dice.ModeDisadvantage)
		return a, nil
	}
	switch m.Type {
	case tea.KeyEnter:
		expr := strings.TrimSpace(a.diceInput)
		if expr == "" {
			a.status = "enter a dice expression"
			return a, nil
		}
		return a, a.rollCmd(expr, a.diceMode)
	case tea.KeyBackspace, tea.KeyCtrlH, tea.KeyDelete:
		if len(a.diceInput) > 0 {
			a.diceInput = a.diceInput[:len(a.diceInput)-1]
		}
	case tea.KeySpace:
		a.diceInput += " "
	case tea.KeyRunes:
		a.diceInput += string(m.Runes)
	}
	return a, nil
}

func toggleMode(cur, want dice.Mode) dice.Mode {
	if cur == want {
		return dice.ModeNormal
	}
	return want
}

// handleArbiterKey routes keys to the active confirm or prompt dialog.
func (a *App) handleArbiterKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	req := a.arbiter.Active()
	if req == nil {
		return a, nil
	}
	switch req.Kind {
	case modal.KindConfirm:
		switch m.String() {
		case "y", "Y", "enter":
			a.arbiter.Resolve(req.ID, true, "")
		case "n", "N", "esc":
			a.arbiter.Cancel(req.ID)
		}
		return a, nil
	case modal.KindPrompt:
		switch m.Type {
		case tea.KeyEnter:
			a.arbiter.Resolve(req.ID, true, a.modalInput.Value())
			return a, nil
		case tea.KeyEsc:
			a.arbiter.Cancel(req.ID)
			return a, nil
		}
		var cmd tea.Cmd
		a.modalInput, cmd = a.modalInput.Update(m)
		return a, cmd
	}
	return a, nil
}

// syncModalInput resets the text input whenever a new prompt becomes active.
func (a *App) syncModalInput() {
	req := a.arbiter.Active()
	if req == nil || req.Kind != modal.KindPrompt {
		a.modalInput.Blur()
		return
	}
	a.modalInput.SetValue(req.Initial)
	a.modalInput.Placeholder = req.Placeholder
	a.modalInput.CursorEnd()
	a.modalInput.Focus()
}

func tailLines(text string, n int) []string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}
