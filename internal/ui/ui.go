// Package ui is the interactive console: a tabbed bubbletea program over the
// same state the CLI commands use.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/keel-hq/keelctl/internal/config"
	keel "github.com/keel-hq/keelctl/internal/model"
	"github.com/keel-hq/keelctl/internal/store"
	"github.com/keel-hq/keelctl/internal/theme"
	"github.com/keel-hq/keelctl/internal/transport"
	"go.uber.org/zap"
)

type Options struct {
	State  *store.State
	API    transport.Adapter
	Styles *theme.Styles
	// RefreshInterval re-fetches the dashboard collections. Zero disables it.
	RefreshInterval time.Duration
	Voter           string
	Server          string
	// Config is watched for theme changes when set.
	Config *config.Manager
	// SaveTheme persists a theme picked in the console.
	SaveTheme func(primary string) error
	Logger    *zap.Logger
}

type tab int

const (
	tabDashboard tab = iota
	tabResources
	tabApprovals
	tabTracked
	tabAudit
)

var tabNames = []string{"Dashboard", "Resources", "Approvals", "Tracked images", "Audit"}

type model struct {
	ctx    context.Context
	opts   Options
	state  *store.State
	styles *theme.Styles
	log    *zap.Logger

	tab         tab
	selected    int
	filtering   bool
	filterInput textinput.Model

	prompting   bool
	promptInput textinput.Model
	promptLabel string
	onSubmit    func(string) tea.Cmd

	spinner spinner.Model
	// inflight is shared by every copy of the model so requests started
	// from Init are counted too.
	inflight *int
	status   string
	failed   bool

	audit  keel.AuditQuery
	width  int
	height int
}

// job is an action plus the store error to inspect once it commits.
type job struct {
	action store.Action
	errOf  func() error
	done   string
}

type actionDoneMsg struct {
	job    job
	commit store.Commit
	then   []job
}

type tickMsg time.Time

type configChangedMsg struct{ cfg *config.Config }

type configErrMsg struct{ err error }

func Run(ctx context.Context, opts Options) error {
	m := initialModel(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if opts.Config != nil {
		opts.Config.Watch(ctx,
			func(cfg *config.Config) { p.Send(configChangedMsg{cfg: cfg}) },
			func(err error) { p.Send(configErrMsg{err: err}) },
		)
	}
	_, err := p.Run()
	return err
}

func initialModel(ctx context.Context, opts Options) model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.State == nil {
		opts.State = store.New(store.Options{Logger: opts.Logger})
	}
	if opts.Styles == nil {
		opts.Styles, _ = theme.NewStyles(theme.Default, true)
	}
	fi := textinput.New()
	fi.Placeholder = "filter rows"
	fi.CharLimit = 128
	fi.Width = 40

	pi := textinput.New()
	pi.CharLimit = 256
	pi.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return model{
		ctx:         ctx,
		opts:        opts,
		state:       opts.State,
		styles:      opts.Styles,
		log:         opts.Logger.Named("ui"),
		filterInput: fi,
		promptInput: pi,
		spinner:     sp,
		inflight:    new(int),
		audit:       keel.AuditQuery{Limit: keel.DefaultPagination.Limit},
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.scheduleTick()}
	if m.state.User.Phase() == store.PhaseAuthenticated {
		cmds = append(cmds, m.dispatch(job{action: m.state.User.GetInfo(), errOf: m.state.User.Err}))
	}
	cmds = append(cmds, m.refresh())
	return tea.Batch(cmds...)
}

func (m model) scheduleTick() tea.Cmd {
	if m.opts.RefreshInterval <= 0 {
		return nil
	}
	return tea.Tick(m.opts.RefreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// dispatch runs Prepare now and the request on a tea.Cmd goroutine. The
// commit comes back as an actionDoneMsg so state only changes inside Update.
func (m *model) dispatch(j job, then ...job) tea.Cmd {
	a := j.action
	if a.Prepare != nil {
		a.Prepare()
	}
	if a.Request == nil {
		return nil
	}
	*m.inflight++
	ctx, api := m.ctx, m.opts.API
	return func() tea.Msg {
		return actionDoneMsg{job: j, commit: a.Request(ctx, api), then: then}
	}
}

func (m *model) refresh() tea.Cmd {
	s := m.state
	cmds := []tea.Cmd{
		m.dispatch(job{action: s.Resources.GetResources(), errOf: s.Resources.Err}),
		m.dispatch(job{action: s.Tracked.GetTrackedImages(), errOf: s.Tracked.Err}),
		m.dispatch(job{action: s.Approvals.GetApprovals(), errOf: s.Approvals.Err}),
		m.dispatch(job{action: s.Stats.GetStats(), errOf: s.Stats.Err}),
	}
	if m.tab == tabAudit {
		cmds = append(cmds, m.fetchAudit())
	}
	return tea.Batch(cmds...)
}

func (m *model) fetchAudit() tea.Cmd {
	return m.dispatch(job{action: m.state.Audit.GetAuditLogs(m.audit), errOf: m.state.Audit.Err})
}

func (m *model) setStatus(msg string, failed bool) {
	m.status = msg
	m.failed = failed
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tickMsg:
		if m.busy() || m.prompting {
			return m, m.scheduleTick()
		}
		return m, tea.Batch(m.refresh(), m.scheduleTick())
	case actionDoneMsg:
		return m.complete(msg)
	case configChangedMsg:
		if err := m.styles.ApplyTheme(msg.cfg.TUI.Theme); err != nil {
			m.setStatus("theme: "+err.Error(), true)
			return m, nil
		}
		m.opts.Voter = msg.cfg.Approvals.Voter
		m.setStatus("configuration reloaded", false)
		return m, nil
	case statusMsg:
		m.setStatus(msg.text, msg.failed)
		return m, nil
	case configErrMsg:
		m.setStatus("configuration: "+msg.err.Error(), true)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) complete(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	*m.inflight = max(0, *m.inflight-1)
	if msg.commit != nil {
		msg.commit()
	}
	if msg.job.errOf != nil {
		if err := msg.job.errOf(); err != nil {
			m.log.Warn("action failed", zap.String("action", msg.job.action.Name), zap.Error(err))
			if transport.IsUnauthorized(err) {
				m.setStatus("session rejected by the server, run keelctl login", true)
			} else {
				m.setStatus(msg.job.action.Name+": "+err.Error(), true)
			}
			m.clampSelection()
			return m, nil
		}
	}
	if msg.job.done != "" {
		m.setStatus(msg.job.done, false)
	}
	m.clampSelection()
	cmds := make([]tea.Cmd, 0, len(msg.then))
	for _, j := range msg.then {
		cmds = append(cmds, m.dispatch(j))
	}
	return m, tea.Batch(cmds...)
}

func (m model) busy() bool { return *m.inflight > 0 }

func (m *model) clampSelection() {
	n := len(m.visibleRows())
	if m.selected >= n {
		m.selected = max(0, n-1)
	}
}
