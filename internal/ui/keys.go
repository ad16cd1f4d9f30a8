package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	keel "github.com/keel-hq/keelctl/internal/model"
	"github.com/keel-hq/keelctl/internal/theme"
)

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompting {
		switch msg.String() {
		case "esc":
			m.closePrompt()
			return m, nil
		case "enter":
			value := strings.TrimSpace(m.promptInput.Value())
			submit := m.onSubmit
			m.closePrompt()
			if submit == nil {
				return m, nil
			}
			return m, submit(value)
		default:
			var cmd tea.Cmd
			m.promptInput, cmd = m.promptInput.Update(msg)
			return m, cmd
		}
	}
	if m.filtering {
		switch msg.String() {
		case "esc", "enter":
			m.filtering = false
			m.filterInput.Blur()
			m.clampSelection()
			return m, nil
		default:
			var cmd tea.Cmd
			m.filterInput, cmd = m.filterInput.Update(msg)
			m.clampSelection()
			return m, cmd
		}
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab", "right", "l":
		return m.switchTab((m.tab + 1) % tab(len(tabNames)))
	case "shift+tab", "left", "h":
		return m.switchTab((m.tab + tab(len(tabNames)) - 1) % tab(len(tabNames)))
	case "1", "2", "3", "4", "5":
		n, _ := strconv.Atoi(msg.String())
		return m.switchTab(tab(n - 1))
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.visibleRows())-1 {
			m.selected++
		}
	case "/":
		if m.tab == tabDashboard {
			return m, nil
		}
		m.filtering = true
		m.filterInput.Focus()
		return m, textinput.Blink
	case "esc":
		m.filterInput.SetValue("")
		m.clampSelection()
	case "r":
		return m, m.refresh()
	case "T":
		m.cycleTheme()
	default:
		return m.handleTabKey(msg.String())
	}
	return m, nil
}

func (m model) switchTab(t tab) (tea.Model, tea.Cmd) {
	if t == m.tab {
		return m, nil
	}
	m.tab = t
	m.selected = 0
	m.filterInput.SetValue("")
	if t == tabAudit {
		return m, m.fetchAudit()
	}
	return m, nil
}

func (m model) handleTabKey(key string) (tea.Model, tea.Cmd) {
	r, ok := m.current()
	switch m.tab {
	case tabResources:
		if !ok {
			return m, nil
		}
		switch key {
		case "p":
			m.openPrompt("policy for "+r.id, func(v string) tea.Cmd { return m.setPolicy(r.id, v) })
			return m, textinput.Blink
		case "t":
			return m, m.toggleTrigger(r.id)
		case "a":
			m.openPrompt("required approvals for "+r.id, func(v string) tea.Cmd { return m.setApprovals(r.id, v) })
			return m, textinput.Blink
		}
	case tabApprovals:
		if !ok {
			return m, nil
		}
		actions := map[string]string{
			"a": keel.ApprovalActionApprove,
			"x": keel.ApprovalActionReject,
			"z": keel.ApprovalActionArchive,
			"D": keel.ApprovalActionDelete,
		}
		if action, found := actions[key]; found {
			return m, m.decide(r.id, action)
		}
	case tabAudit:
		page := m.state.Audit.Pagination()
		switch key {
		case "n":
			if m.audit.Offset+m.audit.Limit < page.Total {
				m.audit.Offset += m.audit.Limit
				m.selected = 0
				return m, m.fetchAudit()
			}
		case "p":
			if m.audit.Offset > 0 {
				m.audit.Offset = max(0, m.audit.Offset-m.audit.Limit)
				m.selected = 0
				return m, m.fetchAudit()
			}
		}
	}
	return m, nil
}

func (m *model) openPrompt(label string, submit func(string) tea.Cmd) {
	m.prompting = true
	m.promptLabel = label
	m.onSubmit = submit
	m.promptInput.SetValue("")
	m.promptInput.Focus()
}

func (m *model) closePrompt() {
	m.prompting = false
	m.promptLabel = ""
	m.onSubmit = nil
	m.promptInput.Blur()
}

// The submit closures below run inside Update, so they may touch state.

func (m model) setPolicy(identifier, policy string) tea.Cmd {
	if !keel.ValidPolicy(policy) {
		return statusCmd(fmt.Sprintf("invalid policy %q", policy))
	}
	s := m.state
	return m.dispatch(
		job{
			action: s.Resources.SetResourcePolicy(keel.PolicyUpdate{Identifier: identifier, Policy: policy}),
			errOf:  s.Resources.Err,
			done:   fmt.Sprintf("policy of %s set to %s", identifier, policy),
		},
		job{action: s.Resources.GetResources(), errOf: s.Resources.Err},
	)
}

func (m model) setApprovals(identifier, value string) tea.Cmd {
	votes, err := strconv.Atoi(value)
	if err != nil {
		return statusCmd(fmt.Sprintf("approvals must be a number: %q", value))
	}
	s := m.state
	return m.dispatch(
		job{
			action: s.Approvals.SetApproval(keel.ApprovalRequirement{Identifier: identifier, VotesRequired: votes}),
			errOf:  s.Approvals.Err,
			done:   fmt.Sprintf("%s now requires %d approval(s)", identifier, votes),
		},
		job{action: s.Resources.GetResources(), errOf: s.Resources.Err},
	)
}

func (m *model) toggleTrigger(identifier string) tea.Cmd {
	s := m.state
	trigger := keel.TriggerPoll
	for _, r := range s.Resources.Items() {
		if r.Identifier == identifier && r.TriggerPoll {
			trigger = keel.TriggerDefault
		}
	}
	return m.dispatch(
		job{
			action: s.Tracked.SetTracking(keel.TrackingUpdate{Identifier: identifier, Trigger: trigger}),
			errOf:  s.Tracked.Err,
			done:   fmt.Sprintf("%s now uses the %s trigger", identifier, trigger),
		},
		job{action: s.Resources.GetResources(), errOf: s.Resources.Err},
		job{action: s.Tracked.GetTrackedImages(), errOf: s.Tracked.Err},
	)
}

func (m *model) decide(identifier, action string) tea.Cmd {
	s := m.state
	voter := m.opts.Voter
	if voter == "" {
		voter = s.User.Credentials().Username
	}
	return m.dispatch(
		job{
			action: s.Approvals.UpdateApproval(keel.ApprovalDecision{Identifier: identifier, Action: action, Voter: voter}),
			errOf:  s.Approvals.Err,
			done:   fmt.Sprintf("%s: %s", action, identifier),
		},
		job{action: s.Approvals.GetApprovals(), errOf: s.Approvals.Err},
	)
}

// cycleTheme moves to the next palette colour and persists it.
func (m *model) cycleTheme() {
	next := theme.Palette[0]
	for i, c := range theme.Palette {
		if c.Hex == m.styles.Primary {
			next = theme.Palette[(i+1)%len(theme.Palette)]
		}
	}
	if err := m.styles.ApplyTheme(next.Key); err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.setStatus("theme: "+next.Key, false)
	if m.opts.SaveTheme != nil {
		if err := m.opts.SaveTheme(next.Key); err != nil {
			m.setStatus("save theme: "+err.Error(), true)
		}
	}
}

type statusMsg struct {
	text   string
	failed bool
}

func statusCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, failed: true} }
}
