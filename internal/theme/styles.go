package theme

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles derived from one primary colour.
type Styles struct {
	Primary string
	Colors  bool

	Title    lipgloss.Style
	Tab      lipgloss.Style
	TabOn    lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Bar      lipgloss.Style
	Box      lipgloss.Style
}

var _ Applier = (*Styles)(nil)

// NewStyles builds styles for primary. With colors off every style renders
// plain text apart from bold and reverse.
func NewStyles(primary string, colors bool) (*Styles, error) {
	s := &Styles{Colors: colors}
	if err := s.ApplyTheme(primary); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Styles) ApplyTheme(primary string) error {
	hex, err := Resolve(primary)
	if err != nil {
		return err
	}
	s.Primary = hex
	base := lipgloss.NewStyle()
	s.Title = base.Bold(true)
	s.Tab = base.Padding(0, 1)
	s.TabOn = base.Padding(0, 1).Bold(true).Reverse(true)
	s.Selected = base.Bold(true)
	s.Muted = base.Faint(true)
	s.Error = base.Bold(true)
	s.Success = base
	s.Warning = base
	s.Bar = base
	s.Box = base.Border(lipgloss.RoundedBorder()).Padding(0, 1)
	if !s.Colors {
		return nil
	}
	c := lipgloss.Color(hex)
	s.Title = s.Title.Foreground(c)
	s.TabOn = base.Padding(0, 1).Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(c)
	s.Selected = s.Selected.Foreground(c)
	s.Error = s.Error.Foreground(lipgloss.Color("#F5222D"))
	s.Success = s.Success.Foreground(lipgloss.Color("#52C41A"))
	s.Warning = s.Warning.Foreground(lipgloss.Color("#FAAD14"))
	s.Bar = s.Bar.Foreground(c)
	s.Box = s.Box.BorderForeground(c)
	return nil
}
