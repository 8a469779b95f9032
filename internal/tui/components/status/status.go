package status

import (
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/billie-coop/pickpack/internal/tui/styles"
)

// MessageType represents the type of status message
type MessageType int

const (
	Info MessageType = iota
	Warning
	Error
	Success
)

// StatusMessage represents a status bar message
type StatusMessage struct {
	Content   string
	Type      MessageType
	Timestamp time.Time
}

// Component is a one-line status bar: the current job on the left and a
// transient message on the right.
type Component struct {
	message     *StatusMessage
	width       int
	leftContent string

	clearAfter time.Duration
}

// New creates a new status bar component
func New() *Component {
	return &Component{
		clearAfter: 5 * time.Second,
	}
}

// SetMessage sets a status message with the given type
func (c *Component) SetMessage(content string, msgType MessageType) tea.Cmd {
	stamp := time.Now()
	c.message = &StatusMessage{
		Content:   content,
		Type:      msgType,
		Timestamp: stamp,
	}
	return tea.Tick(c.clearAfter, func(time.Time) tea.Msg {
		return clearMessageMsg{timestamp: stamp}
	})
}

// ShowInfo shows an info message
func (c *Component) ShowInfo(message string) tea.Cmd {
	return c.SetMessage(message, Info)
}

// ShowWarning shows a warning message
func (c *Component) ShowWarning(message string) tea.Cmd {
	return c.SetMessage(message, Warning)
}

// ShowError shows an error message
func (c *Component) ShowError(message string) tea.Cmd {
	return c.SetMessage(message, Error)
}

// ShowSuccess shows a success message
func (c *Component) ShowSuccess(message string) tea.Cmd {
	return c.SetMessage(message, Success)
}

// SetLeftContent sets the left side, normally "<n>/<total> — <name>".
func (c *Component) SetLeftContent(content string) {
	c.leftContent = content
}

// LeftContent returns the left side text.
func (c *Component) LeftContent() string { return c.leftContent }

// Message returns the visible message, if any.
func (c *Component) Message() *StatusMessage { return c.message }

// SetSize implements the Sizeable interface
func (c *Component) SetSize(width, height int) tea.Cmd {
	c.width = width
	return nil
}

// clearMessageMsg is sent when a status message should be cleared
type clearMessageMsg struct {
	timestamp time.Time
}

// Init implements the Component interface
func (c *Component) Init() tea.Cmd {
	return nil
}

// Update implements the Component interface
func (c *Component) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case clearMessageMsg:
		// Only clear if this is for the current message
		if c.message != nil && msg.timestamp.Equal(c.message.Timestamp) {
			c.message = nil
		}
	}
	return c, nil
}

// View implements the Component interface
func (c *Component) View() string {
	if c.width == 0 {
		return ""
	}

	s := styles.CurrentTheme().S()
	available := c.width - 2 // padding

	left := c.leftContent
	right := c.formatMessage()

	rightWidth := lipgloss.Width(right)
	if rightWidth > available/2 && lipgloss.Width(left) > 0 {
		right = truncate(right, available/2)
		rightWidth = lipgloss.Width(right)
	}
	left = truncate(left, max(0, available-rightWidth-1))

	gap := available - lipgloss.Width(left) - rightWidth
	content := left
	if right != "" {
		content += lipgloss.NewStyle().Width(max(1, gap)).Render("") + right
	}

	return s.StatusBar.Width(c.width).MaxHeight(1).Render(content)
}

// formatMessage formats the status message with appropriate styling
func (c *Component) formatMessage() string {
	if c.message == nil {
		return ""
	}
	s := styles.CurrentTheme().S()

	switch c.message.Type {
	case Success:
		return s.Success.Render(styles.SuccessIcon + " " + c.message.Content)
	case Warning:
		return s.Warning.Render(styles.WarningIcon + " " + c.message.Content)
	case Error:
		return s.Error.Render(styles.ErrorIcon + " " + c.message.Content)
	default:
		return s.Info.Render(c.message.Content)
	}
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 1 {
		return ""
	}
	return lipgloss.NewStyle().MaxWidth(width-1).Render(s) + "…"
}
