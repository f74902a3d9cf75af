// Package toast implements short-lived status notifications stacked in a
// corner of the screen.
package toast

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/nhle/mailboard/internal/theme"
)

// Kind selects a toast's color and icon.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Warning Kind = "warning"
	Info    Kind = "info"
)

const (
	// DefaultDuration is how long a toast stays visible.
	DefaultDuration = 5 * time.Second

	// MaxVisible is the number of toasts shown at once. Older ones are
	// dropped first.
	MaxVisible = 5
)

// Toast is one notification. A zero Duration keeps it until dismissed.
type Toast struct {
	ID       string
	Kind     Kind
	Title    string
	Message  string
	Duration time.Duration
}

// ExpiredMsg is delivered when a toast's duration elapses.
type ExpiredMsg struct {
	ID string
}

// ShowMsg asks the root model to display a toast. Views return it from a
// tea.Cmd instead of owning a Stack.
type ShowMsg struct {
	Kind     Kind
	Title    string
	Message  string
	Duration time.Duration
}

// Show returns a tea.Cmd emitting ShowMsg with the default duration.
func Show(kind Kind, message string) tea.Cmd {
	return func() tea.Msg {
		return ShowMsg{Kind: kind, Message: message, Duration: DefaultDuration}
	}
}

// Stack holds the visible toasts, oldest first.
type Stack struct {
	toasts []Toast
	width  int
}

// New creates an empty stack rendering toasts at most width cells wide.
func New(width int) Stack {
	return Stack{width: width}
}

// Push adds a toast and returns the command that expires it. A toast
// without a duration never expires.
func (s *Stack) Push(kind Kind, title, message string, d time.Duration) (Toast, tea.Cmd) {
	t := Toast{
		ID:       uuid.NewString(),
		Kind:     kind,
		Title:    title,
		Message:  message,
		Duration: d,
	}

	s.toasts = append(s.toasts, t)
	if over := len(s.toasts) - MaxVisible; over > 0 {
		s.toasts = s.toasts[over:]
	}

	if d <= 0 {
		return t, nil
	}
	id := t.ID
	return t, tea.Tick(d, func(time.Time) tea.Msg {
		return ExpiredMsg{ID: id}
	})
}

// Dismiss removes the toast with the given id. Unknown ids are ignored.
func (s *Stack) Dismiss(id string) {
	for i, t := range s.toasts {
		if t.ID == id {
			s.toasts = append(s.toasts[:i], s.toasts[i+1:]...)
			return
		}
	}
}

// DismissAll clears the stack.
func (s *Stack) DismissAll() {
	s.toasts = nil
}

// Toasts returns the visible toasts, oldest first.
func (s Stack) Toasts() []Toast {
	return s.toasts
}

// Len returns the number of visible toasts.
func (s Stack) Len() int {
	return len(s.toasts)
}

// SetWidth updates the maximum rendered width.
func (s *Stack) SetWidth(width int) {
	s.width = width
}

// Update handles ShowMsg and ExpiredMsg.
func (s Stack) Update(msg tea.Msg) (Stack, tea.Cmd) {
	switch msg := msg.(type) {
	case ShowMsg:
		_, cmd := s.Push(msg.Kind, msg.Title, msg.Message, msg.Duration)
		return s, cmd
	case ExpiredMsg:
		s.Dismiss(msg.ID)
	}
	return s, nil
}

// View renders the stack, newest at the bottom. It is empty when no toast
// is visible.
func (s Stack) View() string {
	if len(s.toasts) == 0 {
		return ""
	}

	width := s.width
	if width <= 0 || width > 60 {
		width = 60
	}

	rendered := make([]string, 0, len(s.toasts))
	for _, t := range s.toasts {
		text := icon(t.Kind) + " " + t.Message
		if t.Title != "" {
			text = icon(t.Kind) + " " + lipgloss.NewStyle().Bold(true).Render(t.Title) + "\n" + t.Message
		}
		rendered = append(rendered, theme.ToastStyle(string(t.Kind)).Width(width).Render(text))
	}

	return lipgloss.JoinVertical(lipgloss.Right, rendered...)
}

func icon(k Kind) string {
	switch k {
	case Success:
		return "✓"
	case Error:
		return "✗"
	case Warning:
		return "⚠"
	default:
		return "ℹ"
	}
}

// Summary joins visible messages on one line for narrow layouts.
func (s Stack) Summary() string {
	msgs := make([]string, 0, len(s.toasts))
	for _, t := range s.toasts {
		msgs = append(msgs, icon(t.Kind)+" "+t.Message)
	}
	return strings.Join(msgs, " | ")
}
