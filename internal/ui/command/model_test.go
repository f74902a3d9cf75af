package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Command
		wantErr string
	}{
		{input: "inbox", want: Command{Kind: KindView, Arg: "inbox"}},
		{input: "view Analytics", want: Command{Kind: KindView, Arg: "analytics"}},
		{input: "user 2", want: Command{Kind: KindUser, Arg: "2"}},
		{input: "theme dark", want: Command{Kind: KindTheme, Arg: "dark"}},
		{input: "  sidebar ", want: Command{Kind: KindSidebar}},
		{input: "refresh", want: Command{Kind: KindRefresh}},
		{input: "q", want: Command{Kind: KindQuit}},
		{input: "view settings", wantErr: `unknown view "settings"`},
		{input: "user", wantErr: "usage: user <id>"},
		{input: "theme blue", wantErr: "usage: theme light|dark|system"},
		{input: "launch", wantErr: `unknown command "launch"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func typeInto(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestModel_EnterEmitsCommand(t *testing.T) {
	m := typeInto(New(80, 20), "rules")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg{Command: Command{Kind: KindView, Arg: "rules"}}, cmd())
	assert.Empty(t, m.input.Value())
}

func TestModel_EnterReportsParseError(t *testing.T) {
	m := typeInto(New(80, 20), "bogus")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	msg, ok := cmd().(ErrorMsg)
	require.True(t, ok)
	assert.Equal(t, "bogus", msg.Input)
}

func TestModel_EmptyEnterIsNoop(t *testing.T) {
	_, cmd := New(80, 20).Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
}
