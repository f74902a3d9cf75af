package pager

import (
	"slices"
	"strings"

	"github.com/emersion/go-message/mail"
)

// Column is a sortable inbox column.
type Column string

// Direction is a sort direction.
type Direction string

const (
	ColumnFrom    Column = "from"
	ColumnSubject Column = "subject"
	ColumnDate    Column = "date"

	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// SortMessages returns a copy of msgs ordered by column. It only reorders
// the messages it is given and never refetches.
func SortMessages(msgs []Message, column Column, dir Direction) []Message {
	sorted := slices.Clone(msgs)

	var cmp func(a, b Message) int
	switch column {
	case ColumnFrom:
		cmp = func(a, b Message) int {
			return strings.Compare(
				strings.ToLower(SenderName(a.From)),
				strings.ToLower(SenderName(b.From)),
			)
		}
	case ColumnSubject:
		cmp = func(a, b Message) int {
			return strings.Compare(strings.ToLower(a.Subject), strings.ToLower(b.Subject))
		}
	default:
		cmp = func(a, b Message) int {
			return a.Date.Compare(b.Date.Time)
		}
	}

	if dir == Descending {
		asc := cmp
		cmp = func(a, b Message) int { return asc(b, a) }
	}

	slices.SortStableFunc(sorted, cmp)
	return sorted
}

// SenderName returns the display name of a From header. Without a name it
// falls back to the local part of the address.
func SenderName(from string) string {
	from = strings.TrimSpace(from)
	if from == "" {
		return "Unknown"
	}
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return from
	}
	if addr.Name != "" {
		return addr.Name
	}
	local, _, _ := strings.Cut(addr.Address, "@")
	return local
}

// SenderAddress returns the address part of a From header, lower-cased.
func SenderAddress(from string) string {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(from))
	}
	return strings.ToLower(addr.Address)
}
