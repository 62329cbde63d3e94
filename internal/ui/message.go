package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songbook/internal/similarity"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgCandidatesFetched MsgKind = iota
	MsgEntryDeleted
	MsgPairDismissed
)

type candidatesFetched struct {
	candidates []similarity.Candidate
	err        error
}

type entryDeleted struct {
	id  string
	err error
}

type pairDismissed struct {
	a, b string
	err  error
}

// candidatesFetchedMsg is the constructor for [MsgCandidatesFetched]
func candidatesFetchedMsg(candidates []similarity.Candidate, err error) Msg {
	return Msg{kind: MsgCandidatesFetched, data: candidatesFetched{candidates, err}}
}

// entryDeletedMsg is the constructor for [MsgEntryDeleted]
func entryDeletedMsg(id string, err error) Msg {
	return Msg{kind: MsgEntryDeleted, data: entryDeleted{id, err}}
}

// pairDismissedMsg is the constructor for [MsgPairDismissed]
func pairDismissedMsg(a, b string, err error) Msg {
	return Msg{kind: MsgPairDismissed, data: pairDismissed{a, b, err}}
}
