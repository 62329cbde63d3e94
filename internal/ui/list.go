package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/songbook/internal/similarity"
)

var _ list.Item = candidateItem{}

// candidateItem wraps [similarity.Candidate] to implement [list.Item].
type candidateItem struct {
	candidate similarity.Candidate
}

func (i candidateItem) FilterValue() string {
	return i.candidate.A.Title + " " + i.candidate.B.Title + " " + i.candidate.A.Artist + " " + i.candidate.B.Artist
}

func (i candidateItem) Title() string {
	return fmt.Sprintf("%s - %s  ⇄  %s - %s", i.candidate.A.Artist, i.candidate.A.Title, i.candidate.B.Artist, i.candidate.B.Title)
}

func (i candidateItem) Description() string {
	return fmt.Sprintf("%.2f%% similar • %s / %s", i.candidate.Percent(), i.candidate.A.ID(), i.candidate.B.ID())
}
