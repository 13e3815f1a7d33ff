package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/lipl/internal/models"
)

var (
	_ list.Item = summaryItem{}
	_ list.Item = memberItem{}
)

// summaryItem wraps [models.Summary] to implement [list.Item].
type summaryItem struct {
	summary models.Summary
}

func (i summaryItem) FilterValue() string { return i.summary.Title }
func (i summaryItem) Title() string       { return i.summary.Title }
func (i summaryItem) Description() string { return i.summary.ID.String() }

// member is one resolved playlist entry. A member whose lyric no longer exists has found == false.
type member struct {
	position int
	id       models.ID
	title    string
	found    bool
}

// memberItem wraps a playlist [member] to implement [list.Item].
type memberItem struct {
	member member
}

func (i memberItem) FilterValue() string { return i.member.title }
func (i memberItem) Title() string {
	if !i.member.found {
		return fmt.Sprintf("%d. (missing lyric)", i.member.position+1)
	}
	return fmt.Sprintf("%d. %s", i.member.position+1, i.member.title)
}
func (i memberItem) Description() string { return i.member.id.String() }

func summaryItems(summaries []models.Summary) []list.Item {
	items := make([]list.Item, len(summaries))
	for i, s := range summaries {
		items[i] = summaryItem{summary: s}
	}
	return items
}

func memberItems(members []member) []list.Item {
	items := make([]list.Item, len(members))
	for i, m := range members {
		items[i] = memberItem{member: m}
	}
	return items
}
