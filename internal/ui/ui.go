package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ListView ViewState = iota
	MembersView
	LyricView
	ConfirmView
)

// Tab selects which collection [ListView] shows.
type Tab int

const (
	LyricsTab Tab = iota
	PlaylistsTab
)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	repo      models.Repository
	view      ViewState
	tab       Tab
	width     int
	height    int
	lyrics    list.Model
	playlists list.Model
	members   list.Model
	playlist  models.Playlist
	lyric     models.Lyric
	lyricFrom ViewState
	pending   *models.Summary
	status    string
	err       error
	help      help.Model
	keys      keyMap
}

var _ tea.Model = (*Model)(nil)

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

// NewModel creates a new TUI model browsing repo.
func NewModel(ctx context.Context, repo models.Repository) *Model {
	return &Model{
		ctx:       ctx,
		repo:      repo,
		view:      ListView,
		tab:       LyricsTab,
		lyrics:    newList("Lyrics"),
		playlists: newList("Playlists"),
		members:   newList("Playlist"),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init loads the lyric and playlist summaries.
func (m *Model) Init() tea.Cmd {
	return m.fetchSummaries()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.lyrics, &m.playlists, &m.members} {
			l.SetSize(msg.Width-4, msg.Height-6)
		}
		return m, nil

	case tea.KeyMsg:
		if m.err != nil {
			return m.handleErrorKeys(msg)
		}
		switch m.view {
		case ListView:
			return m.handleListKeys(msg)
		case MembersView:
			return m.handleMembersKeys(msg)
		case LyricView:
			return m.handleLyricKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSummariesFetched:
		data := msg.data.(summariesFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.lyrics.SetItems(summaryItems(data.lyrics))
		m.lyrics.Title = fmt.Sprintf("Lyrics (%d)", len(data.lyrics))
		m.playlists.SetItems(summaryItems(data.playlists))
		m.playlists.Title = fmt.Sprintf("Playlists (%d)", len(data.playlists))

	case MsgPlaylistFetched:
		data := msg.data.(playlistFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.playlist = data.playlist
		m.members.SetItems(memberItems(data.members))
		m.members.Title = fmt.Sprintf("Playlist: %s", data.playlist.Title)
		m.members.ResetSelected()
		m.view = MembersView

	case MsgLyricFetched:
		data := msg.data.(lyricFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.lyric = data.lyric
		m.lyricFrom = m.view
		m.view = LyricView

	case MsgDeleted:
		data := msg.data.(deleted)
		m.pending = nil
		m.view = ListView
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.status = fmt.Sprintf("Deleted %q", data.target.Title)
		return m, m.fetchSummaries()
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.Err(fmt.Sprintf("Error: %v", m.err)) + "\n\n" + styles.Help("esc to dismiss, q to quit")
	}

	switch m.view {
	case ListView:
		return m.renderList()
	case MembersView:
		return m.renderMembers()
	case LyricView:
		return m.renderLyric()
	case ConfirmView:
		return m.renderConfirm()
	default:
		return ""
	}
}

func (m *Model) activeList() *list.Model {
	if m.tab == PlaylistsTab {
		return &m.playlists
	}
	return &m.lyrics
}

func (m *Model) handleErrorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		if errors.Is(m.err, shared.ErrPoisoned) {
			return m, tea.Quit
		}
		m.err = nil
	}
	return m, nil
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	active := m.activeList()
	if active.FilterState() == list.Filtering {
		var cmd tea.Cmd
		*active, cmd = active.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.tab):
		if m.tab == LyricsTab {
			m.tab = PlaylistsTab
		} else {
			m.tab = LyricsTab
		}
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = ""
		return m, m.fetchSummaries()
	case key.Matches(msg, m.keys.enter):
		if item, ok := active.SelectedItem().(summaryItem); ok {
			if m.tab == PlaylistsTab {
				return m, m.fetchPlaylist(item.summary.ID)
			}
			return m, m.fetchLyric(item.summary.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.delete):
		if item, ok := active.SelectedItem().(summaryItem); ok {
			target := item.summary
			m.pending = &target
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	*active, cmd = active.Update(msg)
	return m, cmd
}

func (m *Model) handleMembersKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ListView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.members.SelectedItem().(memberItem); ok && item.member.found {
			return m, m.fetchLyric(item.member.id)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.members, cmd = m.members.Update(msg)
	return m, cmd
}

func (m *Model) handleLyricKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = m.lyricFrom
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		if m.pending == nil {
			m.view = ListView
			return m, nil
		}
		return m, m.deleteRecord(m.tab, *m.pending)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.pending = nil
		m.view = ListView
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ListView:
		active := m.activeList()
		*active, cmd = active.Update(msg)
	case MembersView:
		m.members, cmd = m.members.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchSummaries() tea.Cmd {
	return func() tea.Msg {
		lyrics, err := m.repo.ListLyricSummaries(m.ctx)
		if err != nil {
			return summariesFetchedMsg(nil, nil, err)
		}
		playlists, err := m.repo.ListPlaylistSummaries(m.ctx)
		return summariesFetchedMsg(lyrics, playlists, err)
	}
}

func (m *Model) fetchPlaylist(id models.ID) tea.Cmd {
	return func() tea.Msg {
		playlist, err := m.repo.GetPlaylist(m.ctx, id)
		if err != nil {
			return playlistFetchedMsg(models.Playlist{}, nil, err)
		}

		members := make([]member, len(playlist.Members))
		for i, lid := range playlist.Members {
			members[i] = member{position: i, id: lid}
			lyric, err := m.repo.GetLyric(m.ctx, lid)
			switch {
			case errors.Is(err, shared.ErrNotFound):
			case err != nil:
				return playlistFetchedMsg(models.Playlist{}, nil, err)
			default:
				members[i].title = lyric.Title
				members[i].found = true
			}
		}
		return playlistFetchedMsg(playlist, members, nil)
	}
}

func (m *Model) fetchLyric(id models.ID) tea.Cmd {
	return func() tea.Msg {
		lyric, err := m.repo.GetLyric(m.ctx, id)
		return lyricFetchedMsg(lyric, err)
	}
}

func (m *Model) deleteRecord(tab Tab, target models.Summary) tea.Cmd {
	return func() tea.Msg {
		var err error
		if tab == PlaylistsTab {
			err = m.repo.DeletePlaylist(m.ctx, target.ID)
		} else {
			err = m.repo.DeleteLyric(m.ctx, target.ID)
		}
		return deletedMsg(target, err)
	}
}

func (m *Model) renderList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.tab, m.keys.delete, m.keys.reload, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	status := ""
	if m.status != "" {
		status = styles.OK(m.status) + "\n"
	}
	return fmt.Sprintf("%s\n%s\n%s", m.activeList().View(), status, helpView)
}

func (m *Model) renderMembers() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.members.View(), helpView)
}

func (m *Model) renderLyric() string {
	var b strings.Builder
	b.WriteString(styles.Title(m.lyric.Title))
	b.WriteString("\n")

	if len(m.lyric.Parts) == 0 {
		b.WriteString(styles.Help("(no text)"))
		b.WriteString("\n")
	}
	for _, part := range m.lyric.Parts {
		b.WriteString(styles.part.Render(strings.Join(part, "\n")))
		b.WriteString("\n")
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderConfirm() string {
	if m.pending == nil {
		return ""
	}

	kind := "lyric"
	extra := "It will also be removed from every playlist."
	if m.tab == PlaylistsTab {
		kind = "playlist"
		extra = "Its lyrics are kept."
	}

	title := styles.Title(fmt.Sprintf("Delete %s %q?", kind, m.pending.Title))
	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s\n\n%s", title, styles.Warn(extra), m.help.ShortHelpView(helpKeys))
}
