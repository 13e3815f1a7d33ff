package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lipl/internal/models"
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
	MsgSummariesFetched MsgKind = iota
	MsgPlaylistFetched
	MsgLyricFetched
	MsgDeleted
)

type summariesFetched struct {
	lyrics    []models.Summary
	playlists []models.Summary
	err       error
}

type playlistFetched struct {
	playlist models.Playlist
	members  []member
	err      error
}

type lyricFetched struct {
	lyric models.Lyric
	err   error
}

type deleted struct {
	target models.Summary
	err    error
}

// summariesFetchedMsg is the constructor for [MsgSummariesFetched]
func summariesFetchedMsg(lyrics, playlists []models.Summary, err error) Msg {
	return Msg{kind: MsgSummariesFetched, data: summariesFetched{lyrics, playlists, err}}
}

// playlistFetchedMsg is the constructor for [MsgPlaylistFetched]
func playlistFetchedMsg(playlist models.Playlist, members []member, err error) Msg {
	return Msg{kind: MsgPlaylistFetched, data: playlistFetched{playlist, members, err}}
}

// lyricFetchedMsg is the constructor for [MsgLyricFetched]
func lyricFetchedMsg(lyric models.Lyric, err error) Msg {
	return Msg{kind: MsgLyricFetched, data: lyricFetched{lyric, err}}
}

// deletedMsg is the constructor for [MsgDeleted]
func deletedMsg(target models.Summary, err error) Msg {
	return Msg{kind: MsgDeleted, data: deleted{target, err}}
}
