// package models defines the data model for the lyric and playlist repository
package models

import (
	"fmt"
	"slices"
	"strings"
)

// Lyric is a stored song text: a title and its parts (stanzas), each an ordered list of lines.
type Lyric struct {
	ID    ID         `json:"id" yaml:"id"`
	Title string     `json:"title" yaml:"title"`
	Parts [][]string `json:"parts" yaml:"parts"`
}

// LyricPost is the create/replace payload for a [Lyric].
type LyricPost struct {
	Title string     `json:"title" yaml:"title"`
	Parts [][]string `json:"parts" yaml:"parts"`
}

// Playlist is an ordered list of lyric IDs. Duplicates are allowed and members are not validated on insert.
type Playlist struct {
	ID      ID     `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	Members []ID   `json:"members" yaml:"members"`
}

// PlaylistPost is the create/replace payload for a [Playlist].
type PlaylistPost struct {
	Title   string `json:"title" yaml:"title"`
	Members []ID   `json:"members" yaml:"members"`
}

// Summary is the ID and title projection of a lyric or playlist.
type Summary struct {
	ID    ID     `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

// Snapshot holds every lyric and playlist of a store at a point in time.
type Snapshot struct {
	Lyrics    []Lyric    `json:"lyrics" yaml:"lyrics"`
	Playlists []Playlist `json:"playlists" yaml:"playlists"`
}

// NewLyric builds a [Lyric] with a fresh ID from post.
func NewLyric(post LyricPost) Lyric {
	return post.WithID(NewID())
}

// WithID builds a [Lyric] with the given ID. The parts are copied.
func (p LyricPost) WithID(id ID) Lyric {
	return Lyric{ID: id, Title: p.Title, Parts: CloneParts(p.Parts)}
}

// Post strips the ID.
func (l Lyric) Post() LyricPost {
	return LyricPost{Title: l.Title, Parts: CloneParts(l.Parts)}
}

// Summary projects the lyric to its ID and title.
func (l Lyric) Summary() Summary {
	return Summary{ID: l.ID, Title: l.Title}
}

// Clone returns a deep copy.
func (l Lyric) Clone() Lyric {
	l.Parts = CloneParts(l.Parts)
	return l
}

func (l Lyric) String() string {
	return fmt.Sprintf("Lyric: %s, %d parts, id = %s", l.Title, len(l.Parts), l.ID)
}

// NewPlaylist builds a [Playlist] with a fresh ID from post.
func NewPlaylist(post PlaylistPost) Playlist {
	return post.WithID(NewID())
}

// WithID builds a [Playlist] with the given ID. The members are copied.
func (p PlaylistPost) WithID(id ID) Playlist {
	return Playlist{ID: id, Title: p.Title, Members: CloneMembers(p.Members)}
}

// Post strips the ID.
func (p Playlist) Post() PlaylistPost {
	return PlaylistPost{Title: p.Title, Members: CloneMembers(p.Members)}
}

// Summary projects the playlist to its ID and title.
func (p Playlist) Summary() Summary {
	return Summary{ID: p.ID, Title: p.Title}
}

// Clone returns a deep copy.
func (p Playlist) Clone() Playlist {
	p.Members = CloneMembers(p.Members)
	return p
}

// Contains reports whether id is a member.
func (p Playlist) Contains(id ID) bool {
	return slices.Contains(p.Members, id)
}

// Contains reports whether id is a member.
func (p PlaylistPost) Contains(id ID) bool {
	return slices.Contains(p.Members, id)
}

func (p Playlist) String() string {
	lines := make([]string, 0, len(p.Members)+1)
	lines = append(lines, fmt.Sprintf("Playlist: %s, id = %s", p.Title, p.ID))
	for _, m := range p.Members {
		lines = append(lines, "  - "+m.String())
	}
	return strings.Join(lines, "\n")
}

func (s Summary) String() string {
	return fmt.Sprintf("%s: %s", s.ID, s.Title)
}

// CloneParts deep-copies a stanza list. The result is never nil.
func CloneParts(parts [][]string) [][]string {
	out := make([][]string, len(parts))
	for i, part := range parts {
		out[i] = append([]string{}, part...)
	}
	return out
}

// CloneMembers copies a member list. The result is never nil.
func CloneMembers(members []ID) []ID {
	return append([]ID{}, members...)
}

// Without returns a new slice holding every member of ids except id, preserving order.
func Without(ids []ID, id ID) []ID {
	out := make([]ID, 0, len(ids))
	for _, m := range ids {
		if m != id {
			out = append(out, m)
		}
	}
	return out
}

func byTitle(aTitle, bTitle string, aID, bID ID) int {
	if c := strings.Compare(aTitle, bTitle); c != 0 {
		return c
	}
	return aID.Compare(bID)
}

// SortLyrics sorts by title ascending; equal titles fall back to ID order.
func SortLyrics(lyrics []Lyric) {
	slices.SortStableFunc(lyrics, func(a, b Lyric) int { return byTitle(a.Title, b.Title, a.ID, b.ID) })
}

// SortPlaylists sorts by title ascending; equal titles fall back to ID order.
func SortPlaylists(playlists []Playlist) {
	slices.SortStableFunc(playlists, func(a, b Playlist) int { return byTitle(a.Title, b.Title, a.ID, b.ID) })
}

// SortSummaries sorts by title ascending; equal titles fall back to ID order.
func SortSummaries(summaries []Summary) {
	slices.SortStableFunc(summaries, func(a, b Summary) int { return byTitle(a.Title, b.Title, a.ID, b.ID) })
}

// LyricSummaries projects lyrics to summaries, keeping their order.
func LyricSummaries(lyrics []Lyric) []Summary {
	out := make([]Summary, len(lyrics))
	for i, l := range lyrics {
		out[i] = l.Summary()
	}
	return out
}

// PlaylistSummaries projects playlists to summaries, keeping their order.
func PlaylistSummaries(playlists []Playlist) []Summary {
	out := make([]Summary, len(playlists))
	for i, p := range playlists {
		out[i] = p.Summary()
	}
	return out
}

// Sorted returns a copy of the snapshot with both collections sorted by title.
func (s Snapshot) Sorted() Snapshot {
	out := Snapshot{
		Lyrics:    make([]Lyric, len(s.Lyrics)),
		Playlists: make([]Playlist, len(s.Playlists)),
	}
	for i, l := range s.Lyrics {
		out.Lyrics[i] = l.Clone()
	}
	for i, p := range s.Playlists {
		out.Playlists[i] = p.Clone()
	}
	SortLyrics(out.Lyrics)
	SortPlaylists(out.Playlists)
	return out
}
