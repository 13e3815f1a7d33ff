// Package ui implements an interactive terminal browser for a lyric and playlist repository using bubbletea's Elm architecture.
//
// The TUI has four views:
//  1. [ListView] : Lyric or playlist summaries, switched with tab
//  2. [MembersView] : The lyrics of one playlist in order; members whose lyric was deleted show as missing
//  3. [LyricView] : The parts of one lyric
//  4. [ConfirmView] : Confirm deleting the selected lyric or playlist
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving repository results via the [Msg] union type.
// Repository calls run inside [tea.Cmd] functions so the update loop never blocks on storage.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, tab, d, y/n, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
