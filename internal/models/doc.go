// Package models defines the lyric and playlist entities and the repository contract every storage backend implements.
//
// The package contains three categories of types:
//
// 1. Identifiers: [ID] is an opaque, totally ordered key shared by lyrics and playlists.
// Its canonical text form is base58 (see [ID.String] and [ParseID]).
//
// 2. Records and payloads:
//   - [Lyric] : title plus parts (stanzas of lines)
//   - [Playlist] : title plus an ordered member list of lyric IDs
//   - [LyricPost], [PlaylistPost] : create/replace payloads without an ID
//   - [Summary] : ID and title projection for list views
//   - [Snapshot] : the full store, used for persistence round-trips
//
// 3. The [Repository] contract. Lyrics and playlists share one keyspace, so an ID is unique across both kinds.
// Deleting a lyric removes it from every playlist (the cascade). Failures are reported as [RepoError] values
// that match the sentinels in the shared package with [errors.Is].
package models
