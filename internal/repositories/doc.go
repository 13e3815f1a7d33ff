// Package repositories implements [models.Repository] over three backends.
//
// Key Implementations:
//   - [MemoryRepository] : one map shared by lyrics and playlists behind a single RWMutex, poisoned by a panicking write
//   - [SnapshotRepository] : a memory repository loaded from and saved back to a YAML or zip snapshot
//   - [FileRepository] : one "<id>.txt" file per lyric and one "<id>.yaml" file per playlist in a directory
//   - [SQLiteRepository] : lyrics, playlists and ordered playlist members in SQLite tables
//
// Every backend keeps lyric and playlist IDs in one keyspace and removes a deleted lyric from every playlist
// before the delete is visible to readers.
//
// [Open] picks a backend from configuration; [OpenLocation] picks one from a path.
// [Dump], [Restore] and [Copy] move whole stores between backends.
package repositories
