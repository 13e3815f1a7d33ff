// Package codec reads and writes lyric/playlist snapshots.
//
// Three formats are supported:
//   - YAML snapshot: a single document with "lyrics" and "playlists" sequences ([Load], [Save]).
//   - Per-record files: a lyric is a text file with YAML frontmatter holding the title,
//     followed by its parts separated by blank lines ([EncodeLyric], [DecodeLyric]);
//     a playlist is a YAML document with title and members ([EncodePlaylist], [DecodePlaylist]).
//     File names are the canonical ID plus [LyricExt] or [PlaylistExt].
//   - Zip archive: the per-record files packed into one archive ([WriteArchive], [ReadArchive]).
//
// [ReadFile] and [WriteFile] pick the format from the path's extension.
package codec
