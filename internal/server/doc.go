// Package server exposes a lyric and playlist repository over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns such as "GET /api/v1/lyric/{id}".
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// [ResourceHandler] is the one implementation: [NewLyricHandler] and [NewPlaylistHandler] bind it to the
// lyric and playlist halves of a [models.Repository].
//
// # Routes
//
//	GET    /api/v1/{kind}          summaries, or full records with ?full=true
//	POST   /api/v1/{kind}          create, 201 with Location
//	GET    /api/v1/{kind}/{id}     record with ETag; If-None-Match yields 304
//	PUT    /api/v1/{kind}/{id}     replace, 200
//	DELETE /api/v1/{kind}/{id}     204
//	GET    /healthz                "ok"
//
// where kind is "lyric" or "playlist". Errors are JSON objects with an "error" field; see [StatusFor] for codes.
//
// # Middleware
//
// [Recover], [Logging] and [RateLimit] are installed by [New] in that order.
package server
