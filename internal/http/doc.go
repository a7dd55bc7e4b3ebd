// Package http provides the HTTP and websocket surface of the game server.
//
// The router exposes the following endpoints:
//   - POST /rooms: ensures a room exists. Body: {"id","required_count"}.
//   - GET /rooms: lobby listing with member counts and lifecycle states.
//   - GET /rooms/:id/state: the room's current evaluation (state, have/want,
//     remaining seconds, block reason).
//   - POST /rooms/:id/join: joins a participant. Body: {"participant_id",
//     "display_name","required_count"}; a missing participant_id is generated
//     server-side and returned.
//   - GET /rooms/:id/messages, POST /rooms/:id/messages: paged history
//     (limit + before, RFC 3339) and message submission.
//   - POST /rooms/:id/clear: moderation reset, authorized by the configured
//     clear code.
//   - GET /rooms/:id/qr: a PNG QR code linking to the room's join page.
//   - GET /rooms/:id/ws: the live connection; carries chat, typing and vote
//     frames upstream and fan-out events downstream.
//   - POST /profiles, GET /profiles/:id, POST /profiles/:id/samples: player
//     profile intake and style-sample collection.
//   - POST /rooms/:id/doppelganger: one AI pipeline invocation for a profile
//     against the room's transcript.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
