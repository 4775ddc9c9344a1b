// Package domain contains core concepts of the chat system.
// This file defines room identifier rules. Rooms have no persisted record:
// a room exists implicitly as soon as one connection joins it, and its
// membership is derived from connection state.
package domain

import "strings"

// roomKeySeparator is reserved by the storage layer, which builds badger
// keys of the form "msg:<room>:<timestamp>:<id>". A room identifier that
// contained it would bleed into the prefix scans of sibling rooms.
const roomKeySeparator = ":"

// ValidRoom reports whether s is usable as a room identifier: non-empty
// after trimming and free of the storage key separator.
func ValidRoom(s string) bool {
	trimmed := strings.TrimSpace(s)
	return trimmed != "" && !strings.Contains(trimmed, roomKeySeparator)
}
