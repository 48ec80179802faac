package domain

// RoomName is a client-chosen string key grouping connections for broadcast.
// A room is not a stored entity: it exists while it has at least one member.
// First joiner implicitly creates it; last leaver implicitly destroys it.
type RoomName string
