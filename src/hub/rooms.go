package hub

// AddToRoom adds a connection to a room, creating the room on first
// membership. Idempotent. Returns false when the connection is not
// registered, so a room can never hold an ID the registry has
// forgotten.
func (h *Hub) AddToRoom(room, id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[id]; !ok {
		return false
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]struct{})
	}
	h.rooms[room][id] = struct{}{}
	return true
}

// RemoveFromRoom drops a connection from a room. Idempotent; empty
// rooms are pruned.
func (h *Hub) RemoveFromRoom(room, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(h.rooms, room)
	}
}

// removeFromAllRoomsLocked strips a connection from every room.
// Caller holds h.mu.
func (h *Hub) removeFromAllRoomsLocked(id string) {
	for room, set := range h.rooms {
		delete(set, id)
		if len(set) == 0 {
			delete(h.rooms, room)
		}
	}
}

// MembersOf returns a snapshot of the connection IDs in a room. A
// room that was never created resolves to an empty slice, not an
// error.
func (h *Hub) MembersOf(room string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set, ok := h.rooms[room]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// RoomCounts returns room names with their member counts.
func (h *Hub) RoomCounts() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]int, len(h.rooms))
	for room, set := range h.rooms {
		out[room] = len(set)
	}
	return out
}
