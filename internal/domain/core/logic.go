package core

// WouldCreateManagerCycle walks the manager chain upward from the proposed
// manager. Assigning managerID to userID is a cycle when the walk reaches
// userID again. managerOf maps user id to current manager id; users without
// a manager are absent from the map.
func WouldCreateManagerCycle(userID, managerID string, managerOf map[string]string) bool {
	if managerID == "" {
		return false
	}
	if managerID == userID {
		return true
	}
	seen := map[string]bool{}
	current := managerID
	for current != "" {
		if current == userID {
			return true
		}
		if seen[current] {
			// pre-existing cycle elsewhere in the chain; assigning into it
			// would still strand userID
			return true
		}
		seen[current] = true
		current = managerOf[current]
	}
	return false
}
