package quarantine

// Honeypots is the set of decoy channels. Nobody legitimate posts in
// them, so any message there is an immediate spam signal with no need
// for similarity scoring.
type Honeypots map[string]struct{}

func NewHoneypots(channelIDs []string) Honeypots {
	set := make(Honeypots, len(channelIDs))
	for _, id := range channelIDs {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

func (h Honeypots) Contains(channelID string) bool {
	_, ok := h[channelID]
	return ok
}
