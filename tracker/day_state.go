package tracker

// dayState holds one user's step accounting for the current calendar date.
// Sensor readings are cumulative counters since device boot, so the day total
// is (raw - baseline) + carried, where baseline is the counter value that
// marks the start of today's session and carried is whatever was already
// persisted for today before the baseline was captured.
//
// dayState is mutated from exactly one goroutine per user; it has no locking.
type dayState struct {
	date     string
	baseline int
	carried  int
	lastRaw  int
	total    int
}

// initialize seeds the state from the first reading of a session, resuming
// from steps already persisted for the date.
func (s *dayState) initialize(raw int, date string, persisted int) {
	s.date = date
	s.baseline = raw
	s.carried = persisted
	s.lastRaw = raw
	s.total = persisted
}

// apply folds a raw counter reading into the state and returns the updated
// total for the reading's date.
func (s *dayState) apply(raw int, date string) int {
	switch {
	case date != s.date:
		// New day. Yesterday's total is already persisted; today starts at
		// zero with the current counter as baseline.
		s.date = date
		s.baseline = raw
		s.carried = 0
	case raw < s.lastRaw:
		// Sensor reboot: the counter restarted. Keep what the day already
		// accumulated and count everything since boot toward today.
		s.carried = s.total
		s.baseline = 0
	}
	s.lastRaw = raw
	s.total = raw - s.baseline + s.carried
	if s.total < 0 {
		s.total = 0
	}
	return s.total
}

// rollover forces the transition to a new date when no sensor reading
// crossed midnight. Reports whether a transition happened.
func (s *dayState) rollover(date string) bool {
	if s.date == "" || date == s.date {
		return false
	}
	s.date = date
	s.baseline = s.lastRaw
	s.carried = 0
	s.total = 0
	return true
}
