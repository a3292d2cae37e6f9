package scrollmarks

import "sort"

// checkMarks compares the current scroll position with the one seen by the
// previous scan and dispatches every mark whose trigger point lies between
// the two.
func (s *ScrollMarks) checkMarks() {
	current := s.host.Layout.ScrollY()
	previous := s.previousScroll
	switch {
	case current > previous:
		s.direction = Down
	case current < previous:
		s.direction = Up
	}

	var queue []*Mark
	for _, m := range s.registry.ordered() {
		if !m.direction.accepts(s.direction) || !s.host.Layout.IsRendered(m.element) {
			continue
		}
		if crossed(previous, current, m.triggerPoint) {
			queue = append(queue, m)
		}
	}
	s.previousScroll = current
	s.metrics.checked()

	s.triggerQueue(queue, s.direction)
}

// crossed reports whether point lies in the half-open interval between
// previous and current: (previous, current] scrolling down and
// (current, previous] scrolling up.
func crossed(previous, current, point float64) bool {
	return (previous < point) == (point <= current)
}

// triggerQueue fires marks in the order the page passes them: ascending
// trigger points going down, descending going up.
func (s *ScrollMarks) triggerQueue(queue []*Mark, dir Direction) {
	sort.SliceStable(queue, func(i, j int) bool {
		if dir == Up {
			return queue[i].triggerPoint > queue[j].triggerPoint
		}
		return queue[i].triggerPoint < queue[j].triggerPoint
	})
	for _, m := range queue {
		// skip marks removed by an earlier callback
		if live, ok := s.registry.get(m.key); !ok || live != m {
			continue
		}
		s.trigger(m, dir)
	}
}

func (s *ScrollMarks) trigger(m *Mark, dir Direction) {
	s.metrics.dispatched(dir)
	if s.observe != nil {
		s.observe(dir, m)
	}
	m.callback(dir, m)
	if m.once {
		s.Remove(m.key)
	}
}
