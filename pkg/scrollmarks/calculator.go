package scrollmarks

import "fmt"

// calculateTriggerPoint stores the document-relative position at which m
// fires: the element's top minus its offset.
func (s *ScrollMarks) calculateTriggerPoint(m *Mark) error {
	value, err := m.offset.Value(m.element)
	if err != nil {
		return fmt.Errorf("scrollmark %d: %w", m.key, err)
	}
	layout := s.host.Layout
	m.triggerPoint = layout.ScrollY() + layout.BoundingTop(m.element) - value

	if m.debug {
		if m.helper == nil {
			m.helper = s.newHelper(m)
		}
		m.helper.Update(m, value)
	}
	return nil
}

func (s *ScrollMarks) updateAllTriggerPoints() {
	n := 0
	for _, m := range s.registry.ordered() {
		if err := s.calculateTriggerPoint(m); err != nil {
			// keep the previous trigger point
			s.log.Error().Err(err).Int("key", m.key).Msg("recomputing trigger point")
			continue
		}
		n++
	}
	s.metrics.recomputed(n)
}
