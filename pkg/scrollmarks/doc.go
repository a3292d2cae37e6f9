// Package scrollmarks fires callbacks when the scroll position of a
// document crosses points tied to elements.
//
// A mark is an element plus an offset. Its trigger point is the document
// position of the element's top minus the offset; the mark fires whenever a
// scan finds the trigger point between the previous and the current scroll
// position, tagged with the direction of travel.
//
// Scans are driven by a single animation-frame loop shared by all marks of
// an instance. Scroll events only set a dirty flag; the loop scans every
// ScrollThrottle frames when the flag is set. Every ResizeThrottle frames
// the loop checks for a resize or a change in document height and, if
// either happened, recomputes all trigger points when the host is idle.
//
// The loop runs only while at least one mark is registered.
package scrollmarks
