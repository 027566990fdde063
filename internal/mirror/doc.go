// Package mirror republishes everything the clock paints to an MQTT topic.
//
// Painter wraps a display.Painter. Every successful paint is followed by a
// QoS 0 publish of a small JSON document:
//
//	{"kind":"time","text":" 3:07"}
//
// Publishing is best effort. Failures are logged, the broker connection is
// dropped and re-established on a later paint once a backoff interval has
// passed. The display itself never sees a mirror error.
package mirror
