package metrics

import "time"

// Recorder receives payment pipeline measurements. Callers pass the asset
// code in labels["asset"]; recorders that do not care may ignore it.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
