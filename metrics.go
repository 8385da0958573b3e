package ipmapper

// Metrics records classification outcomes, load results and security events
// emitted by Mapper.
//
// Implementations should be safe for concurrent use, as a single Mapper
// instance is typically shared across many goroutines.
type Metrics interface {
	// RecordClassification is called once per processed request with the
	// request's Outcome.
	RecordClassification(outcome string)
	// RecordBlockMatch is called once per matched block of a request.
	RecordBlockMatch(block string)
	// RecordSecurityEvent is called when the mapper observes a
	// security-relevant or configuration-quality condition.
	RecordSecurityEvent(event string)
	// RecordRegistryLoad is called each time a Mapper publishes a registry,
	// with the load result and the number of blocks now active. Cancelled
	// reloads and one-shot Load calls are not recorded.
	RecordRegistryLoad(result string, blocks int)
}

// noopMetrics is the default Metrics implementation when metrics are not
// explicitly configured.
type noopMetrics struct{}

func (noopMetrics) RecordClassification(string) {}

func (noopMetrics) RecordBlockMatch(string) {}

func (noopMetrics) RecordSecurityEvent(string) {}

func (noopMetrics) RecordRegistryLoad(string, int) {}
