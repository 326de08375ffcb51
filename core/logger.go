package core

// Logger logs messages along with optional args.
// expected args: error, map[string]interface{}, ledger.Record (sets the tracked person)
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Metrics records the outcome of multi-document operations.
type Metrics interface {
	// Distributed is called once per distribution with the number of modified student documents.
	Distributed(module string, students int)
	// Retracted is called once per retraction.
	Retracted(module string, students, compensations int)
	// Partial is called whenever a fan-out operation was only partially applied.
	Partial(op string)
}

type nopMetrics struct{}

func (nopMetrics) Distributed(string, int)    {}
func (nopMetrics) Retracted(string, int, int) {}
func (nopMetrics) Partial(string)             {}

// NopMetrics discards everything.
var NopMetrics Metrics = nopMetrics{}
