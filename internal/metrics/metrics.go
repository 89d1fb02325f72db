package metrics

import (
	"net/http"
	"strconv"
	"sync"
)

// Metrics is the process-wide registry behind GET /metrics. Exposition is
// the line-oriented text format, one sample per line.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	ticksTotal         int64
	ticksSkipped       int64
	applyFailuresTotal map[string]int64
	predictionsTotal   map[string]int64
	resolveAborts      int64
	verdictCounts      map[string]int64
	scalingEventsTotal map[string]map[string]int64 // service -> trigger -> count

	// Gauges
	resolvedReplicas map[string]int
	loopState        string
}

var (
	instance *Metrics
	once     sync.Once
)

func Get() *Metrics {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New returns an isolated registry; tests use this instead of Get.
func New() *Metrics {
	return &Metrics{
		applyFailuresTotal: make(map[string]int64),
		predictionsTotal:   make(map[string]int64),
		verdictCounts:      make(map[string]int64),
		scalingEventsTotal: make(map[string]map[string]int64),
		resolvedReplicas:   make(map[string]int),
		loopState:          "idle",
	}
}

func (m *Metrics) IncTick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticksTotal++
}

func (m *Metrics) IncSkippedTick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticksSkipped++
}

func (m *Metrics) IncApplyFailure(service string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyFailuresTotal[service]++
}

func (m *Metrics) IncPrediction(service string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictionsTotal[service]++
}

func (m *Metrics) IncResolveAbort() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolveAborts++
}

func (m *Metrics) IncVerdict(verdict string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verdictCounts[verdict]++
}

func (m *Metrics) IncScalingEvent(service, trigger string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scalingEventsTotal[service] == nil {
		m.scalingEventsTotal[service] = make(map[string]int64)
	}
	m.scalingEventsTotal[service][trigger]++
}

func (m *Metrics) SetResolvedReplicas(service string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolvedReplicas[service] = count
}

func (m *Metrics) SetLoopState(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loopState = state
}

func (m *Metrics) SkippedTicks() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ticksSkipped
}

func (m *Metrics) Ticks() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ticksTotal
}

func (m *Metrics) LoopState() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loopState
}

func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		writeMetric(w, "coordinator_ticks_total", nil, float64(m.ticksTotal))
		writeMetric(w, "coordinator_ticks_skipped_total", nil, float64(m.ticksSkipped))
		writeMetric(w, "coordinator_resolve_aborts_total", nil, float64(m.resolveAborts))

		for service, count := range m.applyFailuresTotal {
			writeMetric(w, "coordinator_apply_failures_total",
				map[string]string{"service": service}, float64(count))
		}

		for service, count := range m.predictionsTotal {
			writeMetric(w, "coordinator_predictions_total",
				map[string]string{"service": service}, float64(count))
		}

		for service, triggers := range m.scalingEventsTotal {
			for trigger, count := range triggers {
				writeMetric(w, "coordinator_scaling_events_total",
					map[string]string{"service": service, "trigger": trigger},
					float64(count))
			}
		}

		for verdict, count := range m.verdictCounts {
			writeMetric(w, "coordinator_effectiveness_verdicts_total",
				map[string]string{"verdict": verdict}, float64(count))
		}

		for service, count := range m.resolvedReplicas {
			writeMetric(w, "coordinator_resolved_replicas",
				map[string]string{"service": service}, float64(count))
		}
	})
}

func writeMetric(w http.ResponseWriter, name string, labels map[string]string, value float64) {
	labelStr := ""
	if len(labels) > 0 {
		labelStr = "{"
		first := true
		for k, v := range labels {
			if !first {
				labelStr += ","
			}
			labelStr += k + `="` + v + `"`
			first = false
		}
		labelStr += "}"
	}
	w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(value, 'f', -1, 64) + "\n"))
}
