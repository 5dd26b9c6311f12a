package pool

import "fmt"

type Action string

const (
	ActionScaleUp   Action = "scale_up"
	ActionScaleDown Action = "scale_down"
	ActionNone      Action = "none"
)

func (a Action) String() string {
	return string(a)
}

// Status is the input of a scaling decision.
type Status struct {
	Enabled    bool
	Healthy    bool
	Rate       float64
	QueueDepth int
	Capacity   int
}

func (s Status) occupancy() float64 {
	if s.Capacity <= 0 {
		return 0
	}

	return float64(s.QueueDepth) / float64(s.Capacity)
}

// Decision is the outcome of Policy.Evaluate. Target is the worker count
// to converge to, Delta the signed change from the current count.
type Decision struct {
	Action Action
	Target int
	Delta  int
	Reason string
}

type PolicyOption func(*Policy)

func WithMaxWorkers(n int) PolicyOption {
	return func(p *Policy) { p.maxWorkers = n }
}

func WithScaleUpRate(rate float64) PolicyOption {
	return func(p *Policy) { p.scaleUpRate = rate }
}

func WithSoftDegradeRate(rate float64) PolicyOption {
	return func(p *Policy) { p.softDegradeRate = rate }
}

// Policy maps queue pressure and frame rate to a worker count.
type Policy struct {
	maxWorkers      int
	scaleUpRate     float64
	softDegradeRate float64
	highOccupancy   float64
	lowOccupancy    float64
}

func NewPolicy(opts ...PolicyOption) *Policy {
	p := &Policy{
		maxWorkers:      4,
		scaleUpRate:     30,
		softDegradeRate: 25,
		highOccupancy:   0.8,
		lowOccupancy:    0.2,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Policy) Evaluate(status Status, current int) Decision {
	if !status.Enabled {
		return p.decide(current, 0, "offload disabled")
	}

	if !status.Healthy {
		return p.decide(current, 1, fmt.Sprintf("rate %.1f below critical threshold", status.Rate))
	}

	occupancy := status.occupancy()
	target := current
	reason := "load within bounds"

	switch {
	case occupancy > p.highOccupancy && status.Rate > p.scaleUpRate:
		target = min(p.maxWorkers, current+1)
		reason = fmt.Sprintf("queue at %.0f%% with rate %.1f", occupancy*100, status.Rate)
	case occupancy < p.lowOccupancy && current > 1:
		target = current - 1
		reason = fmt.Sprintf("queue at %.0f%%", occupancy*100)
	case status.Rate < p.softDegradeRate && current > 1:
		target = current - 1
		reason = fmt.Sprintf("rate %.1f below %.1f", status.Rate, p.softDegradeRate)
	}

	// an enabled pool always keeps one worker
	if target < 1 {
		target = 1
		reason = "keeping minimum worker"
	}

	return p.decide(current, target, reason)
}

func (p *Policy) decide(current, target int, reason string) Decision {
	d := Decision{Target: target, Delta: target - current, Reason: reason}

	switch {
	case d.Delta > 0:
		d.Action = ActionScaleUp
	case d.Delta < 0:
		d.Action = ActionScaleDown
	default:
		d.Action = ActionNone
	}

	return d
}
