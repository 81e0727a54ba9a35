package health

import "context"

const (
	StatusReady       = "ready"
	StatusUnavailable = "unavailable"

	checkOK = "ok"
)

// Checker reports whether one dependency is reachable.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Report is the outcome of one readiness pass. Checks maps each dependency
// name to "ok" or the error it returned.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (r Report) Ready() bool { return r.Status == StatusReady }

type ReadinessUseCase interface {
	Check(ctx context.Context) Report
}

type service struct {
	checkers []Checker
}

func NewService(checkers ...Checker) ReadinessUseCase {
	return &service{checkers: checkers}
}

// Check runs every checker, even after one fails, so the report names all
// unreachable dependencies at once.
func (s *service) Check(ctx context.Context) Report {
	r := Report{Status: StatusReady, Checks: make(map[string]string, len(s.checkers))}
	for _, ch := range s.checkers {
		if err := ch.Check(ctx); err != nil {
			r.Status = StatusUnavailable
			r.Checks[ch.Name()] = err.Error()
			continue
		}
		r.Checks[ch.Name()] = checkOK
	}
	return r
}
