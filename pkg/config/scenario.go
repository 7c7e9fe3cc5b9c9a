// Package config loads allocation scenarios from YAML files.
//
// Quantities use the Kubernetes resource format, so capacities can be written
// as plain numbers ("250"), millis ("1500m"), or binary suffixes ("2Gi"):
//
//	name: three-agents
//	resource: "1000"
//	capacities:
//	  web: "250"
//	  batch: "450"
//	  cache: "450"
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/api/resource"

	"fairalloc/pkg/types"
)

// DefaultSolverTimeout bounds each convex-solver invocation when the scenario
// does not set one.
const DefaultSolverTimeout = 10 * time.Second

// Scenario is one (resource, capacity) pair to run through the strategies.
type Scenario struct {
	Name          string            `yaml:"name"`
	Resource      string            `yaml:"resource"`
	Capacities    map[string]string `yaml:"capacities"`
	SolverTimeout string            `yaml:"solverTimeout,omitempty"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scenario %s", path)
	}

	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrapf(err, "parsing scenario %s", path)
	}
	if s.Name == "" {
		s.Name = path
	}

	// Parse eagerly so malformed values fail at load time, not mid-run.
	if _, err := s.Timeout(); err != nil {
		return nil, err
	}
	if _, err := s.ResourceValue(); err != nil {
		return nil, err
	}
	if _, err := s.Capacity(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Timeout returns the solver timeout, falling back to DefaultSolverTimeout
// when the scenario does not set one.
func (s *Scenario) Timeout() (time.Duration, error) {
	if s.SolverTimeout == "" {
		return DefaultSolverTimeout, nil
	}
	d, err := time.ParseDuration(s.SolverTimeout)
	if err != nil {
		return 0, errors.Wrapf(err, "scenario %s: solverTimeout %q", s.Name, s.SolverTimeout)
	}
	return d, nil
}

// ResourceValue parses the total resource quantity.
func (s *Scenario) ResourceValue() (float64, error) {
	q, err := resource.ParseQuantity(s.Resource)
	if err != nil {
		return 0, errors.Wrapf(err, "scenario %s: resource %q", s.Name, s.Resource)
	}
	v := q.AsApproximateFloat64()
	if v < 0 {
		return 0, errors.Wrapf(types.ErrInvalidInput, "scenario %s: negative resource %q", s.Name, s.Resource)
	}
	return v, nil
}

// Capacity parses the per-agent capacity bounds.
func (s *Scenario) Capacity() (types.Capacity, error) {
	capacity := make(types.Capacity, len(s.Capacities))
	for agent, raw := range s.Capacities {
		q, err := resource.ParseQuantity(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "scenario %s: capacity of %s %q", s.Name, agent, raw)
		}
		capacity[types.Agent(agent)] = q.AsApproximateFloat64()
	}
	if err := capacity.Validate(); err != nil {
		return nil, errors.Wrapf(err, "scenario %s", s.Name)
	}
	return capacity, nil
}
