package capture

import (
	"strings"
	"sync"

	"github.com/cjsmocjsmo/streamserverclient/src/log"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/pkg/errors"
)

// Strategy is one way of connecting to a camera.
type Strategy struct {
	Name string
	New  func() FrameSource
}

// FallbackSource tries an ordered list of strategies against an ordered
// list of locators. The first combination that opens is used, the others
// are not tried anymore.
type FallbackSource struct {
	strategies []Strategy
	fallbacks  []string

	mutex    sync.Mutex
	active   FrameSource
	strategy string
	locator  string
}

// NewFallbackSource creates a source that, after the locator passed to
// Open, also tries the fallback locators.
func NewFallbackSource(fallbacks []string, strategies ...Strategy) *FallbackSource {
	return &FallbackSource{
		strategies: strategies,
		fallbacks:  fallbacks,
	}
}

func (s *FallbackSource) candidates(locator string) []string {
	var locators []string
	seen := map[string]bool{}
	for _, l := range append([]string{locator}, s.fallbacks...) {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		locators = append(locators, l)
	}
	return locators
}

func (s *FallbackSource) Open(locator string) error {
	s.Release()

	locators := s.candidates(locator)
	if len(locators) == 0 {
		return errors.Wrap(ErrSourceUnavailable, "no locator configured")
	}

	var failures []string
	for _, l := range locators {
		for _, strategy := range s.strategies {
			source := strategy.New()
			err := source.Open(l)
			if err != nil {
				source.Release()
				failures = append(failures, strategy.Name+": "+err.Error())
				continue
			}
			s.mutex.Lock()
			s.active = source
			s.strategy = strategy.Name
			s.locator = l
			s.mutex.Unlock()
			if l != locator {
				log.Log.Warning("capture.Fallback.Open(): primary stream unavailable, using fallback stream")
			}
			return nil
		}
	}
	return errors.Wrap(ErrSourceUnavailable, strings.Join(failures, "; "))
}

func (s *FallbackSource) Read() (*models.Frame, bool) {
	s.mutex.Lock()
	active := s.active
	s.mutex.Unlock()
	if active == nil {
		return nil, false
	}
	return active.Read()
}

func (s *FallbackSource) IsOpen() bool {
	s.mutex.Lock()
	active := s.active
	s.mutex.Unlock()
	return active != nil && active.IsOpen()
}

// Active returns the strategy and locator in use.
func (s *FallbackSource) Active() (string, string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.strategy, s.locator
}

func (s *FallbackSource) Release() {
	s.mutex.Lock()
	active := s.active
	s.active = nil
	s.strategy = ""
	s.locator = ""
	s.mutex.Unlock()
	if active != nil {
		active.Release()
	}
}
