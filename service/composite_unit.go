/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"errors"
	"strings"
	"sync"
)

// CompositeUnit runs several units as a single one.
type CompositeUnit struct {
	Units []Unit
}

var _ MetricsRegisterer = (*CompositeUnit)(nil)

// NewCompositeUnit creates a new CompositeUnit. Nil units are skipped.
func NewCompositeUnit(units ...Unit) *CompositeUnit {
	nonNil := make([]Unit, 0, len(units))
	for _, u := range units {
		if u != nil {
			nonNil = append(nonNil, u)
		}
	}
	return &CompositeUnit{Units: nonNil}
}

// Start starts all units concurrently and blocks until all Start calls return.
// If any unit reports a fatal error, all units are stopped non-gracefully
// and a single *CompositeUnitError with the fatal and stop errors is sent to fatalErr.
func (cu *CompositeUnit) Start(fatalErr chan<- error) {
	var (
		mu       sync.Mutex
		unitErrs []error
		wg       sync.WaitGroup
	)
	failed := make(chan struct{}, len(cu.Units))
	for _, u := range cu.Units {
		wg.Add(1)
		go func(u Unit) {
			defer wg.Done()
			unitFatalErr := make(chan error, 1)
			u.Start(unitFatalErr)
			select {
			case err := <-unitFatalErr:
				mu.Lock()
				unitErrs = append(unitErrs, err)
				mu.Unlock()
				failed <- struct{}{}
			default:
			}
		}(u)
	}

	allStarted := make(chan struct{})
	go func() {
		wg.Wait()
		close(allStarted)
	}()

	select {
	case <-failed:
	case <-allStarted:
		if len(failed) == 0 {
			return
		}
	}

	stopErr := cu.Stop(false)

	mu.Lock()
	errs := append([]error(nil), unitErrs...)
	mu.Unlock()
	var cuErr *CompositeUnitError
	if errors.As(stopErr, &cuErr) {
		errs = append(errs, cuErr.UnitErrors...)
	}
	fatalErr <- &CompositeUnitError{UnitErrors: errs}
}

// Stop stops all units concurrently and waits until all of them are stopped.
// Errors are collected into a single *CompositeUnitError.
func (cu *CompositeUnit) Stop(gracefully bool) error {
	stopErrs := make([]error, len(cu.Units))
	var wg sync.WaitGroup
	for i, u := range cu.Units {
		wg.Add(1)
		go func(i int, u Unit) {
			defer wg.Done()
			stopErrs[i] = u.Stop(gracefully)
		}(i, u)
	}
	wg.Wait()

	var errs []error
	for _, err := range stopErrs {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &CompositeUnitError{UnitErrors: errs}
}

// MustRegisterMetrics registers metrics of all units that implement MetricsRegisterer.
func (cu *CompositeUnit) MustRegisterMetrics() {
	for _, u := range cu.Units {
		if mr, ok := u.(MetricsRegisterer); ok {
			mr.MustRegisterMetrics()
		}
	}
}

// UnregisterMetrics unregisters metrics of all units that implement MetricsRegisterer.
func (cu *CompositeUnit) UnregisterMetrics() {
	for _, u := range cu.Units {
		if mr, ok := u.(MetricsRegisterer); ok {
			mr.UnregisterMetrics()
		}
	}
}

// CompositeUnitError holds errors of the units of CompositeUnit.
type CompositeUnitError struct {
	UnitErrors []error
}

func (cue *CompositeUnitError) Error() string {
	msgs := make([]string, 0, len(cue.UnitErrors))
	for _, err := range cue.UnitErrors {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap makes the unit errors available for errors.Is and errors.As.
func (cue *CompositeUnitError) Unwrap() []error {
	return cue.UnitErrors
}
