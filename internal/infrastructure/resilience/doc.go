/*
Package resilience provides the circuit breaker that guards remote content
hosts.

# States

  - Closed: requests pass through; counts reset every Interval
  - Open: requests fail with ErrCircuitOpen until Timeout elapses
  - Half-Open: up to MaxRequests trial requests decide the next state

Transitions:

	Closed --[ReadyToTrip]-> Open --[Timeout]-> Half-Open --[successes]-> Closed
	                                                |
	                                            [failure]
	                                                v
	                                              Open

# Usage

	breaker := resilience.New("remote-content", resilience.Settings{
		MaxRequests:   3,
		Timeout:       30 * time.Second,
		OnStateChange: resilience.LogStateChanges(logger),
	})

	page, err := resilience.Execute(breaker, func() (*Page, error) {
		return fetch(ctx, addr)
	})

A cancelled context is not counted as a failure, so superseded navigations
never trip the breaker.
*/
package resilience
