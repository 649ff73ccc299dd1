// Package discovery implements the swipe session behind the discovery view.
//
// A Session holds one batch of candidates, a cursor into it and a busy guard.
// The guard turns the session into a strictly sequential actor: Refill and
// Decide calls that arrive while another operation is in flight are dropped,
// not queued.
//
//	session := discovery.New(backend, discovery.WithLogger(logger))
//	defer session.Close()
//
//	state := session.Refill(ctx)
//	for state.Current != nil {
//	    state = session.Like(ctx)
//	    if m, ok := session.TakeMatch(); ok {
//	        fmt.Printf("It's a match with %s!\n", m.Name)
//	    }
//	}
//	if state.Exhausted {
//	    state = session.Refill(ctx)
//	}
//
// No entry point returns an error. Transient failures are reported through
// State.Err and leave the batch untouched, so the same call can be retried.
// A rejected credential closes the channel returned by Invalidated instead.
package discovery
