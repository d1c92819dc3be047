// Package eventloop provides the single goroutine every shell handler runs on.
//
// Engine callbacks arrive on engine goroutines. They submit work with Post,
// or with Call when the engine needs an answer before it can continue.
// Delayed work is scheduled with AfterFunc and fires on the loop as well, so
// handlers never need locks between them.
//
// Example Usage:
//
//	loop := eventloop.New()
//	go loop.Run(ctx)
//
//	var decision navigation.Decision
//	loop.Call(func() { decision = policy.DecideNavigation(ev) })
//
//	timer := loop.AfterFunc(10*time.Second, reload)
//	defer timer.Stop()
package eventloop
