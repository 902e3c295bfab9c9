// Package dispatch executes generation requests in the order chosen by a
// router.
//
// The router only decides; it never calls a provider. A Dispatcher closes
// the loop: it asks the router for an order, calls each provider in turn,
// and reports every outcome back with RecordSuccess or RecordFailure so the
// metrics behind later decisions stay current.
//
//	d := dispatch.New(router, router.Registry().Get,
//	    dispatch.WithLogger(logger),
//	    dispatch.WithErrorRecorder(collector),
//	)
//	res, err := d.Generate(ctx, req, router.Registry().IDs(), routing.PriorityNormal)
//
// # Failover
//
// Rate limits, timeouts, unavailability and stream failures move on to the
// next provider. Authentication and validation failures stop the chain and
// are returned directly. When every provider fails the error is an
// *AllProvidersFailedError, which matches ErrAllProvidersFailed and unwraps
// to the last attempt's error.
//
// A call that fails because the caller cancelled its context is not
// recorded against the provider.
package dispatch
