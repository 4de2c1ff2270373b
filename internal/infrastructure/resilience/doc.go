/*
Package resilience provides a circuit breaker for calls to remote
collaborators such as a loader node.

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           v
	                                         Open

# Usage

	breaker := resilience.New("loader", resilience.Settings{
		Timeout: 10 * time.Second,
		IsFailure: func(err error) bool {
			return status.Code(err) == codes.Unavailable
		},
	})

	err := breaker.Do(ctx, func(ctx context.Context) error {
		return client.Load(ctx, req)
	})
*/
package resilience
