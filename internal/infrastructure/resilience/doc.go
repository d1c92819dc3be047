/*
Package resilience provides a small circuit breaker for actions that hand
work to the desktop, such as launching the system browser.

After Threshold consecutive failures the breaker opens and Do returns
ErrOpen at once. Once Cooldown has passed a single trial call is let
through: success closes the breaker, failure opens it for another cooldown.

	breaker := resilience.New(resilience.Settings{
		Threshold: 3,
		Cooldown:  30 * time.Second,
		OnStateChange: func(from, to resilience.State) {
			logger.Warn("Breaker changed state", zap.Stringer("from", from), zap.Stringer("to", to))
		},
	})

	err := breaker.Do(func() error {
		return browser.OpenURL(uri)
	})
*/
package resilience
