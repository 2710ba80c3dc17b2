// Package webhook posts JSON payloads to HTTP endpoints with retries,
// exponential backoff and optional circuit breaking.
//
// A Sender is safe for concurrent use and reuses one http.Client:
//
//	sender := webhook.NewSender()
//	err := sender.Send(ctx, url, payload,
//	    webhook.WithAuthorization("Bearer "+token),
//	    webhook.WithMaxRetries(2),
//	    webhook.WithCircuitBreaker(breakers.For(url)),
//	)
//
// 2xx responses are success. 4xx responses other than 408, 425 and 429 are
// permanent and are not retried (ErrPermanentFailure). Everything else is
// retried until the attempts run out (ErrWebhookDeliveryFailed).
package webhook
