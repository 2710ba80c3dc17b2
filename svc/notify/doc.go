// Package notify turns upstream events into notifications.
//
// A Processor deduplicates events by nonce, a Matcher finds the verified
// subscribers that want them, and a Dispatcher fans one Envelope out to every
// enabled Provider concurrently:
//
//	store := notify.NewMemoryStore()
//	sender := webhook.NewSender()
//	dispatcher := notify.NewDispatcher([]notify.Provider{
//		notify.NewEmailProvider(mailer),
//		notify.NewSlackProvider(cfg.SlackWebhookURL, sender),
//		notify.NewDiscordProvider(cfg.DiscordWebhookURL, cfg.DiscordUsername, sender),
//		notify.NewWebhookProvider(store, sender),
//	}, notify.WithTimeout(cfg.DispatchTimeout))
//	processor := notify.NewProcessor(store, notify.NewMatcher(store), dispatcher)
//
//	res := processor.ProcessEvent(ctx, notify.Event{EventType: notify.EventBuyNameNotice, Nonce: 42})
//
// Delivery is settle-all: a failing provider is logged with its name and the
// event type and recorded in the Report, but never stops its siblings and
// never reaches the caller as an error. Events are marked processed once
// fan-out completes, whatever the per-provider outcome.
//
// Chat payloads are split rather than truncated: Slack sections hold at most
// 3000 characters and Discord embed descriptions at most 4096.
package notify
