// Package schedule runs in-process periodic jobs.
//
//	r := schedule.NewRunner(schedule.WithCheckInterval(time.Minute))
//	_ = r.Add("arns-sync", schedule.Every(time.Hour), syncFn, schedule.RunOnStart())
//	_ = r.Add("arns-expirations", schedule.Every(time.Hour), scanFn, schedule.RunOnStart())
//	go r.Start(ctx)
//
// Jobs that are due in the same check run sequentially in registration order.
package schedule
