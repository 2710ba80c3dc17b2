// Package redis connects to Redis with retries, exposes a readiness probe and
// provides Locker, a SET NX based lease used to keep scheduled jobs from
// overlapping across several service replicas.
//
//	client, err := redis.Connect(ctx, cfg)
//	locker := redis.NewLocker(client, "arnsnotify:")
//	unlock, ok, err := locker.TryLock(ctx, "expiration-monitor", 10*time.Minute)
package redis
