// Package redis connects to Redis and exposes it as a key-value Storage for
// background task state.
//
// Connect retries the initial ping according to Config. Storage namespaces
// keys under a prefix and reports missing keys as found=false, which is the
// contract background.Manager expects:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	store := redis.NewStorageWithConfig(client, cfg)
//	manager, err := background.NewManager(store)
//
// Healthcheck plugs the client into readiness probes.
package redis
