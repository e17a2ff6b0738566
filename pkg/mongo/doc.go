// Package mongo stores background task state in MongoDB.
//
// Each key is a document {_id, value, updated_at} in a single collection.
// New retries the initial connection; Healthcheck wraps Ping for probes.
//
//	store, client, err := mongo.NewStorageFromConfig(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Disconnect(context.Background())
//
//	manager, err := background.NewManager(store)
package mongo
