// Package notifications sends immediate, user-visible notifications on behalf
// of background tasks.
//
// Manager stamps each Notification with an id and creation time, keeps it in
// a bounded Inbox for later inspection and hands it to a Deliverer. Delivery
// is platform conditional: on PlatformWeb Send does nothing, mirroring
// runtimes without a local notification facility.
//
// Deliverers:
//
//   - NoOpDeliverer drops notifications.
//   - LogDeliverer writes them to a *slog.Logger.
//   - PostmarkDeliverer emails a copy through Postmark.
//   - MultiDeliverer fans out to several deliverers, logging failures
//     without stopping the others.
//
// Usage:
//
//	d := notifications.NewMultiDeliverer([]notifications.Deliverer{
//	    notifications.NewLogDeliverer(log),
//	    postmarkDeliverer,
//	})
//	m := notifications.NewManager(d, notifications.WithPlatform(notifications.PlatformServer))
//	_ = m.Send(ctx, notifications.Notification{
//	    Title: "Bike Rental Update",
//	    Body:  "Your rental has been running for 01:05:00.",
//	})
package notifications
