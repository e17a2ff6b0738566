// Package rental tracks active bike rentals with background timer tasks.
//
// While a rental is active, Tracker keeps one RENTAL_TIMER task pending in the
// background manager. Each run of TimerHandler prices the rental at 20 per
// started hour (minimum 20) and notifies the rider when the price has gone up
// since the rental was last priced. Operations runs one-off rental actions on
// the shared priority queue.
package rental
