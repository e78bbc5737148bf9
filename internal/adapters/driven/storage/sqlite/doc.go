// Package sqlite is the default local store. One database file holds the
// pipeline tables and the scheduler tables:
//
//   - MetricsStore writes page_metrics
//   - RecommendationStore writes ai_recommendations
//   - SchedulerStore keeps task state and run history
//
// modernc.org/sqlite is used so the binary builds without cgo. Migrations
// are embedded from migrations/ and applied on open. The database lives at
// ~/.searchlift/data/searchlift.db unless store.data_dir says otherwise,
// and runs in WAL mode so the scheduler and ad hoc commands can share it.
package sqlite
