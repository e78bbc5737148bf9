// Package services runs the pipeline. Ingestion, aggregation and
// recommendation each read from and write to driven ports; Pipeline chains
// them, Scheduler repeats them and InsightsService answers read queries.
package services
