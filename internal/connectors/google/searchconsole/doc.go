// Package searchconsole queries Google Search Console search analytics
// and adapts the response to the pipeline's analytics rows.
package searchconsole
