// Package catalog binds a provider grammar to a store and answers
// "which files are valid for this assimilation window" queries.
//
// A [Catalog] owns one provider's store. [Catalog.Ingest] re-lists the
// provider's directories, parses every matching name and inserts the new
// records; running it again over an unchanged tree inserts nothing.
// [Catalog.Query] returns the filenames whose observation time falls in a
// closed window, optionally replaying the latency of an operational run
// through a receipt-time cutoff.
//
// A [Registry] holds the catalogs of a running service and coordinates
// ingest triggers from the scheduler, the watcher and the HTTP API.
package catalog
