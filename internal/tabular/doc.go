// Package tabular turns heterogeneous nested records into a rectangular table
// and serializes it as CSV.
//
// Records are modelled as an order-preserving Value tree (null, bool, number,
// string, array, object) so that column order follows the source documents
// rather than Go's randomized map iteration.
//
//	records, err := tabular.DecodeRecords(r)
//	rows := tabular.Flatten(records)       // one FlatRow per record
//	cols := tabular.ColumnsOf(rows)        // first-seen union of dotted paths
//	csv := tabular.ToCSV(rows)             // "" for an empty batch
//
// Nested objects become dotted paths ("additions.coal"). Arrays are leaves and
// render as their elements joined with "; ". The package performs no I/O;
// writing files or HTTP responses is the exporter package's job.
package tabular
