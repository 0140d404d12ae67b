// Package datasets knows the processed dataset catalogue of the site and
// loads the JSON envelopes that wrap every dataset.
//
// Each file under processed/<category>/<id>.json holds a DataEnvelope: source
// citation, units, caveats and a data array whose records keep their
// document key order so they can be flattened into stable CSV columns.
package datasets
