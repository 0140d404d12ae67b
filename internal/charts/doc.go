// Package charts holds the presentation helpers shared by the dataset
// endpoints: unit formatters for axes and tooltips, accessible text
// alternatives for charts, and small unit conversions over records.
package charts
