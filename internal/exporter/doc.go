// Package exporter writes cleaned holdings data to CSV files.
//
// All output is UTF-8 with a BOM prefix so the files open correctly in
// Excel, which is where the cleaned tables are usually reviewed. The
// streaming writer lets the scanner emit records one at a time without
// holding a whole fund's holdings in memory.
package exporter
