// Package sink provides the record consumers of the tag decoder.
//
// Every type here implements detection.Sink:
//
//   - CSV writes the archive layout "population,time,id,id_prob,x,y,orientation".
//   - Dedup forwards only the first record of each (population, time, id).
//   - Collect keeps records in memory for tests and the tool server.
//
// Sinks are safe for use by multiple goroutines.
package sink
