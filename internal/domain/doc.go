// Package domain models annual climate aggregates built from daily satellite
// observations.
//
// # Data Sources
//
// Two daily datasets are read from the remote dataset catalog:
//
//	Precipitation: "UCSB-CHG/CHIRPS/DAILY", band "precipitation", millimetres
//	per day. Reduced per pixel with a SUM over the calendar year, so the
//	annual value is mm/year.
//
//	Temperature: "MODIS/061/MOD11A1", band "LST_Day_1km", daytime land
//	surface temperature stored as scaled Kelvin. Reduced per pixel with a
//	MEAN over the calendar year and converted with
//	celsius = raw*0.02 - 273.15 (raw 15000 -> 26.85 °C).
//
// # Aggregation
//
// A year range [start, end] is decomposed into one YearBucket per calendar
// year (see [YearRange]). For every bucket, observations whose timestamp falls
// inside the year and whose location lies inside the Region polygon are
// grouped by pixel, reduced, converted and clipped to the region. Every
// requested year yields exactly one AnnualAggregate; a year without
// observations yields an aggregate with an empty raster rather than an error.
//
// # Join
//
// The precipitation and temperature series are inner-joined on the year key
// (see [JoinByYear]). Years present in only one series are reported as
// unmatched. Whether unmatched years are dropped or fail the request is
// decided by [JoinPolicy].
//
// # Coverage
//
// A catalog reports [ErrYearUnavailable] for a year outside a dataset's
// temporal coverage (MODIS starts in 2000, CHIRPS in 1981). Such years are
// left out of that dataset's series, which is the only way a year can be
// missing from one side of the join.
package domain
