// Package domain models air quality observations for the Brasília / Distrito
// Federal monitoring network and the transforms that take them from raw
// source extracts (bronze layer) to the canonical silver schema.
//
// # Data Sources
//
// Observations originate from two connectors: the IBRAM ArcGIS feature layer
// of licensed monitoring stations and the MMA MonitorAr real-time panel. Both
// produce flat CSV batches with source-specific columns; when a source is
// unreachable the connector falls back to a deterministic synthetic series so
// the pipeline stays runnable end to end. The normalizer treats fetched and
// synthetic batches identically.
//
// # Canonical Schema
//
// A silver record has fifteen columns in a fixed order (see [Columns]):
//
//	datetime_utc, datetime_local   ISO-8601 with explicit offsets, same instant
//	station_id, station_name       sensor identity, passed through
//	latitude, longitude            degrees, passed through verbatim
//	pollutant                      pm25 | pm10 | o3 | no2 | so2 | co, or the
//	                               lower-cased source string when unrecognized
//	value                          concentration in µg/m³, nullable
//	unit                           always "µg/m³" after normalization
//	avg_period_minutes             averaging window, default 60
//	source_url, source_agency      provenance, passed through
//	ingested_at_utc                defaults to the ingestion clock
//	license                        provenance, passed through
//	quality_flag                   defaults to "ok", not interpreted here
//
// Pollutant names arrive in many spellings ("PM2.5", "mp2,5", "ozone");
// [CanonicalPollutant] maps known aliases case-insensitively and passes
// unknown codes through lower-cased, since new pollutants may appear upstream.
//
// Concentrations may be reported in mg/m³ (CO in particular);
// [ConvertConcentration] rescales those to µg/m³ and leaves every other unit
// untouched.
//
// Timestamps may be naive or carry an offset. Naive instants are interpreted
// in the configured local zone (America/Sao_Paulo, UTC−03:00 year-round since
// Brazil abolished DST in 2019); zoned instants are converted into it. The
// UTC column is derived from the local instant.
//
// # Failure Policy
//
// Per-field failures never abort a batch. The rule is uniform: an optional
// field that fails to parse (value, avg_period_minutes) is nulled or
// defaulted and the record continues; a required field that fails to parse
// (the timestamp) drops that record only, reported through [RowError].
// Coordinates are passed through verbatim and only interpreted by the
// validator, so malformed coordinates survive normalization and surface as
// validation issues.
//
// # Validation
//
// [Validate] accumulates human-readable issues and never raises: physical
// plausibility ranges per pollutant, non-decreasing datetime_utc across the
// batch, a Brazil bounding box for coordinates, and presence of the required
// columns. An empty issue list is the only pass condition; the driver decides
// whether issues become a nonzero exit status.
package domain
