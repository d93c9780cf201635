// Package domain models stormwater water-quality flow sizing.
//
// # Water-Quality Flow
//
// A treatment device such as an oil-grit separator is sized to the water-quality
// flow rate (Q_wq): the flow below which a target share (typically 90%) of the
// long-term runoff volume passes. Q_wq is read off a capture curve built from a
// multi-decade hourly flow series at the device inlet.
//
// # Capture Curve
//
// Built by [AnalyzeCaptureCurve]:
//
//  1. Samples with flow > wet threshold (default 0.0001 m³/s) are wet; the rest are dry
//     and only counted.
//  2. Each wet sample carries volume = flow × dt.
//  3. Wet samples are sorted ascending by flow and their volumes accumulated.
//  4. cumulative % = cumulative volume / total volume × 100.
//  5. Q_wq(p) is the flow at the first index whose cumulative % ≥ p, clamped to the
//     last index.
//
// The curve is a step function over observed flows. Q_wq is never interpolated,
// and it never decreases as p increases.
//
// # Synthetic Rainfall
//
// [GenerateRainfall] produces an hourly rainfall series from monthly climate normals
// and seasonal storm shapes. Generation is seeded and single-pass; given the same
// seed and date range the series is bit-identical. Draw order per month:
//
//	variability factor → storm count → one weight per storm → placement days →
//	per storm (depth ≥ 0.1 mm only): start hour → storm profile
//
// and per storm profile ([SynthesizeStorm]):
//
//	duration → peak position → one gamma noise sample per hour
//
// Changing this order changes every downstream number.
//
// # Seasons
//
//	Nov–Mar winter | Apr–May spring | Jun–Aug summer | Sep–Oct fall
//
// Summer storms start in the afternoon (triangular 12–22 h, mode 16 h); other
// seasons start uniformly over 0–23 h.
//
// # Reference Scaling
//
// [ReferenceFlow] holds one previously simulated hourly series for a known
// catchment (66 ha, 55% impervious by convention) and scales it linearly by area
// and imperviousness. This is an approximation, not a re-simulation: it ignores
// changes in travel time and peaking, so accuracy degrades for catchments whose
// shape, slope, or drainage layout differ materially from the reference.
//
// # Units
//
// Flows are m³/s (CMS), volumes m³, depths mm, intensities mm/h, areas hectares,
// imperviousness percent (0–100).
package domain
