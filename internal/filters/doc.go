// Package filters applies per-image visual filters (brightness, contrast,
// saturation, hue, tint, blur, opacity) and transforms (scale, rotation,
// flips) to decoded bitmaps.
//
// Two strategies produce the color adjustments:
//
//   - StrategyFast composes the adjustments into one gift filter chain,
//     the equivalent of a chained CSS filter string.
//   - StrategyPixel walks the pixel buffer and applies brightness,
//     contrast, saturation/hue, tint and opacity in that fixed order.
//
// StrategyAuto picks the composed chain only after a one-time capability
// check shows it agrees with the pixel strategy. The strategy is chosen per
// call; there is no process-wide switch.
package filters
