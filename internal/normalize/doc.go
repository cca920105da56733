// Package normalize maps exchange-specific raw market payloads into the
// canonical model.MarketRecord shape.
//
// Normalization is a pure transform and is all-or-nothing per payload: a
// payload either yields a fully populated record or a typed *Error, never
// a partial record. Raw fields with no canonical slot are preserved in the
// record's Extra map rather than dropped.
package normalize
