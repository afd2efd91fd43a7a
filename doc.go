// Package steamm implements the off-chain swap-quote math for a two-asset
// oracle-priced AMM pool: a checked fixed-point arithmetic kernel (U256,
// Decimal, FixedPoint64) and two invariant-based quoters built on top of
// it.
//
// # How it works
//
// Decimal is a non-negative fixed-point number scaled by a WAD (10^18):
//
//	number = raw / 10^18
//
// where raw is a checked 256-bit unsigned integer. Every arithmetic
// operation is "checked": it returns (Decimal, error) and fails loudly on
// overflow, underflow, or division by zero rather than wrapping or
// truncating silently.
//
// FixedPoint64 is a companion fixed-point type scaled by 2^64, used by the
// logarithmic-invariant quoter for its Newton-Raphson iteration, where
// binary scaling is cheaper than decimal scaling.
//
// QuoteSwap is the single exported entry point: given a pool and a swap
// direction, it dispatches to one of two quoters (a Newton-Raphson solver
// over a logarithmic invariant, or a Curve-style integer stableswap
// solver) and returns a SwapQuote with protocol and pool fees already
// netted out.
//
// # Scope
//
// This package has no I/O: no RPC, no persistence, no serialization. It
// takes explicit arguments and returns values or errors. Callers that need
// to persist or transmit a Decimal, FixedPoint64, or SwapQuote are
// expected to do so at their own boundary, in their own format.
package steamm
