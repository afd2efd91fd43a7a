package steamm

import "errors"

// Sentinel errors returned by the math kernel and the quoters. Every
// fallible call site wraps one of these with call-site detail via
// fmt.Errorf("...: %w", Err...) so errors.Is still matches the sentinel
// while the message distinguishes where the failure happened.
var (
	// ErrOverflow is returned when a checked operation's true result
	// can't be represented in the destination width.
	ErrOverflow = errors.New("overflow")

	// ErrZeroDivision is returned when a divisor is zero.
	ErrZeroDivision = errors.New("division by zero")

	// ErrNegativeResult is returned when an unsigned subtraction would
	// go below zero.
	ErrNegativeResult = errors.New("negative result in unsigned subtraction")

	// ErrOutOfRange is returned when an input or intermediate value
	// falls outside the domain a function is defined on.
	ErrOutOfRange = errors.New("value out of range")

	// ErrLogOfZero is returned when a logarithm is requested of zero.
	ErrLogOfZero = errors.New("logarithm of zero")

	// ErrPrecisionLoss is returned when an iterative solver's derivative
	// is too close to zero to take a reliable step, or when the
	// log-invariant's ln_plus_64ln2 term exceeds 64ln2.
	ErrPrecisionLoss = errors.New("precision loss")

	// ErrConvergence is returned when an iterative solver exhausts its
	// iteration cap without converging.
	ErrConvergence = errors.New("did not converge")
)
