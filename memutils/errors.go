package memutils

import "github.com/pkg/errors"

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

// OverflowError is the error returned from checked arithmetic helpers when the result cannot be
// represented in a signed 64-bit integer
var OverflowError error = errors.New("signed 64-bit overflow")
