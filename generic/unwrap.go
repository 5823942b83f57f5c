package generic

import "fmt"

// Unwrap returns value, or panics if err is not nil. Only for errors that indicate a programming mistake.
func Unwrap[T any](value T, err error) T {
	if err != nil {
		panic(fmt.Errorf("tried to Unwrap() an error: %w", err))
	}
	return value
}

// Unwrap_ is like Unwrap, but for functions that only return an error.
func Unwrap_(err error) {
	if err != nil {
		panic(fmt.Errorf("tried to Unwrap_() an error: %w", err))
	}
}
