package models

import "fmt"

// InsufficientDataError indicates that the supplied history is shorter than
// the minimum the algorithm needs. It is always reported to the caller; the
// core never pads or interpolates.
type InsufficientDataError struct {
	Got  int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient historical data: got %d days, need at least %d", e.Got, e.Need)
}

// InvalidHorizonError indicates a non-positive prediction horizon.
type InvalidHorizonError struct {
	Horizon int
}

func (e *InvalidHorizonError) Error() string {
	return fmt.Sprintf("prediction horizon must be positive, got %d", e.Horizon)
}

// InvalidTargetDateError indicates a target date that is not strictly in the
// future.
type InvalidTargetDateError struct {
	Target string
}

func (e *InvalidTargetDateError) Error() string {
	return fmt.Sprintf("target date must be in the future, got %s", e.Target)
}

// DataQualityError indicates zero or missing values where a ratio's
// denominator would be zero, or NaNs surviving indicator derivation. It is a
// fault in the input data, not a silent NaN.
type DataQualityError struct {
	Field  string
	Detail string
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("data quality fault in %s: %s", e.Field, e.Detail)
}
