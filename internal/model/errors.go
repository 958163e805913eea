package model

import "errors"

var (
	ErrDecode        = errors.New("image could not be decoded")
	ErrShape         = errors.New("tensor shape does not match model input")
	ErrLabelMismatch = errors.New("model output width does not match label count")
	ErrEmptyOutput   = errors.New("model returned no scores")
	ErrInvalidLabels = errors.New("invalid label resource")
	ErrInference     = errors.New("inference failed")
)
