package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownActionKind is returned when an action kind is not part of the known set.
var ErrUnknownActionKind = errors.New("unknown action kind")

// ErrInvalidBooleanMode is returned for boolean operations other than union, difference or intersect.
var ErrInvalidBooleanMode = errors.New("invalid boolean mode")

// ErrEmptyPrompt is returned when a text-to-3D generation is requested without a prompt.
var ErrEmptyPrompt = errors.New("prompt is empty")

// ErrUnknownJobKind is returned for job kinds other than generation and export.
var ErrUnknownJobKind = errors.New("unknown job kind")

// ErrInvalidParams is returned when action metadata or document settings hold values of the wrong type or range.
var ErrInvalidParams = errors.New("invalid params")
