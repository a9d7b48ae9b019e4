// Package errors provides structured error types for shadowtpl with enough
// context to diagnose a misconfigured template without inspecting internals:
// every failure names the offending slot name or registry identity.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeRegistry   ErrorType = "registry"
	ErrorTypeProjection ErrorType = "projection"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeInternal   ErrorType = "internal"
)

// Error codes for the compile/register/instantiate taxonomy.
const (
	CodeUnknownSlot        = "unknown_slot"
	CodeDuplicateSlot      = "duplicate_slot"
	CodeMalformedStyle     = "malformed_style"
	CodeDuplicateIdentity  = "duplicate_identity"
	CodeUnknownIdentity    = "unknown_identity"
	CodeMissingSlotContent = "missing_slot_content"
	CodeUnknownSlotName    = "unknown_slot_name"
	CodeInstanceDestroyed  = "instance_destroyed"
	CodeInvalidTransition  = "invalid_transition"
)

// ShadowError is a structured error type with context.
type ShadowError struct {
	Type     ErrorType
	Code     string
	Message  string
	Slot     string
	Identity string
	Cause    error
	Context  map[string]interface{}
}

// Error implements the error interface.
func (e *ShadowError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Identity != "" {
		parts = append(parts, "identity:"+e.Identity)
	}

	if e.Slot != "" {
		parts = append(parts, "slot:"+e.Slot)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *ShadowError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by type and code.
func (e *ShadowError) Is(target error) bool {
	var t *ShadowError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *ShadowError) WithContext(key string, value interface{}) *ShadowError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithIdentity adds registry identity context.
func (e *ShadowError) WithIdentity(identity string) *ShadowError {
	e.Identity = identity

	return e
}

// Error creation functions

// NewUnknownSlotError reports a slot marker referencing an undeclared name.
func NewUnknownSlotError(slot string) *ShadowError {
	return &ShadowError{
		Type:    ErrorTypeValidation,
		Code:    CodeUnknownSlot,
		Message: fmt.Sprintf("markup references undeclared slot %q", slot),
		Slot:    slot,
	}
}

// NewDuplicateSlotError reports a slot name declared more than once.
func NewDuplicateSlotError(slot string) *ShadowError {
	return &ShadowError{
		Type:    ErrorTypeValidation,
		Code:    CodeDuplicateSlot,
		Message: fmt.Sprintf("slot %q declared more than once", slot),
		Slot:    slot,
	}
}

// NewMalformedStyleError reports style text the CSS parser could not read.
// Style text is never validated semantically, but it must at least be
// structurally parseable so its selectors can be scoped.
func NewMalformedStyleError(cause error) *ShadowError {
	return &ShadowError{
		Type:    ErrorTypeValidation,
		Code:    CodeMalformedStyle,
		Message: "style text is not parseable CSS",
		Cause:   cause,
	}
}

// NewDuplicateIdentityError reports a registration under a taken identity.
func NewDuplicateIdentityError(identity string) *ShadowError {
	return &ShadowError{
		Type:     ErrorTypeRegistry,
		Code:     CodeDuplicateIdentity,
		Message:  fmt.Sprintf("identity %q is already registered", identity),
		Identity: identity,
	}
}

// NewUnknownIdentityError reports a lookup of an unregistered identity.
func NewUnknownIdentityError(identity string) *ShadowError {
	return &ShadowError{
		Type:     ErrorTypeRegistry,
		Code:     CodeUnknownIdentity,
		Message:  fmt.Sprintf("identity %q is not registered", identity),
		Identity: identity,
	}
}

// NewMissingSlotContentError reports a projection that omits a declared slot.
func NewMissingSlotContentError(identity, slot string) *ShadowError {
	return &ShadowError{
		Type:     ErrorTypeProjection,
		Code:     CodeMissingSlotContent,
		Message:  fmt.Sprintf("projection omits declared slot %q", slot),
		Slot:     slot,
		Identity: identity,
	}
}

// NewUnknownSlotNameError reports a projection entry for an undeclared slot.
func NewUnknownSlotNameError(identity, slot string) *ShadowError {
	return &ShadowError{
		Type:     ErrorTypeProjection,
		Code:     CodeUnknownSlotName,
		Message:  fmt.Sprintf("projection supplies undeclared slot %q", slot),
		Slot:     slot,
		Identity: identity,
	}
}

// NewInstanceDestroyedError reports an operation on a destroyed instance.
func NewInstanceDestroyedError(identity string) *ShadowError {
	return &ShadowError{
		Type:     ErrorTypeProjection,
		Code:     CodeInstanceDestroyed,
		Message:  "instance has been destroyed",
		Identity: identity,
	}
}

// NewInvalidTransitionError reports an illegal instance state transition.
func NewInvalidTransitionError(identity, from, to string) *ShadowError {
	return &ShadowError{
		Type:     ErrorTypeProjection,
		Code:     CodeInvalidTransition,
		Message:  fmt.Sprintf("cannot transition instance from %s to %s", from, to),
		Identity: identity,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string, cause error) *ShadowError {
	return &ShadowError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *ShadowError {
	return &ShadowError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// HasCode reports whether err is a ShadowError carrying the given code.
func HasCode(err error, code string) bool {
	var se *ShadowError
	if errors.As(err, &se) {
		return se.Code == code
	}

	return false
}

// SlotName extracts the offending slot name from err, if any.
func SlotName(err error) string {
	var se *ShadowError
	if errors.As(err, &se) {
		return se.Slot
	}

	return ""
}

// Identity extracts the offending identity from err, if any.
func Identity(err error) string {
	var se *ShadowError
	if errors.As(err, &se) {
		return se.Identity
	}

	return ""
}
