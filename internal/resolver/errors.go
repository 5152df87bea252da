package resolver

import (
	"errors"
	"fmt"
)

// Reason classifies an InstallError.
type Reason int

const (
	ReasonCoreExtension Reason = iota + 1
	ReasonUnsupportedType
	ReasonCyclicDependency
	ReasonUnresolvedDependency
	ReasonInvalidRequest
)

// Sentinels matching each Reason through errors.Is.
var (
	ErrCoreExtension        = errors.New("provided by a core extension")
	ErrUnsupportedType      = errors.New("unsupported extension type")
	ErrCyclicDependency     = errors.New("cyclic dependency")
	ErrUnresolvedDependency = errors.New("unresolved dependency")
	ErrInvalidRequest       = errors.New("invalid request")
)

func (r Reason) sentinel() error {
	switch r {
	case ReasonCoreExtension:
		return ErrCoreExtension
	case ReasonUnsupportedType:
		return ErrUnsupportedType
	case ReasonCyclicDependency:
		return ErrCyclicDependency
	case ReasonUnresolvedDependency:
		return ErrUnresolvedDependency
	case ReasonInvalidRequest:
		return ErrInvalidRequest
	default:
		return nil
	}
}

func (r Reason) String() string {
	if s := r.sentinel(); s != nil {
		return s.Error()
	}
	return "unknown"
}

// InstallError aborts a planning run. Both the reason sentinel and the
// underlying cause are reachable with errors.Is and errors.As.
type InstallError struct {
	Reason    Reason
	ID        string
	Namespace string
	Err       error
}

func (e *InstallError) Error() string {
	msg := fmt.Sprintf("cannot install %s", e.ID)
	if e.Namespace != "" {
		msg += fmt.Sprintf(" on namespace %s", e.Namespace)
	}
	msg += ": " + e.Reason.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InstallError) Unwrap() []error {
	var errs []error
	if s := e.Reason.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func installError(reason Reason, id, namespace string, err error) *InstallError {
	return &InstallError{Reason: reason, ID: id, Namespace: namespace, Err: err}
}
