package permission

import "errors"

// ErrDenied is returned by every policy rejection.
var ErrDenied = errors.New("permission denied")

// Operation names the action being attempted on a resource.
type Operation string

const (
	OperationRead   Operation = "read"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Principal is the minimal authenticated-identity view a policy needs:
// who is acting, and whether they hold the admin bit.
type Principal struct {
	ID    int64
	Admin bool
}

// Policy decides whether a principal may perform an operation on a target
// resource. Implementations must be side-effect free.
type Policy interface {
	Check(principal Principal, targetResourceID int64, op Operation) error
}

// AdminOnly permits admins and denies everyone else, regardless of
// target or operation.
type AdminOnly struct{}

func (AdminOnly) Check(principal Principal, _ int64, _ Operation) error {
	if !principal.Admin {
		return ErrDenied
	}
	return nil
}

// SelfOrAdmin permits admins unconditionally and non-admins only when the
// target resource is their own principal id.
type SelfOrAdmin struct{}

func (SelfOrAdmin) Check(principal Principal, targetResourceID int64, _ Operation) error {
	if principal.Admin {
		return nil
	}
	if principal.ID != targetResourceID {
		return ErrDenied
	}
	return nil
}
