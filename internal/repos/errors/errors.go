// Package errors defines the typed failures raised by repository operations.
//
// Callers branch on OperationError.Kind rather than parsing message text.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a repository operation failure.
type Kind string

// Failure kinds.
const (
	// KindExecutorFailure reports a git command that exited non-zero or could not run.
	KindExecutorFailure Kind = Kind("executor_failure")
	// KindPathConflict reports a clone target that already exists.
	KindPathConflict Kind = Kind("path_conflict")
	// KindBranchReadFailure reports that the current branch or the branch list could not be read.
	KindBranchReadFailure Kind = Kind("branch_read_failure")
	// KindDirtyWorkingTree reports uncommitted changes that prevented a merge.
	KindDirtyWorkingTree Kind = Kind("dirty_working_tree")
)

// Operation names the repository step that failed.
type Operation string

// Repository operations.
const (
	OperationClone         Operation = Operation("clone")
	OperationPull          Operation = Operation("pull")
	OperationFetch         Operation = Operation("fetch")
	OperationCurrentBranch Operation = Operation("current-branch")
	OperationListBranches  Operation = Operation("branch-upstream-list")
	OperationStatus        Operation = Operation("status")
	OperationMerge         Operation = Operation("merge")
	OperationRefUpdate     Operation = Operation("ref-update")
	OperationPrepare       Operation = Operation("prepare")
	OperationReconcile     Operation = Operation("reconcile")
)

const (
	operationErrorTemplateConstant        = "%s %s: %s"
	operationErrorSubjectTemplateConstant = "%s %s (%s): %s"
	messageSubjectTemplateConstant        = "%s: %s"
	unknownDetailConstant                 = "unknown error"
)

// OperationError carries the structured context of a failed repository step.
type OperationError struct {
	Kind      Kind
	Operation Operation
	Path      string
	Subject   string
	Detail    string
	Cause     error
}

// Error renders the failure with its operation and path.
func (operationError OperationError) Error() string {
	detail := operationError.detail()
	if len(operationError.Subject) > 0 {
		return fmt.Sprintf(operationErrorSubjectTemplateConstant, operationError.Operation, operationError.Path, operationError.Subject, detail)
	}
	return fmt.Sprintf(operationErrorTemplateConstant, operationError.Operation, operationError.Path, detail)
}

// Message renders the user-facing detail, prefixed with the subject branch when one is known.
func (operationError OperationError) Message() string {
	if len(operationError.Subject) > 0 {
		return fmt.Sprintf(messageSubjectTemplateConstant, operationError.Subject, operationError.detail())
	}
	return operationError.detail()
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

func (operationError OperationError) detail() string {
	trimmedDetail := strings.TrimSpace(operationError.Detail)
	if len(trimmedDetail) > 0 {
		return trimmedDetail
	}
	if operationError.Cause != nil {
		return operationError.Cause.Error()
	}
	return unknownDetailConstant
}

// KindOf returns the kind of the first OperationError in the chain.
func KindOf(err error) (Kind, bool) {
	var operationError OperationError
	if !errors.As(err, &operationError) {
		return "", false
	}
	return operationError.Kind, true
}

// IsKind reports whether the chain contains an OperationError of the given kind.
func IsKind(err error, kind Kind) bool {
	resolvedKind, found := KindOf(err)
	return found && resolvedKind == kind
}

// MessageOf returns the user-facing detail of err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var operationError OperationError
	if errors.As(err, &operationError) {
		return operationError.Message()
	}
	return err.Error()
}
