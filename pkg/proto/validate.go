package proto

import (
	"fmt"
)

// ValidateOperation checks op and its items against the operation model.
// Branch and tag operations with more than one label fail with
// ErrInvalidLabelCount, items disagreeing with their actions with
// ErrInvalidSourceItems, and anything else with ErrMalformedOperation.
func ValidateOperation(op *Operation, items []Item) error {
	if op == nil {
		return fmt.Errorf("%w: nil operation", ErrMalformedOperation)
	}
	if !op.Type.Valid() {
		return fmt.Errorf("%w: %v", ErrMalformedOperation, ErrInvalidOperationType)
	}
	if op.Repository == nil {
		return fmt.Errorf("%w: missing repository", ErrMalformedOperation)
	}
	if op.Author.Username == "" {
		return fmt.Errorf("%w: missing author", ErrMalformedOperation)
	}
	if !op.IsProposal() && op.Date.IsZero() {
		return fmt.Errorf("%w: recorded operation %d without date", ErrMalformedOperation, op.ID)
	}
	if op.ID < 0 {
		return fmt.Errorf("%w: negative id", ErrMalformedOperation)
	}

	if op.Type != OperationCommit && len(op.Labels) > 1 {
		return fmt.Errorf("%w: %s operation has %d labels", ErrInvalidLabelCount, op.Type, len(op.Labels))
	}
	for _, l := range op.Labels {
		if l.Name == "" {
			return fmt.Errorf("%w: label without name", ErrMalformedOperation)
		}
		if !l.Type.Valid() {
			return fmt.Errorf("%w: label %q: %v", ErrMalformedOperation, l.Name, ErrInvalidLabelType)
		}
		if !l.Action.ValidForLabel() {
			return fmt.Errorf("%w: label %q: %v", ErrMalformedOperation, l.Name, ErrInvalidAction)
		}
		switch {
		case op.Type == OperationBranch && l.Type != LabelBranch,
			op.Type == OperationTag && l.Type != LabelTag:
			return fmt.Errorf("%w: %s operation with %s label %q", ErrMalformedOperation, op.Type, l.Type, l.Name)
		}
	}

	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
	}

	return nil
}
