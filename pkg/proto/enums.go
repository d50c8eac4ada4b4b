package proto

import (
	"encoding"
	"errors"
	"fmt"
)

// OperationType is the kind of an operation.
type OperationType int

const (
	// OperationCommit is a commit.
	OperationCommit OperationType = iota
	// OperationBranch creates, renames or deletes a branch.
	OperationBranch
	// OperationTag creates, moves or deletes a tag.
	OperationTag
)

var operationTypeNames = []string{"commit", "branch", "tag"}

// String returns the string representation of the operation type.
func (t OperationType) String() string {
	return enumString(operationTypeNames, int(t))
}

// ParseOperationType parses an operation type string. It returns -1 for
// unknown values.
func ParseOperationType(s string) OperationType {
	return OperationType(enumParse(operationTypeNames, s))
}

// Valid reports whether t is a known operation type.
func (t OperationType) Valid() bool {
	return t >= 0 && int(t) < len(operationTypeNames)
}

// MarshalText implements encoding.TextMarshaler.
func (t OperationType) MarshalText() ([]byte, error) {
	return enumMarshal(t, t.Valid())
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *OperationType) UnmarshalText(text []byte) error {
	v := ParseOperationType(string(text))
	if v < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidOperationType, text)
	}
	*t = v
	return nil
}

// LabelType is the kind of a label.
type LabelType int

const (
	// LabelBranch is a branch.
	LabelBranch LabelType = iota
	// LabelTag is a tag.
	LabelTag
)

var labelTypeNames = []string{"branch", "tag"}

// String returns the string representation of the label type.
func (t LabelType) String() string {
	return enumString(labelTypeNames, int(t))
}

// ParseLabelType parses a label type string. It returns -1 for unknown
// values.
func ParseLabelType(s string) LabelType {
	return LabelType(enumParse(labelTypeNames, s))
}

// Valid reports whether t is a known label type.
func (t LabelType) Valid() bool {
	return t >= 0 && int(t) < len(labelTypeNames)
}

// MarshalText implements encoding.TextMarshaler.
func (t LabelType) MarshalText() ([]byte, error) {
	return enumMarshal(t, t.Valid())
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *LabelType) UnmarshalText(text []byte) error {
	v := ParseLabelType(string(text))
	if v < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidLabelType, text)
	}
	*t = v
	return nil
}

// Action is what an operation did to a label or an item.
type Action int

const (
	// ActionNone means the action is not known yet. Only proposal items
	// may leave it unset.
	ActionNone Action = iota
	// ActionAdded means the label or item was created.
	ActionAdded
	// ActionModified means the label or item was changed in place.
	ActionModified
	// ActionDeleted means the label or item was removed.
	ActionDeleted
	// ActionMoved means the item was moved from its source item.
	ActionMoved
	// ActionCopied means the item was copied from its source item.
	ActionCopied
)

var actionNames = []string{"", "added", "modified", "deleted", "moved", "copied"}

// String returns the string representation of the action.
func (a Action) String() string {
	return enumString(actionNames, int(a))
}

// ParseAction parses an action string. The empty string parses as
// ActionNone. It returns -1 for unknown values.
func ParseAction(s string) Action {
	return Action(enumParse(actionNames, s))
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	return a >= 0 && int(a) < len(actionNames)
}

// ValidForLabel reports whether a can be applied to a label.
func (a Action) ValidForLabel() bool {
	return a == ActionAdded || a == ActionModified || a == ActionDeleted
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return enumMarshal(a, a.Valid())
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	v := ParseAction(string(text))
	if v < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidAction, text)
	}
	*a = v
	return nil
}

// ItemType is the kind of an item.
type ItemType int

const (
	// ItemFile is a file.
	ItemFile ItemType = iota
	// ItemDirectory is a directory.
	ItemDirectory
	// ItemFileDeleted is a file that no longer exists.
	ItemFileDeleted
	// ItemDirectoryDeleted is a directory that no longer exists.
	ItemDirectoryDeleted
)

var itemTypeNames = []string{"file", "directory", "file-deleted", "directory-deleted"}

// String returns the string representation of the item type.
func (t ItemType) String() string {
	return enumString(itemTypeNames, int(t))
}

// ParseItemType parses an item type string. It returns -1 for unknown
// values.
func ParseItemType(s string) ItemType {
	return ItemType(enumParse(itemTypeNames, s))
}

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	return t >= 0 && int(t) < len(itemTypeNames)
}

// IsDeleted reports whether t denotes an item that no longer exists.
func (t ItemType) IsDeleted() bool {
	return t == ItemFileDeleted || t == ItemDirectoryDeleted
}

// IsDirectory reports whether t denotes a directory.
func (t ItemType) IsDirectory() bool {
	return t == ItemDirectory || t == ItemDirectoryDeleted
}

// MarshalText implements encoding.TextMarshaler.
func (t ItemType) MarshalText() ([]byte, error) {
	return enumMarshal(t, t.Valid())
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ItemType) UnmarshalText(text []byte) error {
	v := ParseItemType(string(text))
	if v < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidItemType, text)
	}
	*t = v
	return nil
}

var (
	_ encoding.TextMarshaler   = OperationType(0)
	_ encoding.TextUnmarshaler = (*OperationType)(nil)
	_ encoding.TextMarshaler   = LabelType(0)
	_ encoding.TextUnmarshaler = (*LabelType)(nil)
	_ encoding.TextMarshaler   = Action(0)
	_ encoding.TextUnmarshaler = (*Action)(nil)
	_ encoding.TextMarshaler   = ItemType(0)
	_ encoding.TextUnmarshaler = (*ItemType)(nil)
)

var (
	// ErrInvalidOperationType is returned when an invalid operation type is provided.
	ErrInvalidOperationType = errors.New("invalid operation type")
	// ErrInvalidLabelType is returned when an invalid label type is provided.
	ErrInvalidLabelType = errors.New("invalid label type")
	// ErrInvalidAction is returned when an invalid action is provided.
	ErrInvalidAction = errors.New("invalid action")
	// ErrInvalidItemType is returned when an invalid item type is provided.
	ErrInvalidItemType = errors.New("invalid item type")
)

func enumString(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return "unknown"
	}
	return names[v]
}

func enumParse(names []string, s string) int {
	for i, n := range names {
		if n == s {
			return i
		}
	}
	return -1
}

func enumMarshal(v fmt.Stringer, ok bool) ([]byte, error) {
	if !ok {
		return nil, fmt.Errorf("cannot marshal %d", v)
	}
	return []byte(v.String()), nil
}
