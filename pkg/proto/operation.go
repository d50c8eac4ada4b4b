package proto

import (
	"time"
)

// Author is the raw VCS username of whoever performed an operation, and
// the registry user it resolves to, if any.
type Author struct {
	// UserID is the resolved registry user. Zero means unresolved.
	UserID int64 `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	// Username is the VCS username.
	Username string `json:"username" yaml:"username"`
}

// Resolved reports whether the author is bound to a registry user.
func (a Author) Resolved() bool {
	return a.UserID > 0
}

// Label is a branch or a tag touched by an operation.
type Label struct {
	ID     int64     `json:"id,omitempty" yaml:"id,omitempty"`
	Name   string    `json:"name" yaml:"name"`
	Type   LabelType `json:"type" yaml:"type"`
	Action Action    `json:"action" yaml:"action"`
}

// Operation is a single commit, branch or tag event in a repository.
//
// An operation with a zero ID is a proposal: it has not been recorded yet.
type Operation struct {
	ID         int64         `json:"id,omitempty" yaml:"id,omitempty"`
	Type       OperationType `json:"type" yaml:"type"`
	Repository *Repository   `json:"repository,omitempty" yaml:"repository,omitempty"`
	Date       time.Time     `json:"date,omitempty" yaml:"date,omitempty"`
	Author     Author        `json:"author" yaml:"author"`
	// Committer is the name the VCS records for whoever created the
	// change, such as a git commit author. It may differ from the author,
	// who is the account that submitted the operation.
	Committer string `json:"committer,omitempty" yaml:"committer,omitempty"`
	// Message is empty when the backend has no message for this kind of
	// operation.
	Message string `json:"message" yaml:"message"`
	// Revision is the repository-wide revision, empty when the backend
	// doesn't have atomic commits.
	Revision  string  `json:"revision" yaml:"revision"`
	Directory string  `json:"directory,omitempty" yaml:"directory,omitempty"`
	Labels    []Label `json:"labels" yaml:"labels"`
}

// IsProposal reports whether the operation has not been recorded yet.
func (o *Operation) IsProposal() bool {
	return o.ID == 0
}

// RepositoryName returns the name of the operation repository or an empty
// string.
func (o *Operation) RepositoryName() string {
	if o.Repository == nil {
		return ""
	}
	return o.Repository.Name
}

// LabelsOf returns the operation labels of type t.
func (o *Operation) LabelsOf(t LabelType) []Label {
	var ls []Label
	for _, l := range o.Labels {
		if l.Type == t {
			ls = append(ls, l)
		}
	}
	return ls
}
