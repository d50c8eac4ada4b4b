package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/vcgate/vcgate/pkg/config"
	"github.com/vcgate/vcgate/pkg/notify"
	"github.com/vcgate/vcgate/pkg/proto"
	"github.com/vcgate/vcgate/pkg/utils"
	"github.com/vcgate/vcgate/pkg/vcs"
)

// EventPayload is a webhook event payload.
type EventPayload interface {
	// Event returns the event type.
	Event() Event
	// RepositoryID returns the repository ID.
	RepositoryID() int64
}

// Common is the common payload of all events.
type Common struct {
	// EventType is the event type.
	EventType Event `json:"event" yaml:"event" url:"event"`
	// Action is the kind of change.
	Action notify.Action `json:"action" yaml:"action" url:"action"`
	// Repository is the event repository.
	Repository Repository `json:"repository" yaml:"repository" url:"repository"`
}

// Event returns the event type.
// Implements EventPayload.
func (c Common) Event() Event {
	return c.EventType
}

// RepositoryID returns the repository ID.
// Implements EventPayload.
func (c Common) RepositoryID() int64 {
	return c.Repository.ID
}

// Repository is an event repository.
type Repository struct {
	ID                  int64     `json:"id" yaml:"id" url:"id"`
	Name                string    `json:"name" yaml:"name" url:"name"`
	VCS                 string    `json:"vcs" yaml:"vcs" url:"vcs"`
	VCSName             string    `json:"vcs_name" yaml:"vcs_name" url:"vcs_name"`
	Root                string    `json:"root" yaml:"root" url:"root"`
	AuthorizationMethod string    `json:"authorization_method" yaml:"authorization_method" url:"authorization_method"`
	APIURL              string    `json:"api_url" yaml:"api_url" url:"api_url"`
	CreatedAt           time.Time `json:"created_at" yaml:"created_at" url:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" yaml:"updated_at" url:"updated_at"`
}

// Author is the author of an operation.
type Author struct {
	UserID   int64  `json:"user_id,omitempty" yaml:"user_id,omitempty" url:"user_id,omitempty"`
	Username string `json:"username" yaml:"username" url:"username"`
}

// Label is a branch or tag touched by an operation.
type Label struct {
	Name   string `json:"name" yaml:"name"`
	Type   string `json:"type" yaml:"type"`
	Action string `json:"action" yaml:"action"`
}

// Operation is a recorded operation.
type Operation struct {
	ID        int64     `json:"id" yaml:"id" url:"id"`
	Type      string    `json:"type" yaml:"type" url:"type"`
	Date      time.Time `json:"date" yaml:"date" url:"date"`
	Author    Author    `json:"author" yaml:"author" url:"author"`
	Committer string    `json:"committer,omitempty" yaml:"committer,omitempty" url:"committer,omitempty"`
	Message   string    `json:"message" yaml:"message" url:"message"`
	Revision  string    `json:"revision" yaml:"revision" url:"revision"`
	Directory string    `json:"directory" yaml:"directory" url:"directory"`
	Labels    []Label   `json:"labels" yaml:"labels" url:"-"`
	// Branches and Tags flatten the labels for form payloads.
	Branches []string `json:"-" yaml:"-" url:"branches,omitempty"`
	Tags     []string `json:"-" yaml:"-" url:"tags,omitempty"`
}

// Item is a file or directory touched by an operation.
type Item struct {
	Path     string `json:"path" yaml:"path"`
	Type     string `json:"type" yaml:"type"`
	Revision string `json:"revision,omitempty" yaml:"revision,omitempty"`
	Action   string `json:"action,omitempty" yaml:"action,omitempty"`
	Source   string `json:"source,omitempty" yaml:"source,omitempty"`
}

// Account is a repository account.
type Account struct {
	ID       int64  `json:"id" yaml:"id" url:"id"`
	UserID   int64  `json:"user_id,omitempty" yaml:"user_id,omitempty" url:"user_id,omitempty"`
	Username string `json:"username" yaml:"username" url:"username"`
}

// OperationEvent is a commit or branch_tag event.
type OperationEvent struct {
	Common `yaml:",inline"`

	// Operation is the recorded operation.
	Operation Operation `json:"operation" yaml:"operation" url:"operation"`
	// Items are the items touched by the operation.
	Items []Item `json:"items" yaml:"items" url:"-"`
}

// RepositoryEvent is a repository event.
type RepositoryEvent struct {
	Common `yaml:",inline"`
}

// AccountEvent is an account event.
type AccountEvent struct {
	Common `yaml:",inline"`

	// Account is the changed account.
	Account Account `json:"account" yaml:"account" url:"account"`
}

// NewEventPayload builds the webhook payload of a change notification.
func NewEventPayload(ctx context.Context, e notify.Event) (EventPayload, error) {
	if e.Repository == nil {
		return nil, fmt.Errorf("%s event without repository", e.Scope)
	}

	var publicURL string
	if cfg := config.FromContext(ctx); cfg != nil {
		publicURL = cfg.HTTP.PublicURL
	}

	common := Common{
		Action:     e.Action,
		Repository: repositoryPayload(publicURL, e.Repository),
	}

	switch e.Scope {
	case notify.ScopeOperation:
		if e.Operation == nil {
			return nil, fmt.Errorf("operation event without operation")
		}
		common.EventType = EventBranchTag
		if e.Operation.Type == proto.OperationCommit {
			common.EventType = EventCommit
		}
		items := make([]Item, len(e.Items))
		for i, it := range e.Items {
			items[i] = itemPayload(it)
		}
		return OperationEvent{
			Common:    common,
			Operation: operationPayload(e.Operation),
			Items:     items,
		}, nil
	case notify.ScopeRepository:
		common.EventType = EventRepository
		return RepositoryEvent{Common: common}, nil
	case notify.ScopeAccount:
		if e.Account == nil {
			return nil, fmt.Errorf("account event without account")
		}
		common.EventType = EventAccount
		return AccountEvent{
			Common: common,
			Account: Account{
				ID:       e.Account.ID,
				UserID:   e.Account.UserID,
				Username: e.Account.Username,
			},
		}, nil
	default:
		return nil, notify.ErrInvalidScope
	}
}

func repositoryPayload(publicURL string, r *proto.Repository) Repository {
	return Repository{
		ID:                  r.ID,
		Name:                r.Name,
		VCS:                 r.VCS,
		VCSName:             vcs.Name(r.VCS),
		Root:                r.Root,
		AuthorizationMethod: r.AuthorizationMethod,
		APIURL:              repoURL(publicURL, r.Name),
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func operationPayload(op *proto.Operation) Operation {
	p := Operation{
		ID:        op.ID,
		Type:      op.Type.String(),
		Date:      op.Date,
		Author:    Author(op.Author),
		Committer: op.Committer,
		Message:   op.Message,
		Revision:  op.Revision,
		Directory: op.Directory,
		Labels:    make([]Label, len(op.Labels)),
	}
	for i, l := range op.Labels {
		p.Labels[i] = Label{Name: l.Name, Type: l.Type.String(), Action: l.Action.String()}
		switch l.Type {
		case proto.LabelBranch:
			p.Branches = append(p.Branches, l.Name)
		case proto.LabelTag:
			p.Tags = append(p.Tags, l.Name)
		}
	}
	return p
}

func itemPayload(it proto.Item) Item {
	p := Item{
		Path:     it.Path,
		Type:     it.Type.String(),
		Revision: it.Revision,
		Action:   it.Action.String(),
	}
	if len(it.SourceItems) > 0 {
		p.Source = it.SourceItems[0].Path
	}
	return p
}

func repoURL(publicURL string, repo string) string {
	return publicURL + "/api/v1/repos/" + utils.SanitizeRepo(repo)
}
