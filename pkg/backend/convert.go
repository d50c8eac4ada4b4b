package backend

import (
	"fmt"

	"github.com/vcgate/vcgate/pkg/db/models"
	"github.com/vcgate/vcgate/pkg/proto"
)

func repoFromModel(m models.Repo) (*proto.Repository, error) {
	data, err := proto.DecodeExtraData(m.Data)
	if err != nil {
		return nil, fmt.Errorf("repository %q: %w", m.Name, err)
	}

	return &proto.Repository{
		ID:                  m.ID,
		Name:                m.Name,
		VCS:                 m.VCS,
		Root:                m.Root,
		AuthorizationMethod: m.AuthorizationMethod,
		Data:                data,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}, nil
}

func accountFromModel(m models.Account) (*proto.Account, error) {
	data, err := proto.DecodeExtraData(m.Data)
	if err != nil {
		return nil, fmt.Errorf("account %q: %w", m.Username, err)
	}

	return &proto.Account{
		ID:        m.ID,
		RepoID:    m.RepoID,
		UserID:    m.UserID.Int64,
		Username:  m.Username,
		Data:      data,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

func userFromModel(m models.User) *proto.User {
	return &proto.User{
		ID:        m.ID,
		Username:  m.Username,
		Admin:     m.Admin,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func operationFromModel(m models.Operation, repo *proto.Repository, labels []models.OperationLabel) *proto.Operation {
	op := &proto.Operation{
		ID:         m.ID,
		Type:       proto.OperationType(m.Type),
		Repository: repo,
		Date:       m.Date,
		Author: proto.Author{
			UserID:   m.AuthorID.Int64,
			Username: m.Author,
		},
		Committer: m.Committer,
		Message:   m.Message,
		Revision:  m.Revision,
		Directory: m.Directory,
		Labels:    make([]proto.Label, len(labels)),
	}
	for i, l := range labels {
		op.Labels[i] = proto.Label{
			ID:     l.LabelID,
			Name:   l.Name,
			Type:   proto.LabelType(l.Type),
			Action: proto.Action(l.Action),
		}
	}
	return op
}

func itemFromModel(m models.OperationItem) proto.Item {
	return proto.Item{
		Path:         m.Path,
		Type:         proto.ItemType(m.Type),
		Revision:     m.Revision,
		Action:       proto.Action(m.Action),
		SourceBranch: m.SourceBranch,
		Modified:     m.Modified,
	}
}

// itemsFromModels rebuilds the item trees of an operation. Rows are in
// insertion order so parents always come before their children.
func itemsFromModels(ms []models.OperationItem) []proto.Item {
	type node struct {
		item     proto.Item
		sources  []int64
		replaced int64
	}

	nodes := make(map[int64]*node, len(ms))
	var roots []int64
	for _, m := range ms {
		nodes[m.ID] = &node{item: itemFromModel(m)}
		if !m.ParentID.Valid {
			roots = append(roots, m.ID)
			continue
		}
		parent, ok := nodes[m.ParentID.Int64]
		if !ok {
			continue
		}
		switch m.Role {
		case models.ItemRoleSource:
			parent.sources = append(parent.sources, m.ID)
		case models.ItemRoleReplaced:
			parent.replaced = m.ID
		}
	}

	var build func(id int64) proto.Item
	build = func(id int64) proto.Item {
		n := nodes[id]
		it := n.item
		for _, s := range n.sources {
			it.SourceItems = append(it.SourceItems, build(s))
		}
		if n.replaced != 0 {
			r := build(n.replaced)
			it.ReplacedItem = &r
		}
		return it
	}

	items := make([]proto.Item, len(roots))
	for i, id := range roots {
		items[i] = build(id)
	}
	return items
}
