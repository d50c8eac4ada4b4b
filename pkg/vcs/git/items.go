package git

import (
	"context"
	"fmt"
	"path"
	"sort"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	"github.com/vcgate/vcgate/pkg/proto"
)

func itemPath(name string) string {
	return path.Clean("/" + name)
}

// commitItems returns the files a commit changed compared to its first
// parent. Renames are detected and become moved items.
func (r *Repository) commitItems(ctx context.Context, c *object.Commit) ([]proto.Item, error) {
	to, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("commit %s tree: %w", c.Hash, err)
	}

	var (
		from      *object.Tree
		parentRev string
	)
	if c.NumParents() > 0 {
		p, err := c.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("commit %s parent: %w", c.Hash, err)
		}
		from, err = p.Tree()
		if err != nil {
			return nil, fmt.Errorf("commit %s tree: %w", p.Hash, err)
		}
		parentRev = p.Hash.String()
	}

	changes, err := object.DiffTreeWithOptions(ctx, from, to, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("commit %s diff: %w", c.Hash, err)
	}

	rev := c.Hash.String()
	items := make([]proto.Item, 0, len(changes))
	for _, ch := range changes {
		action, err := ch.Action()
		if err != nil {
			return nil, err
		}

		switch action {
		case merkletrie.Insert:
			items = append(items, proto.Item{
				Path:     itemPath(ch.To.Name),
				Type:     proto.ItemFile,
				Revision: rev,
				Action:   proto.ActionAdded,
			})
		case merkletrie.Delete:
			items = append(items, proto.Item{
				Path:     itemPath(ch.From.Name),
				Type:     proto.ItemFileDeleted,
				Revision: rev,
				Action:   proto.ActionDeleted,
				SourceItems: []proto.Item{{
					Path:     itemPath(ch.From.Name),
					Type:     proto.ItemFile,
					Revision: parentRev,
				}},
			})
		case merkletrie.Modify:
			it := proto.Item{
				Path:     itemPath(ch.To.Name),
				Type:     proto.ItemFile,
				Revision: rev,
				Action:   proto.ActionModified,
				SourceItems: []proto.Item{{
					Path:     itemPath(ch.From.Name),
					Type:     proto.ItemFile,
					Revision: parentRev,
				}},
			}
			if ch.From.Name != ch.To.Name {
				it.Action = proto.ActionMoved
				it.Modified = ch.From.TreeEntry.Hash != ch.To.TreeEntry.Hash
			}
			items = append(items, it)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Path < items[j].Path
	})

	return items, nil
}
