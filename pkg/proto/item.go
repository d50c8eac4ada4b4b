package proto

import (
	"fmt"
	"path"
	"strings"
)

// Item is a file or directory touched by an operation.
type Item struct {
	// Path is the current path of the item, or the last one for deleted
	// items.
	Path     string   `json:"path" yaml:"path"`
	Type     ItemType `json:"type" yaml:"type"`
	Revision string   `json:"revision,omitempty" yaml:"revision,omitempty"`
	// Action is ActionNone on proposals where the backend can't tell yet.
	Action       Action `json:"action,omitempty" yaml:"action,omitempty"`
	SourceBranch string `json:"source_branch,omitempty" yaml:"source_branch,omitempty"`
	// Modified is set on moved and copied items whose content changed too.
	Modified bool `json:"modified,omitempty" yaml:"modified,omitempty"`
	// SourceItems are the previous states of the item. It is empty if and
	// only if the item was added.
	SourceItems []Item `json:"source_items,omitempty" yaml:"source_items,omitempty"`
	// ReplacedItem is an unrelated item that was deleted by moving or
	// copying this one over it.
	ReplacedItem *Item `json:"replaced_item,omitempty" yaml:"replaced_item,omitempty"`
}

// NewItem returns a validated item.
func NewItem(p string, typ ItemType, action Action, sources ...Item) (Item, error) {
	it := Item{
		Path:        p,
		Type:        typ,
		Action:      action,
		SourceItems: sources,
	}
	if err := it.Validate(); err != nil {
		return Item{}, err
	}
	return it, nil
}

// Validate checks the item and its source and replaced items.
func (i Item) Validate() error {
	if i.Path == "" {
		return fmt.Errorf("%w: item without path", ErrMalformedOperation)
	}
	if !i.Type.Valid() {
		return fmt.Errorf("%w: item %q: %v", ErrMalformedOperation, i.Path, ErrInvalidItemType)
	}
	if !i.Action.Valid() {
		return fmt.Errorf("%w: item %q: %v", ErrMalformedOperation, i.Path, ErrInvalidAction)
	}
	if i.Action != ActionNone {
		added := i.Action == ActionAdded
		if added && len(i.SourceItems) > 0 {
			return fmt.Errorf("%w: added item %q has source items", ErrInvalidSourceItems, i.Path)
		}
		if !added && len(i.SourceItems) == 0 {
			return fmt.Errorf("%w: %s item %q has no source items", ErrInvalidSourceItems, i.Action, i.Path)
		}
	}
	for _, src := range i.SourceItems {
		if err := src.Validate(); err != nil {
			return err
		}
	}
	if i.ReplacedItem != nil {
		if i.Action != ActionMoved && i.Action != ActionCopied {
			return fmt.Errorf("%w: %s item %q replaces an item", ErrMalformedOperation, i.Action, i.Path)
		}
		if err := i.ReplacedItem.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// CommonDirectory returns the deepest directory containing every item.
// Directory items count as their own path. It returns an empty string when
// there are no items.
func CommonDirectory(items []Item) string {
	if len(items) == 0 {
		return ""
	}

	abs := true
	var common []string
	for i, it := range items {
		p := it.Path
		if !strings.HasPrefix(p, "/") {
			abs = false
		}
		p = path.Clean("/" + p)
		if !it.Type.IsDirectory() {
			p = path.Dir(p)
		}
		parts := splitPath(p)
		if i == 0 {
			common = parts
			continue
		}
		n := 0
		for n < len(common) && n < len(parts) && common[n] == parts[n] {
			n++
		}
		common = common[:n]
	}

	dir := strings.Join(common, "/")
	if abs {
		return "/" + dir
	}
	if dir == "" {
		return "."
	}
	return dir
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
