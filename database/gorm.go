package database

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TreeNode is the row layout backing GormTree. Only leaves are stored.
type TreeNode struct {
	Path      string         `gorm:"primaryKey;size:512"`
	Parent    string         `gorm:"index;size:512;not null"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

func (TreeNode) TableName() string { return "tree_nodes" }

// GormTree stores the tree in a relational database through gorm.
type GormTree struct {
	db *gorm.DB
}

func NewGormTree(db *gorm.DB) *GormTree {
	return &GormTree{db: db}
}

// Migrate creates the backing table.
func (t *GormTree) Migrate() error {
	return t.db.AutoMigrate(&TreeNode{})
}

func (t *GormTree) Get(ctx context.Context, path string, out any) (bool, error) {
	path, err := Clean(path)
	if err != nil {
		return false, err
	}
	var node TreeNode
	err = t.db.WithContext(ctx).Where("path = ?", path).First(&node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(node.Value, out)
}

func (t *GormTree) Set(ctx context.Context, path string, value any) error {
	return t.Update(ctx, map[string]any{path: value})
}

func (t *GormTree) Push(ctx context.Context, parent string, value any) (string, error) {
	key, err := newPushKey()
	if err != nil {
		return "", err
	}
	if err := t.Set(ctx, Join(parent, key), value); err != nil {
		return "", err
	}
	return key, nil
}

func (t *GormTree) Remove(ctx context.Context, path string) error {
	return t.Update(ctx, map[string]any{path: nil})
}

func (t *GormTree) List(ctx context.Context, prefix string) ([]Node, error) {
	prefix, err := Clean(prefix)
	if err != nil {
		return nil, err
	}
	var rows []TreeNode
	err = t.db.WithContext(ctx).
		Where("path LIKE ? ESCAPE '\\'", escapeLike(prefix)+"/%").
		Order("path").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, len(rows))
	for i, r := range rows {
		nodes[i] = Node{Path: r.Path, Value: json.RawMessage(r.Value)}
	}
	return nodes, nil
}

func (t *GormTree) Update(ctx context.Context, values map[string]any) error {
	writes, err := encodeWrites(values)
	if err != nil {
		return err
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, w := range writes {
			err := tx.Where("path = ? OR path LIKE ? ESCAPE '\\'", w.path, escapeLike(w.path)+"/%").
				Delete(&TreeNode{}).Error
			if err != nil {
				return err
			}
			var ancestors []string
			for a := Parent(w.path); a != ""; a = Parent(a) {
				ancestors = append(ancestors, a)
			}
			if len(ancestors) > 0 {
				if err := tx.Where("path IN ?", ancestors).Delete(&TreeNode{}).Error; err != nil {
					return err
				}
			}
			if w.value == nil {
				continue
			}
			node := TreeNode{Path: w.path, Parent: Parent(w.path), Value: datatypes.JSON(w.value)}
			if err := tx.Create(&node).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
