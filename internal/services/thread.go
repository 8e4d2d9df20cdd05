package services

import (
	"babel/internal/models"
	"babel/internal/utils"
)

// CommentNode is one comment with its replies. A node whose own comment is
// not visible is kept only as a placeholder for visible replies.
type CommentNode struct {
	models.Comment
	Deleted bool           `json:"deleted"`
	Replies []*CommentNode `json:"replies"`
}

// buildThread turns a post's comments, oldest first, into a forest.
// Comments whose parent is missing are shown at the top level.
func buildThread(comments []models.Comment, threshold int) []*CommentNode {
	nodes := make(map[string]*CommentNode, len(comments))
	for i := range comments {
		nodes[comments[i].ID] = &CommentNode{Comment: comments[i], Replies: []*CommentNode{}}
	}

	var roots []*CommentNode
	for i := range comments {
		n := nodes[comments[i].ID]
		if pid := n.ParentID; pid != nil {
			if parent, ok := nodes[*pid]; ok && parent != n {
				parent.Replies = append(parent.Replies, n)
				continue
			}
		}
		roots = append(roots, n)
	}

	return pruneNodes(roots, threshold)
}

func pruneNodes(nodes []*CommentNode, threshold int) []*CommentNode {
	kept := make([]*CommentNode, 0, len(nodes))
	for _, n := range nodes {
		n.Replies = pruneNodes(n.Replies, threshold)
		if utils.IsVisible(n.Hidden, n.ReportCount, threshold) {
			kept = append(kept, n)
			continue
		}
		if len(n.Replies) == 0 {
			continue
		}
		// 占位节点：保留结构，清空内容
		n.Deleted = true
		n.Text = ""
		n.UserID = ""
		n.Username = ""
		kept = append(kept, n)
	}
	return kept
}

// walkThread visits every node depth first.
func walkThread(nodes []*CommentNode, fn func(*CommentNode)) {
	for _, n := range nodes {
		fn(n)
		walkThread(n.Replies, fn)
	}
}
