package models

import "fmt"

// TargetKind distinguishes the two things a vote or report can point at.
type TargetKind uint8

const (
	TargetPost TargetKind = iota + 1
	TargetComment
)

func (k TargetKind) String() string {
	switch k {
	case TargetPost:
		return "post"
	case TargetComment:
		return "comment"
	default:
		return "unknown"
	}
}

// ParseTargetKind accepts the route segment form ("post", "comment").
func ParseTargetKind(s string) (TargetKind, bool) {
	switch s {
	case "post":
		return TargetPost, true
	case "comment":
		return TargetComment, true
	}
	return 0, false
}

// Target is either Post(id) or Comment(id). The zero value is invalid.
type Target struct {
	kind TargetKind
	id   string
}

func PostTarget(id string) Target    { return Target{kind: TargetPost, id: id} }
func CommentTarget(id string) Target { return Target{kind: TargetComment, id: id} }

func (t Target) Kind() TargetKind { return t.kind }
func (t Target) ID() string       { return t.id }
func (t Target) IsPost() bool     { return t.kind == TargetPost }
func (t Target) IsComment() bool  { return t.kind == TargetComment }
func (t Target) Valid() bool      { return t.kind != 0 && t.id != "" }

func (t Target) String() string {
	return fmt.Sprintf("%s:%s", t.kind, t.id)
}

// refs maps the target onto the two nullable foreign keys used by Vote and Report.
func (t Target) refs() (postID, commentID *string) {
	id := t.id
	if t.kind == TargetPost {
		return &id, nil
	}
	return nil, &id
}

func targetFromRefs(postID, commentID *string) Target {
	if postID != nil {
		return PostTarget(*postID)
	}
	if commentID != nil {
		return CommentTarget(*commentID)
	}
	return Target{}
}
