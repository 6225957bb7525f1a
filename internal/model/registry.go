package model

// User is addressed by its email, which doubles as the document's
// primary identifier. The password field stores a salted digest and is
// excluded from the export view.
var User = Descriptor{
	Name:       "user",
	NaturalKey: "email",
	Fields: []Field{
		{Name: "email", Kind: KindString, Required: true},
		{Name: "handle", Kind: KindString, Required: true},
		{Name: "password", Kind: KindString, Required: true},
	},
	Export: []string{"email", "handle"},
}

// Post is a blog entry. The author field references a User by email;
// author_handle is resolved from it at export time and id is the hex of
// the generated ObjectID.
var Post = Descriptor{
	Name: "post",
	Fields: []Field{
		{Name: "title", Kind: KindString, Required: true},
		{Name: "body", Kind: KindString, Required: true},
		{Name: "summary", Kind: KindString, Required: true},
		{Name: "date", Kind: KindTimestamp, Required: true},
		{Name: "author", Kind: KindReference, Required: true},
		{Name: "active", Kind: KindBool, Default: false},
	},
	Export: []string{"id", "date", "title", "body", "summary", "active", "author_handle"},
}

// Comment is feedback on a post.
var Comment = Descriptor{
	Name: "comment",
	Fields: []Field{
		{Name: "author", Kind: KindReference, Required: true},
		{Name: "date", Kind: KindTimestamp, Required: true},
		{Name: "body", Kind: KindString, Required: true},
	},
	Export: []string{"date", "body", "author"},
}

// Registered lists every model the resource router and the discovery
// endpoint know about, in presentation order.
var Registered = []Descriptor{Post, Comment, User}
