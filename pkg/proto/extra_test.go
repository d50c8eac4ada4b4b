package proto

import (
	"context"
	"testing"

	"github.com/matryer/is"
)

func TestExtraData(t *testing.T) {
	is := is.New(t)

	type approval struct {
		Approved bool `json:"approved"`
	}

	d := ExtraData{}
	is.True(!d.Has("approval"))
	is.NoErr(d.Set("approval", approval{Approved: true}))
	is.True(d.Has("approval"))

	s, err := d.Encode()
	is.NoErr(err)
	is.Equal(s, `{"approval":{"approved":true}}`)

	d2, err := DecodeExtraData(s)
	is.NoErr(err)
	var a approval
	ok, err := d2.Get("approval", &a)
	is.NoErr(err)
	is.True(ok)
	is.True(a.Approved)

	ok, err = d2.Get("missing", &a)
	is.NoErr(err)
	is.True(!ok)

	empty, err := DecodeExtraData("")
	is.NoErr(err)
	is.Equal(len(empty), 0)

	_, err = DecodeExtraData("{")
	is.True(err != nil)
}

func TestContext(t *testing.T) {
	is := is.New(t)
	ctx := context.TODO()
	is.Equal(RepositoryFromContext(ctx), nil)
	is.Equal(UserFromContext(ctx), nil)

	r := &Repository{Name: "drupal"}
	u := &User{Username: "dries"}
	ctx = WithRepositoryContext(ctx, r)
	ctx = WithUserContext(ctx, u)
	is.Equal(RepositoryFromContext(ctx), r)
	is.Equal(UserFromContext(ctx), u)
}
