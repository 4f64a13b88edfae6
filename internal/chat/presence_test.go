package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresenceAddRemoveIdempotent(t *testing.T) {
	p := newPresence()

	p.add("u1")
	p.add("u1")
	assert.True(t, p.Online("u1"))
	assert.Equal(t, 1, p.Len())

	p.remove("u1")
	p.remove("u1")
	assert.False(t, p.Online("u1"))
	assert.Equal(t, 0, p.Len())

	// Removing an absent id is a no-op.
	p.remove("ghost")
	assert.Equal(t, 0, p.Len())
}

func TestPresenceReplaceAll(t *testing.T) {
	p := newPresence()
	p.add("u1")
	p.add("u2")

	p.replaceAll([]string{"u3", "u4", "u4"})

	assert.False(t, p.Online("u1"))
	assert.False(t, p.Online("u2"))
	assert.Equal(t, []string{"u3", "u4"}, p.List())
}

func TestPresenceFoldInArrivalOrder(t *testing.T) {
	type op struct {
		kind string
		arg  string
		list []string
	}
	ops := []op{
		{kind: "add", arg: "a"},
		{kind: "add", arg: "b"},
		{kind: "remove", arg: "a"},
		{kind: "replace", list: []string{"c", "d"}},
		{kind: "add", arg: "d"},
		{kind: "remove", arg: "c"},
		{kind: "add", arg: "e"},
	}

	p := newPresence()
	want := map[string]bool{}
	for _, o := range ops {
		switch o.kind {
		case "add":
			p.add(o.arg)
			want[o.arg] = true
		case "remove":
			p.remove(o.arg)
			delete(want, o.arg)
		case "replace":
			p.replaceAll(o.list)
			want = map[string]bool{}
			for _, u := range o.list {
				want[u] = true
			}
		}
	}

	assert.Equal(t, len(want), p.Len())
	for u := range want {
		assert.True(t, p.Online(u), "expected %s online", u)
	}
}
