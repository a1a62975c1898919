package recent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromote(t *testing.T) {
	entries := []Entry{{Path: "/a"}, {Path: "/b"}, {Path: "/c"}}

	got := Promote(entries, Entry{Path: "/b", Chapter: 4}, 0)
	assert.Equal(t, []Entry{{Path: "/b", Chapter: 4}, {Path: "/a"}, {Path: "/c"}}, got)

	got = Promote(entries, Entry{Path: "/d"}, 2)
	assert.Equal(t, []Entry{{Path: "/d"}, {Path: "/a"}}, got)

	assert.Equal(t, []Entry{{Path: "/x"}}, Promote(nil, Entry{Path: "/x"}, 5))
}
