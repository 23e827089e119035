package viewmap

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientView(t *testing.T) {
	view, err := ClientView("//depot/main", "jenkins-main")
	require.NoError(t, err)
	assert.Equal(t, "//depot/main/... //jenkins-main/...", view)
}

func TestClientView_TrailingSlash(t *testing.T) {
	view, err := ClientView("//depot/main/", "c")
	require.NoError(t, err)
	assert.Equal(t, "//depot/main/... //c/...", view)
}

func TestClientView_MissingPath(t *testing.T) {
	_, err := ClientView("", "c")
	assert.ErrorIs(t, err, ErrMissingPath)

	_, err = ClientView("   ", "c")
	assert.ErrorIs(t, err, ErrMissingPath)
}

func TestClientView_MissingClient(t *testing.T) {
	_, err := ClientView("//depot/main", "")
	assert.ErrorIs(t, err, ErrMissingClient)
}

func TestClientView_Pure(t *testing.T) {
	a, err := ClientView("//depot/main", "c1")
	require.NoError(t, err)
	b, err := ClientView("//depot/main", "c1")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestClientViews_OrderPreserved(t *testing.T) {
	lines, err := ClientViews([]string{"//depot/a", "//depot/b"}, "c")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "//depot/a/... //c/...", lines[0])
	assert.Equal(t, "//depot/b/... //c/...", lines[1])
}

func TestClientViews_FailsOnAnyBadPath(t *testing.T) {
	_, err := ClientViews([]string{"//depot/a", ""}, "c")
	assert.ErrorIs(t, err, ErrMissingPath)
}

func TestResolveCharset(t *testing.T) {
	got, err := ResolveCharset("")
	require.NoError(t, err)
	assert.Equal(t, "UTF-8", got)

	got, err = ResolveCharset("utf-8")
	require.NoError(t, err)
	assert.Equal(t, "UTF-8", got)

	got, err = ResolveCharset("iso-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "ISO-8859-1", got)
}

func TestResolveCharset_Unknown(t *testing.T) {
	_, err := ResolveCharset("sideways-9")
	assert.Error(t, err)
}

func TestResolveCharset_DoesNotAffectView(t *testing.T) {
	// Charset is workspace metadata only - the mapping content is
	// identical regardless of encoding.
	view1, err := ClientView("//depot/main", "c")
	require.NoError(t, err)

	_, err = ResolveCharset("iso-8859-1")
	require.NoError(t, err)

	view2, err := ClientView("//depot/main", "c")
	require.NoError(t, err)
	assert.Equal(t, view1, view2)
}

func TestClientViews_Golden(t *testing.T) {
	lines, err := ClientViews([]string{
		"//depot/main",
		"//depot/dev/feature-x/",
		"//streams/rel-1.0",
	}, "jenkins-node-job")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "client_views", []byte(strings.Join(lines, "\n")+"\n"))
}
