package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTag(t *testing.T) {
	cases := []struct {
		tag  string
		want []map[string]string
	}{
		{"", nil},
		{"name=id", []map[string]string{{"name": "id"}}},
		{
			"name=id;name=identifier,group=legacy",
			[]map[string]string{{"name": "id"}, {"name": "identifier", "group": "legacy"}},
		},
		{"skipEmpty type=object", []map[string]string{{"skipEmpty": "", "type": "object"}}},
		{
			"type=datetime,format='2006-01-02 15:04:05'",
			[]map[string]string{{"type": "datetime", "format": "2006-01-02 15:04:05"}},
		},
		{`name="a;b"`, []map[string]string{{"name": "a;b"}}},
		{" ; ;name=x; ", []map[string]string{{"name": "x"}}},
	}
	for _, c := range cases {
		got, err := ParseTag(c.tag)
		require.NoError(t, err, c.tag)
		assert.Equal(t, c.want, got, c.tag)
	}

	_, err := ParseTag("=x")
	assert.Error(t, err)
}

func TestMemberDirectivesFromTag(t *testing.T) {
	directives, ignored, err := memberDirectivesFromTag("name=born,type=DateTime,format=2006,group=a|b,maxDepth=2,callback=Born,skipEmpty")
	require.NoError(t, err)
	assert.False(t, ignored)
	require.Len(t, directives, 1)
	d := directives[0]
	assert.Equal(t, "born", d.Name)
	assert.Equal(t, TypeDatetime, d.Type)
	assert.Equal(t, "2006", d.Format)
	assert.Equal(t, []string{"a", "b"}, d.Groups)
	require.NotNil(t, d.MaxDepth)
	assert.Equal(t, 2, *d.MaxDepth)
	assert.Equal(t, "Born", d.Callback)
	assert.True(t, d.SkipEmpty)

	directives, _, err = memberDirectivesFromTag("skipEmpty=false")
	require.NoError(t, err)
	assert.False(t, directives[0].SkipEmpty)

	directives, ignored, err = memberDirectivesFromTag("")
	require.NoError(t, err)
	assert.False(t, ignored)
	assert.Equal(t, []MemberDirective{{}}, directives)

	directives, ignored, err = memberDirectivesFromTag("-")
	require.NoError(t, err)
	assert.True(t, ignored)
	assert.Empty(t, directives)

	directives, _, err = memberDirectivesFromTag("inherit")
	require.NoError(t, err)
	assert.True(t, directives[0].IsInherit())

	for _, tag := range []string{"type=weird", "maxDepth=x", "colour=red"} {
		_, _, err = memberDirectivesFromTag(tag)
		assert.Error(t, err, tag)
	}
}

func TestClassDirectiveFromTag(t *testing.T) {
	d, err := classDirectiveFromTag("skipEmpty,group=api|admin,maxDepth=3")
	require.NoError(t, err)
	assert.True(t, d.SkipEmpty)
	assert.Equal(t, []string{"api", "admin"}, d.Groups)
	assert.Equal(t, 3, *d.MaxDepth)

	_, err = classDirectiveFromTag("wrap=x")
	assert.Error(t, err)

	s, err := serializeDirectiveFromTag("wrap=person,group=api")
	require.NoError(t, err)
	assert.Equal(t, SerializeDirective{Wrap: "person", Group: "api"}, s)
}

func TestAppliesTo(t *testing.T) {
	open := MemberDirective{}
	assert.True(t, open.AppliesTo(""))
	assert.True(t, open.AppliesTo("api"))

	grouped := MemberDirective{Groups: []string{"api"}}
	assert.False(t, grouped.AppliesTo(""))
	assert.True(t, grouped.AppliesTo("api"))
	assert.False(t, grouped.AppliesTo("admin"))

	sealed := grouped.sealed()
	assert.False(t, sealed.AppliesTo(""))
	assert.True(t, sealed.AppliesTo("api"))

	class := ClassDirective{Groups: []string{"api"}}
	assert.False(t, class.AppliesTo(""))
	assert.True(t, class.sealed().AppliesTo("api"))
}

func TestParseType(t *testing.T) {
	for s, want := range map[string]Type{
		"":           TypeNone,
		"DateTime":   TypeDatetime,
		"object":     TypeObject,
		"Collection": TypeCollection,
	} {
		got, err := ParseType(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseType("weird")
	assert.Error(t, err)

	assert.Equal(t, "datetime", TypeDatetime.String())
	assert.Equal(t, "unknown", Type(42).String())
}

func TestDirectiveValidate(t *testing.T) {
	assert.NoError(t, MemberDirective{Type: TypeObject, MaxDepth: Depth(0)}.validate())
	assert.Error(t, MemberDirective{Type: Type(42)}.validate())
	assert.Error(t, MemberDirective{MaxDepth: Depth(-1)}.validate())
	assert.NoError(t, Inherit().validate())
}
