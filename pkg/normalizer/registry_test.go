package normalizer

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/normalizer-go/pkg/util/merr"
)

type RegistrySuite struct {
	suite.Suite

	registry *Registry
}

func (s *RegistrySuite) SetupTest() {
	s.registry = NewRegistry()
}

func memberNames(members []Member) []string {
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name)
	}
	return names
}

func (s *RegistrySuite) TestMembersOrder() {
	members, err := s.registry.Members(reflect.TypeOf(Child{}))
	s.Require().NoError(err)
	s.Equal([]string{"Name", "Nickname", "ID", "Kind", "Title"}, memberNames(members))
	s.Equal(MemberField, members[2].Kind)
	s.Equal(MemberMethod, members[4].Kind)

	// 父类型缺少同名成员时 inherit 得到空指令
	s.Empty(members[1].Directives)
	s.Equal("title", members[4].Directives[0].Name)
}

func (s *RegistrySuite) TestDirectives() {
	directives, err := s.registry.Directives(reflect.TypeOf(&Person{}), "Name")
	s.Require().NoError(err)
	s.Require().Len(directives, 2)
	s.Equal("name", directives[0].Name)
	s.Equal("fullName", directives[1].Name)
	s.Equal([]string{"legacy"}, directives[1].Groups)

	directives, err = s.registry.Directives(reflect.TypeOf(Person{}), "Ignored")
	s.Require().NoError(err)
	s.Empty(directives)

	directives, err = s.registry.Directives(reflect.TypeOf(Person{}), "Hidden")
	s.Require().NoError(err)
	s.Empty(directives)

	directives, err = s.registry.Directives(reflect.TypeOf(Person{}), "missing")
	s.Require().NoError(err)
	s.Nil(directives)
}

func (s *RegistrySuite) TestClassAndSerializeDirective() {
	class, err := s.registry.ClassDirective(reflect.TypeOf(Profile{}))
	s.Require().NoError(err)
	s.True(class.SkipEmpty)
	s.Equal([]string{"api"}, class.Groups)

	sd, err := s.registry.SerializeDirective(reflect.TypeOf(&Profile{}))
	s.Require().NoError(err)
	s.Equal(SerializeDirective{Wrap: "profile", Group: "api"}, sd)

	sd, err = s.registry.SerializeDirective(reflect.TypeOf(42))
	s.Require().NoError(err)
	s.Equal(SerializeDirective{}, sd)

	sd, err = s.registry.SerializeDirective(nil)
	s.Require().NoError(err)
	s.Equal(SerializeDirective{}, sd)
}

func (s *RegistrySuite) TestCache() {
	first, err := s.registry.classOf(reflect.TypeOf(Person{}))
	s.Require().NoError(err)
	second, err := s.registry.classOf(reflect.TypeOf(&Person{}))
	s.Require().NoError(err)
	s.Same(first, second)

	before, err := s.registry.classOf(reflect.TypeOf(Mutable{}))
	s.Require().NoError(err)
	Register[Mutable]().Field("A", MemberDirective{Name: "b"})
	after, err := s.registry.classOf(reflect.TypeOf(Mutable{}))
	s.Require().NoError(err)
	s.NotSame(before, after)
	m, ok := after.memberByName("A")
	s.Require().True(ok)
	s.Equal("b", m.directives[0].Name)
}

func (s *RegistrySuite) TestInvalid() {
	cases := []reflect.Type{
		reflect.TypeOf(BadType{}),
		reflect.TypeOf(BadKey{}),
		reflect.TypeOf(BadMethod{}),
	}
	for _, t := range cases {
		err := s.registry.Preload(t)
		s.ErrorIs(err, merr.ErrDirectiveInvalid, t.String())
	}

	err := s.registry.Preload(reflect.TypeOf(42))
	s.ErrorIs(err, merr.ErrClassInvalid)

	type unknownField struct {
		A int
	}
	Register[unknownField]().Field("B", MemberDirective{})
	err = s.registry.Preload(reflect.TypeOf(unknownField{}))
	s.ErrorIs(err, merr.ErrDirectiveInvalid)
	s.ErrorContains(err, "field not found")
}

func (s *RegistrySuite) TestGetterLookup() {
	info, err := s.registry.classOf(reflect.TypeOf(Account{}))
	s.Require().NoError(err)

	for field, getter := range map[string]string{
		"token":  "GetToken",
		"active": "IsActive",
		"email":  "Email",
		"Joined": "GetJoined",
	} {
		m, ok := info.memberByName(field)
		s.Require().True(ok, field)
		s.Require().NotNil(m.getter, field)
		s.Equal(getter, m.getter.name)
	}
}

func TestRegistry(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func TestMethodTable(t *testing.T) {
	table := buildMethodTable(reflect.TypeOf(Flaky{}))
	load, ok := table["Load"]
	require.True(t, ok)
	assert.True(t, load.returnsErr)
	explode, ok := table["Explode"]
	require.True(t, ok)
	assert.False(t, explode.returnsErr)

	table = buildMethodTable(reflect.TypeOf(BadMethod{}))
	_, ok = table["Compute"]
	assert.False(t, ok)
}

func TestDefaultRegistry(t *testing.T) {
	assert.Same(t, DefaultRegistry(), DefaultRegistry())
	assert.Equal(t, DefaultTagName, DefaultRegistry().TagName())
	assert.Equal(t, "api", NewRegistry(WithTagName("api")).TagName())
	assert.Equal(t, DefaultTagName, NewRegistry(WithTagName("")).TagName())
}
