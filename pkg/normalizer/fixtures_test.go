package normalizer

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

type Address struct {
	Street string `normalize:"name=street"`
	City   string `normalize:"name=city,group=full"`
}

func (a *Address) Summary() string {
	return a.Street + ", " + a.City
}

type Tag struct {
	Label string `normalize:"name=label"`
}

type Person struct {
	ID      int       `normalize:"name=id"`
	Name    string    `normalize:"name=name;name=fullName,group=legacy"`
	Born    time.Time `normalize:"name=born,type=datetime,format=2006-01-02"`
	Address *Address  `normalize:"name=address,type=object"`
	Tags    []*Tag    `normalize:"name=tags,type=collection"`
	Nick    string    `normalize:"name=nick,skipEmpty"`
	secret  string    `normalize:"name=secret,callback=Masked"`
	Ignored string
	Hidden  string `normalize:"-"`
}

func (p *Person) Masked() string {
	return strings.Repeat("*", len(p.secret))
}

func newPerson() *Person {
	return &Person{
		ID:      1,
		Name:    "Ada",
		Born:    time.Date(1990, 5, 17, 8, 0, 0, 0, time.UTC),
		Address: &Address{Street: "Main St", City: "Springfield"},
		Tags:    []*Tag{{Label: "x"}, {Label: "y"}},
		secret:  "abc",
		Ignored: "ignored",
		Hidden:  "hidden",
	}
}

type Profile struct {
	Class `normalize:"skipEmpty,group=api" serialize:"wrap=profile,group=api"`
	Bio   string   `normalize:"name=bio"`
	Score int      `normalize:"name=score"`
	Links []string `normalize:"name=links"`
}

type Node struct {
	Name string `normalize:"name=name"`
	Next *Node  `normalize:"name=next,type=object"`
}

func chain(n int) *Node {
	var head *Node
	for i := n - 1; i >= 0; i-- {
		head = &Node{Name: string(rune('a' + i)), Next: head}
	}
	return head
}

type Shallow struct {
	Child *Node `normalize:"name=child,type=object,maxDepth=0"`
}

type Tree struct {
	Class    `normalize:"maxDepth=1"`
	Name     string  `normalize:"name=name"`
	Children []*Tree `normalize:"name=children,type=collection"`
}

type Empty struct {
	X int
}

type Holder struct {
	Empty *Empty   `normalize:"name=empty,type=object"`
	List  []string `normalize:"name=list"`
	Set   map[string]int
	Meta  map[string]int `normalize:"name=meta"`
}

type Vault struct {
	hidden  string `normalize:"name=hidden"`
	After   string `normalize:"name=after,callback=Touch"`
	touched bool
}

func (v *Vault) Touch() string {
	v.touched = true
	return "touched"
}

type VaultHolder struct {
	Vault *Vault `normalize:"name=vault,type=object"`
}

type Account struct {
	token  string    `normalize:"name=token"`
	active bool      `normalize:"name=active"`
	email  string    `normalize:"name=email"`
	Joined time.Time `normalize:"name=joined,type=datetime"`
}

func (a *Account) GetToken() string { return "tok-" + a.token }

func (a *Account) IsActive() bool { return a.active }

func (a *Account) Email() string { return a.email }

func (a *Account) GetJoined() time.Time {
	if a.Joined.IsZero() {
		return time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return a.Joined
}

type LazyUser struct {
	loaded   bool
	failures int
	calls    int
	name     string `normalize:"name=name"`
}

func (u *LazyUser) Materialized() bool { return u.loaded }

func (u *LazyUser) Materialize(ctx context.Context) error {
	u.calls++
	if u.calls <= u.failures {
		return errors.New("backend unavailable")
	}
	u.loaded = true
	u.name = "loaded"
	return nil
}

func (u *LazyUser) GetName() string { return u.name }

type LazyBlob struct {
	loaded bool
	Data   string `normalize:"name=data"`
}

func (b *LazyBlob) Materialized() bool { return b.loaded }

func (b *LazyBlob) Materialize(ctx context.Context) error {
	b.loaded = true
	return nil
}

type Owner struct {
	User *LazyUser `normalize:"name=user,type=object"`
}

// LazyTags 以值的形式保存，Materialize 作用在指针上。
type LazyTags []string

func (l *LazyTags) Materialized() bool { return len(*l) > 0 }

func (l *LazyTags) Materialize(ctx context.Context) error {
	*l = append(*l, "a", "b")
	return nil
}

type Playlist struct {
	Tags  LazyTags `normalize:"name=tags,type=collection"`
	Extra string   `normalize:"name=extra,callback=Pending"`
}

func (p *Playlist) Pending() LazyTags { return LazyTags{} }

type Parent struct {
	ID int `normalize:"name=id"`
}

type Derived struct {
	Parent
	Name string `normalize:"name=name"`
}

type NegativeDepth struct {
	Value int `normalize:"name=value"`
}

type Base struct {
	ID int `normalize:"name=id"`
}

func (b *Base) Title() string { return "base" }

func (b *Base) Kind() string { return "base-kind" }

type Child struct {
	Base
	Name     string `normalize:"name=name"`
	Nickname string `normalize:"inherit"`
}

func (c *Child) Title() string { return "child" }

type Renamed struct {
	Value int `normalize:"name=value"`
}

type Mutable struct {
	A int `normalize:"name=a"`
}

type BadType struct {
	X int `normalize:"type=weird"`
}

type BadKey struct {
	X int `normalize:"colour=red"`
}

type BadMethod struct {
	X int
}

func (b *BadMethod) Compute(n int) int { return n + b.X }

type Flaky struct {
	Value int `normalize:"name=value,callback=Load"`
}

func (f *Flaky) Load() (int, error) { return 0, errors.New("load failed") }

func (f *Flaky) Explode() int { panic("boom") }

type Shipment struct {
	To *Address `normalize:"name=to,type=object,callback=Summary"`
}

type Schedule struct {
	Due   *time.Time `normalize:"name=due,type=datetime"`
	Label string     `normalize:"name=label,type=datetime"`
	At    time.Time  `normalize:"name=at,type=datetime,format='2006-01-02 15:04'"`
}

type Dup struct {
	First  int `normalize:"name=key"`
	Second int `normalize:"name=other"`
	Third  int `normalize:"name=key"`
}

type Bag struct {
	Stamps []time.Time `normalize:"name=stamps,type=collection"`
	Items  []any       `normalize:"name=items,type=collection"`
	Single *Tag        `normalize:"name=single,type=collection"`
	Plain  []int       `normalize:"name=plain"`
}

type Tagged struct {
	A int `api:"name=alpha"`
	B int `normalize:"name=beta"`
}

type Bare struct {
	Value string `normalize:""`
}

func init() {
	Register[Base]().
		Method("Title", MemberDirective{Name: "title"}).
		Method("Kind", MemberDirective{Name: "kind", Groups: []string{"detail"}})
	Register[Child]().Method("Title", Inherit())
	Register[Renamed]().Field("Value", MemberDirective{Name: "amount"})
	Register[BadMethod]().Method("Compute", MemberDirective{})
	Register[Derived]().Field("ID", MemberDirective{Name: "identifier"})
	Register[NegativeDepth]().Class(ClassDirective{MaxDepth: Depth(-1)})
}
