package serializer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/normalizer-go/pkg/encoder"
	"github.com/lk2023060901/normalizer-go/pkg/log"
	"github.com/lk2023060901/normalizer-go/pkg/normalizer"
	"github.com/lk2023060901/normalizer-go/pkg/util/merr"
)

type address struct {
	Street string `normalize:"name=street"`
}

type customer struct {
	normalizer.Class `serialize:"wrap=customer,group=public"`
	ID               int        `normalize:"name=id"`
	Email            string     `normalize:"name=email,group=internal"`
	Name             string     `normalize:"name=name,group=public|internal"`
	Addresses        []*address `normalize:"name=addresses,type=collection"`
}

type plain struct {
	ID int `normalize:"name=id"`
}

type broken struct {
	secret string `normalize:"name=secret"`
}

type SerializerSuite struct {
	suite.Suite

	ctx context.Context
	s   *Serializer
}

func (s *SerializerSuite) SetupTest() {
	s.ctx = context.Background()
	s.s = New(WithLogger(log.NewTestLogger(s.T())))
}

func (s *SerializerSuite) customer() *customer {
	return &customer{
		ID:        7,
		Email:     "c@example.com",
		Name:      "Carol",
		Addresses: []*address{{Street: "A"}, {Street: "B"}},
	}
}

func (s *SerializerSuite) TestJSON() {
	out, err := s.s.Serialize(s.ctx, &plain{ID: 123}, "json", "")
	s.Require().NoError(err)
	s.Equal(`{"id":123}`, string(out))

	// 未指定分组时使用 serialize 指令中的分组
	out, err = s.s.Serialize(s.ctx, s.customer(), "json", "")
	s.Require().NoError(err)
	s.Equal(`{"customer":{"id":7,"name":"Carol","addresses":[{"street":"A"},{"street":"B"}]}}`, string(out))

	out, err = s.s.Serialize(s.ctx, s.customer(), "json", "internal")
	s.Require().NoError(err)
	s.Equal(`{"customer":{"id":7,"email":"c@example.com","name":"Carol","addresses":[{"street":"A"},{"street":"B"}]}}`, string(out))
}

func (s *SerializerSuite) TestXML() {
	out, err := s.s.Serialize(s.ctx, s.customer(), "xml", "")
	s.Require().NoError(err)
	s.Contains(strings.Join(strings.Fields(string(out)), ""),
		"<customer><id>7</id><name>Carol</name><addresses><item0><street>A</street></item0><item1><street>B</street></item1></addresses></customer>")

	out, err = s.s.SerializeWith(s.ctx, &plain{ID: 123}, "xml", "", encoder.WithWrap("test"))
	s.Require().NoError(err)
	s.Contains(string(out), "<test><id>123</id></test>")
}

func (s *SerializerSuite) TestEncoderOptions() {
	ser := New(WithEncoderOptions(encoder.WithJSONFlags(encoder.JSONPrettyPrint)))
	out, err := ser.Serialize(s.ctx, &plain{ID: 1}, "json", "")
	s.Require().NoError(err)
	s.Equal("{\n    \"id\": 1\n}", string(out))
}

func (s *SerializerSuite) TestUnknownFormat() {
	_, err := s.s.Serialize(s.ctx, &broken{}, "something", "")
	s.ErrorIs(err, merr.ErrUnknownEncoder)
	s.ErrorContains(err, "format=something")
}

func (s *SerializerSuite) TestNormalizeError() {
	_, err := s.s.Serialize(s.ctx, &broken{}, "json", "")
	s.ErrorIs(err, merr.ErrNoAccessor)
}

func (s *SerializerSuite) TestScalars() {
	out, err := s.s.Serialize(s.ctx, []any{1, "a", nil}, "json", "")
	s.Require().NoError(err)
	s.Equal(`[1,"a",null]`, string(out))

	out, err = s.s.Serialize(s.ctx, 42, "xml", "")
	s.Require().NoError(err)
	s.Nil(out)
}

func TestSerializer(t *testing.T) {
	suite.Run(t, new(SerializerSuite))
}
