package metamodel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/metarest/internal/schema"
)

const testSchema = `
abstract Auditable { created_at: timestamp }

entity Person @table("people") {
  id: int @id
  name: string
}

entity Actor extends Person { agent: string? }

embeddable Address { street: string  city: string }

entity Movie extends Auditable {
  id: string @id
  title: string
  rating: decimal
  director: Person?
  actors: [Actor]
  location: Address
  tags: [string]
  studio: Studio
}
`

func buildTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := Build(context.Background(), schema.NewSourceProvider("test.schema", testSchema))
	require.NoError(t, err)
	return catalog
}

func TestBuild_Types(t *testing.T) {
	catalog := buildTestCatalog(t)

	assert.Equal(t, []string{"Auditable", "Person", "Actor", "Address", "Movie"}, catalog.Names())
	assert.Len(t, catalog.Entities(), 3)

	person, err := catalog.Lookup("Person")
	require.NoError(t, err)
	assert.Equal(t, "people", person.Table)
	assert.Equal(t, IDInteger, person.IDKind)
	assert.Equal(t, "id", person.ID.Name)

	movie, err := catalog.Lookup("Movie")
	require.NoError(t, err)
	assert.Equal(t, IDString, movie.IDKind)

	auditable, _ := catalog.Lookup("Auditable")
	assert.Same(t, auditable, movie.Supertype)
	assert.Nil(t, auditable.ID)
}

func TestBuild_Attributes(t *testing.T) {
	catalog := buildTestCatalog(t)
	movie, _ := catalog.Lookup("Movie")

	var names []string
	for _, attr := range movie.Attributes() {
		names = append(names, attr.Name)
	}
	assert.Equal(t, []string{"created_at", "id", "title", "rating", "director", "actors", "location", "tags", "studio"}, names)

	created, ok := movie.Attribute("created_at")
	require.True(t, ok)
	assert.Equal(t, "Auditable", created.Declarer.Name)
	assert.Len(t, movie.OwnAttributes(), 8)

	director, _ := movie.Attribute("director")
	assert.Equal(t, Association, director.Kind)
	assert.Equal(t, "Person", director.Target.Name)
	assert.Equal(t, "Person", director.TypeLabel())

	actors, _ := movie.Attribute("actors")
	assert.Equal(t, Collection, actors.Kind)
	assert.Equal(t, "array<Actor>", actors.TypeLabel())

	tags, _ := movie.Attribute("tags")
	assert.Equal(t, Collection, tags.Kind)
	assert.Nil(t, tags.Target)
	assert.Equal(t, "array<string>", tags.TypeLabel())

	studio, _ := movie.Attribute("studio")
	assert.Nil(t, studio.Target)

	rating, _ := movie.Attribute("rating")
	assert.Equal(t, "decimal", rating.TypeLabel())

	scalars := movie.ScalarAttributes()
	require.Len(t, scalars, 4)
	assert.Equal(t, "created_at", scalars[0].Name)

	for _, attr := range movie.Attributes() {
		_, ok := movie.Accessor(attr.Name)
		assert.True(t, ok, attr.Name)
	}
}

func TestBuild_InheritedAttributesShareDescriptors(t *testing.T) {
	catalog := buildTestCatalog(t)
	person, _ := catalog.Lookup("Person")
	actor, _ := catalog.Lookup("Actor")

	personName, _ := person.Attribute("name")
	actorName, _ := actor.Attribute("name")
	assert.Same(t, personName, actorName)
	assert.Same(t, person.ID, actor.ID)
	assert.Equal(t, IDInteger, actor.IDKind)
}

func TestCatalog_Lookup(t *testing.T) {
	catalog := buildTestCatalog(t)

	first, err := catalog.Lookup("Movie")
	require.NoError(t, err)
	second, err := catalog.Lookup("Movie")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = catalog.Lookup("Studio")
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = catalog.LookupEntity("Address")
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = catalog.LookupEntity("Person")
	assert.NoError(t, err)
}

func TestCatalog_Edges(t *testing.T) {
	catalog := buildTestCatalog(t)

	want := []LinkEdge{
		{Kind: LinkInheritance, Source: "Actor", Target: "Person"},
		{Kind: LinkRelation, Source: "Movie", Target: "Person"},
		{Kind: LinkRelation, Source: "Movie", Target: "Actor"},
		{Kind: LinkRelation, Source: "Movie", Target: "Address"},
		{Kind: LinkInheritance, Source: "Movie", Target: "Auditable"},
	}
	assert.Equal(t, want, catalog.Edges())
	assert.Equal(t, catalog.Edges(), catalog.Edges())
}

func TestCatalog_EdgesWithoutInheritance(t *testing.T) {
	source := `
entity Movie { id: int @id  title: string  director: Person  actors: [Actor] }
entity Person { id: int @id  name: string }
entity Actor extends java_lang_Object { id: int @id  name: string }
`
	catalog, err := Build(context.Background(), schema.NewSourceProvider("movies", source))
	require.NoError(t, err)

	assert.Equal(t, []LinkEdge{
		{Kind: LinkRelation, Source: "Movie", Target: "Person"},
		{Kind: LinkRelation, Source: "Movie", Target: "Actor"},
	}, catalog.Edges())

	actor, _ := catalog.Lookup("Actor")
	assert.Nil(t, actor.Supertype)
	assert.Equal(t, "java_lang_Object", actor.DeclaredSupertype)
}

func TestBuild_InvalidSchema(t *testing.T) {
	_, err := Build(context.Background(), schema.NewSourceProvider("bad", `entity Foo { name: string }`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entity has no @id attribute")
}

func TestIDKind_Parse(t *testing.T) {
	v, err := IDInteger.Parse("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	_, err = IDInteger.Parse("abc")
	assert.Error(t, err)

	v, err = IDDecimal.Parse("4.5")
	require.NoError(t, err)
	assert.Equal(t, 4.5, v)

	v, err = IDDecimal.Parse("-.5")
	require.NoError(t, err)
	assert.Equal(t, -0.5, v)

	for _, literal := range []string{"x", "NaN", "nan", "Inf", "+Inf", "-infinity", "0x1p3", "1e3", "1_000", "", "1e400"} {
		_, err = IDDecimal.Parse(literal)
		assert.Error(t, err, literal)
	}

	v, err = IDString.Parse("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
}

func TestEntityType_Subtypes(t *testing.T) {
	catalog, err := Build(context.Background(), schema.NewSourceProvider("tree", `
entity Person { id: string @id  name: string }
abstract Performer extends Person { stage_name: string? }
entity Actor extends Performer { agent: string? }
entity Singer extends Performer { label: string? }
entity Director extends Person { }
entity Studio { id: int @id }
`))
	require.NoError(t, err)

	names := func(types []*EntityType) []string {
		var out []string
		for _, t := range types {
			out = append(out, t.Name)
		}
		return out
	}

	person, _ := catalog.Lookup("Person")
	performer, _ := catalog.Lookup("Performer")
	studio, _ := catalog.Lookup("Studio")

	assert.Equal(t, []string{"Performer", "Director"}, names(person.Subtypes()))
	assert.Equal(t, []string{"Actor", "Singer", "Director"}, names(person.EntitySubtypes()))
	assert.Equal(t, []string{"Actor", "Singer"}, names(performer.EntitySubtypes()))
	assert.Empty(t, studio.EntitySubtypes())
}
