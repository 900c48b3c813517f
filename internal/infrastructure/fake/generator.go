package fake

import (
	"strconv"
	"strings"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
)

var emailProviders = []string{"gmail.com", "yahoo.com", "hotmail.com", "outlook.com"}

// Generator produces plausible synthetic identities. The username and email
// are derived from the generated first/last name pair, so two people with the
// same name can collide; that is intentional.
// Not safe for concurrent use.
type Generator struct {
	f *gofakeit.Faker
}

// NewGenerator returns a generator; seed 0 picks a random seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{f: gofakeit.New(seed)}
}

func (g *Generator) Person() domain.Person {
	first := g.f.FirstName()
	last := g.f.LastName()
	return domain.Person{
		FirstName: first,
		LastName:  last,
		Username:  g.username(first, last),
		Email:     g.email(first, last),
	}
}

func (g *Generator) username(first, last string) string {
	first, last = clean(first), clean(last)
	sep := g.f.RandomString([]string{".", "_"})

	switch g.f.Number(0, 2) {
	case 0:
		return first + sep + last
	case 1:
		return first + sep + last + strconv.Itoa(g.f.Number(1, 99))
	default:
		return first + strconv.Itoa(g.f.Number(1, 999))
	}
}

func (g *Generator) email(first, last string) string {
	first, last = clean(first), clean(last)
	local := first + g.f.RandomString([]string{".", "_"}) + last
	if g.f.Number(0, 1) == 1 {
		local += strconv.Itoa(g.f.Number(1, 99))
	}
	return strings.ToLower(local) + "@" + g.f.RandomString(emailProviders)
}

// clean keeps ASCII letters and digits only ("O'Keefe" -> "OKeefe").
func clean(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}
