package generator

import (
	"github.com/brianvoe/gofakeit/v6"

	"customer-segmentation/internal/models"
)

// ProfileGenerator supplies optional demographic profile fields for a
// generated customer. A nil return means no profile is attached.
type ProfileGenerator interface {
	Generate() *models.Profile
}

type nopProfiles struct{}

func (nopProfiles) Generate() *models.Profile { return nil }

// NopProfiles returns the disabled profile generator.
func NopProfiles() ProfileGenerator {
	return nopProfiles{}
}

type fakeProfiles struct {
	f *gofakeit.Faker
}

// NewFakeProfiles returns a seeded demographic profile generator. The same
// seed yields the same sequence of profiles.
func NewFakeProfiles(seed int64) ProfileGenerator {
	return &fakeProfiles{f: gofakeit.New(seed)}
}

func (p *fakeProfiles) Generate() *models.Profile {
	return &models.Profile{
		FirstName: p.f.FirstName(),
		LastName:  p.f.LastName(),
		Email:     p.f.Email(),
		Phone:     p.f.Phone(),
		Address:   p.f.Street(),
		City:      p.f.City(),
		State:     p.f.StateAbr(),
		ZipCode:   p.f.Zip(),
		Country:   "USA",
	}
}
