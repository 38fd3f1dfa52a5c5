// Package seed populates a development database with demo officers,
// applications and lost-ID replacements. It drives the real workflow services
// so every number is issued by the identifier generator.
package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"idportal/internal/cache"
	"idportal/internal/featureflags"
	"idportal/internal/middleware"
	"idportal/internal/models"
	"idportal/internal/notifications"
	"idportal/internal/repository"
	"idportal/internal/service"
	"idportal/internal/storage"
	"idportal/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Preset sizes a seeding run.
type Preset struct {
	Name                   string `yaml:"name"`
	Officers               int    `yaml:"officers"`
	ApplicationsPerOfficer int    `yaml:"applications_per_officer"`
	// ApprovePercent of applications are approved and receive an ID number.
	ApprovePercent int `yaml:"approve_percent"`
	// LostIDPercent of issued IDs get a lost-ID replacement.
	LostIDPercent int      `yaml:"lost_id_percent"`
	Stations      []string `yaml:"stations"`
	Seed          int64    `yaml:"seed"`
}

var builtinPresets = map[string]Preset{
	"small": {
		Name: "small", Officers: 2, ApplicationsPerOfficer: 3,
		ApprovePercent: 50, LostIDPercent: 50, Seed: 42,
	},
	"demo": {
		Name: "demo", Officers: 8, ApplicationsPerOfficer: 12,
		ApprovePercent: 60, LostIDPercent: 20, Seed: 2026,
	},
}

var defaultStations = []string{
	"Nairobi Central", "Kisumu Central", "Mombasa Central", "Nakuru Town", "Eldoret", "Nyeri",
}

var districts = []string{"Kisumu", "Nairobi", "Mombasa", "Nakuru", "Uasin Gishu", "Nyeri", "Kakamega", "Machakos"}

var tribes = []string{"Luo", "Kikuyu", "Luhya", "Kalenjin", "Kamba", "Kisii", "Meru", "Mijikenda"}

// PresetNames lists the built-in presets.
func PresetNames() []string {
	return []string{"small", "demo"}
}

// LoadPreset resolves name as a built-in preset or a YAML file path.
func LoadPreset(name string) (Preset, error) {
	if p, ok := builtinPresets[strings.ToLower(name)]; ok {
		return p, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return Preset{}, fmt.Errorf("unknown preset %q: %w", name, err)
	}
	defer func() { _ = f.Close() }()
	return ParsePreset(f)
}

// ParsePreset decodes and checks a YAML preset.
func ParsePreset(r io.Reader) (Preset, error) {
	var p Preset
	if err := yaml.NewDecoder(r).Decode(&p); err != nil {
		return Preset{}, fmt.Errorf("decode preset: %w", err)
	}
	if p.Officers <= 0 {
		return Preset{}, fmt.Errorf("preset %q: officers must be positive", p.Name)
	}
	if p.ApprovePercent < 0 || p.ApprovePercent > 100 || p.LostIDPercent < 0 || p.LostIDPercent > 100 {
		return Preset{}, fmt.Errorf("preset %q: percentages must be within 0-100", p.Name)
	}
	return p, nil
}

// Summary counts what a run created.
type Summary struct {
	Officers     int
	Applications int
	Approved     int
	LostIDs      int
}

// Seeder creates demo data through the workflow services.
type Seeder struct {
	db           *gorm.DB
	accounts     *service.AccountService
	applications *service.ApplicationService
	lostIDs      *service.LostIDService
	faker        *gofakeit.Faker
}

// NewSeeder binds a seeder to db. New applications carry no documents;
// lost-ID replacements get small placeholder files written to store.
func NewSeeder(db *gorm.DB, store storage.Store, lostIDFee float64) *Seeder {
	reg := repository.NewRegistry(db, nil)
	ids := service.NewIdentifierGenerator(nil)
	flags := featureflags.NewManager("")
	noCache := cache.New(nil)
	return &Seeder{
		db:           db,
		accounts:     service.NewAccountService(reg, nil, nil),
		applications: service.NewApplicationService(reg, store, ids, flags, noCache, notifications.Discard{}),
		lostIDs: service.NewLostIDService(reg, store, ids,
			service.LostIDOptions{Fee: lostIDFee}, noCache, notifications.Discard{}),
	}
}

// ClearAll removes every workflow row. Admin accounts and migrations are kept.
func (s *Seeder) ClearAll() error {
	tables := []string{"payments", "documents", "lost_id_applications", "citizens", "applications", "officers", "id_sequences"}
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// Run seeds according to p.
func (s *Seeder) Run(ctx context.Context, p Preset) (*Summary, error) {
	s.faker = gofakeit.New(p.Seed)
	stations := p.Stations
	if len(stations) == 0 {
		stations = defaultStations
	}

	sum := &Summary{}
	for i := 0; i < p.Officers; i++ {
		officer, err := s.officer(ctx, stations[i%len(stations)])
		if err != nil {
			return sum, fmt.Errorf("officer %d: %w", i+1, err)
		}
		sum.Officers++

		for j := 0; j < p.ApplicationsPerOfficer; j++ {
			app, err := s.applications.Submit(ctx, service.SubmitApplicationInput{
				OfficerID: officer.ID,
				Fields:    s.applicationFields(),
			})
			if err != nil {
				return sum, fmt.Errorf("application: %w", err)
			}
			sum.Applications++

			if s.faker.Number(1, 100) > p.ApprovePercent {
				continue
			}
			idNumber, err := s.applications.Approve(ctx, app.ID)
			if err != nil {
				return sum, fmt.Errorf("approve %s: %w", app.ApplicationNumber, err)
			}
			sum.Approved++

			if s.faker.Number(1, 100) > p.LostIDPercent {
				continue
			}
			if _, err := s.lostIDs.Submit(ctx, s.lostIDInput(officer.ID, idNumber)); err != nil {
				return sum, fmt.Errorf("lost id for %s: %w", idNumber, err)
			}
			sum.LostIDs++
		}
	}

	middleware.Logger.Info("seed complete",
		slog.String("preset", p.Name),
		slog.Int("officers", sum.Officers),
		slog.Int("applications", sum.Applications),
		slog.Int("approved", sum.Approved),
		slog.Int("lost_ids", sum.LostIDs))
	return sum, nil
}

func (s *Seeder) officer(ctx context.Context, station string) (*models.Officer, error) {
	first, last := s.faker.FirstName(), s.faker.LastName()
	officer, err := s.accounts.Signup(ctx, validation.SignupRequest{
		IDNumber:    s.faker.Numerify("2#######"),
		Email:       strings.ToLower(fmt.Sprintf("%s.%s.%d@police.go.ke", first, last, s.faker.Number(100, 999))),
		PhoneNumber: s.faker.Numerify("07########"),
		FullName:    first + " " + last,
		Station:     station,
		Password:    "password123",
	})
	if err != nil {
		return nil, err
	}
	if err := s.accounts.ModerateOfficer(ctx, officer.ID, models.ActionApprove); err != nil {
		return nil, err
	}
	return officer, nil
}

func (s *Seeder) applicationFields() map[string]string {
	f := s.faker
	father, mother := f.FirstName()+" "+f.LastName(), f.FirstName()+" "+f.LastName()
	district := f.RandomString(districts)
	return map[string]string{
		"fullNames":       fmt.Sprintf("%s %s %s", f.FirstName(), f.FirstName(), f.LastName()),
		"dateOfBirth":     f.DateRange(mustDate("1960-01-01"), mustDate("2008-12-31")).Format("2006-01-02"),
		"gender":          f.RandomString([]string{"male", "female"}),
		"fatherName":      father,
		"motherName":      mother,
		"districtOfBirth": district,
		"tribe":           f.RandomString(tribes),
		"homeDistrict":    district,
		"division":        f.City(),
		"constituency":    f.City(),
		"location":        f.Street(),
		"subLocation":     f.StreetName(),
		"villageEstate":   f.StreetName() + " Estate",
		"occupation":      f.JobTitle(),
	}
}

func (s *Seeder) lostIDInput(officerID uint, idNumber string) service.SubmitLostIDInput {
	files := make([]service.Upload, 0, len(models.LostIDRequiredFiles))
	for _, field := range models.LostIDRequiredFiles {
		files = append(files, placeholderUpload(field))
	}
	return service.SubmitLostIDInput{
		OfficerID: officerID,
		Fields: map[string]string{
			"id_number":      idNumber,
			"ob_number":      s.faker.Numerify("OB/##/##/2026"),
			"ob_description": s.faker.Sentence(8),
			"payment_method": s.faker.RandomString([]string{"mpesa", "cash", "bank"}),
		},
		Files: files,
	}
}

func placeholderUpload(field string) service.Upload {
	body := "placeholder " + field
	return service.Upload{
		Field:       field,
		Filename:    field + ".txt",
		ContentType: "text/plain",
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}
