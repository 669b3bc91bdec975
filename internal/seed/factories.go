// Package seed provides helpers to create demo and test data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"fixpoint/internal/models"
	"fixpoint/internal/service"
	"fixpoint/internal/tracking"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	deviceTypes = []string{"Phone", "Laptop", "Tablet", "Desktop", "Console", "Smartwatch"}

	brands = map[string][]string{
		"Phone":      {"Apple", "Samsung", "Google", "OnePlus", "Xiaomi"},
		"Laptop":     {"Lenovo", "Dell", "HP", "Apple", "Asus"},
		"Tablet":     {"Apple", "Samsung", "Lenovo", "Amazon"},
		"Desktop":    {"Dell", "HP", "Custom Build", "Apple"},
		"Console":    {"Sony", "Microsoft", "Nintendo"},
		"Smartwatch": {"Apple", "Samsung", "Garmin", "Fitbit"},
	}

	problems = []string{
		"Screen is cracked and the touch layer no longer responds in the top corner.",
		"Battery drains from full to empty in under two hours.",
		"Device will not power on even when plugged in overnight.",
		"Charging port is loose, cable has to be held at an angle.",
		"Random shutdowns under load, fans spin up very loud first.",
		"Liquid damage, keyboard keys stick and some do not register.",
		"Speaker crackles at any volume above the minimum.",
		"Camera shows a black screen in every app.",
		"Wi-Fi drops every few minutes while other devices stay connected.",
		"Storage is failing, files disappear after a restart.",
	}

	statusNotes = map[models.RequestStatus][]string{
		models.RequestStatusApproved: {
			"Approved for intake, bring the device to the shop.",
			"Quote accepted, approved.",
		},
		models.RequestStatusInProgress: {
			"Device received, diagnostics started.",
			"Replacement part arrived, repair underway.",
		},
		models.RequestStatusCompleted: {
			"Repair finished and tested, ready for pickup.",
			"Replaced faulty component, all checks pass.",
		},
		models.RequestStatusRejected: {
			"Repair cost exceeds device value, recommended replacement.",
			"Model no longer supported, parts unavailable.",
		},
		models.RequestStatusCancelled: {
			"Cancelled at the customer's request.",
		},
	}
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and by tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// NewFactory creates a Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	// #nosec G404: acceptable for seeding
	return &Factory{db: db, opts: opts, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (f *Factory) pick(list []string) string {
	return list[f.rng.Intn(len(list))]
}

// backdate returns a time up to opts.MaxDays in the past so listings do not
// look like everything was created in one batch.
func (f *Factory) backdate() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	return time.Now().
		Add(-time.Duration(f.rng.Intn(maxDays)) * 24 * time.Hour).
		Add(-time.Duration(f.rng.Intn(24)) * time.Hour).
		Add(-time.Duration(f.rng.Intn(60)) * time.Minute)
}

// CreateUser constructs and persists a sample customer account. Optional
// override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username:  strings.ToLower(gofakeit.Username()) + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:     gofakeit.Email(),
		Role:      models.RoleUser,
		Address:   gofakeit.Street() + ", " + gofakeit.City(),
		CreatedAt: f.backdate(),
	}

	if f.opts.SkipBcrypt {
		user.Password = defaultPassword
	} else {
		hashed, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.Password = string(hashed)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateService persists an offered repair service.
func (f *Factory) CreateService(name, description string, price float64) (*models.Service, error) {
	svc := &models.Service{
		Name:        name,
		Description: description,
		Price:       price,
		Active:      true,
	}
	if err := f.db.Create(svc).Error; err != nil {
		return nil, err
	}
	return svc, nil
}

// CreateRequest constructs and persists a service request. When user is nil
// an anonymous walk-in request with generated contact details is created.
func (f *Factory) CreateRequest(user *models.User, overrides ...func(*models.ServiceRequest)) (*models.ServiceRequest, error) {
	deviceType := f.pick(deviceTypes)
	req := &models.ServiceRequest{
		Kind:         models.RequestKindRegistered,
		DeviceType:   deviceType,
		Brand:        f.pick(brands[deviceType]),
		Model:        gofakeit.AppName(),
		Problem:      f.pick(problems),
		TrackingCode: tracking.NewCode(),
		Status:       models.RequestStatusPending,
		CreatedAt:    f.backdate(),
	}

	if user != nil {
		req.UserID = &user.ID
	} else {
		req.Kind = models.RequestKindAnonymous
		req.ContactName = gofakeit.Name()
		req.ContactEmail = gofakeit.Email()
		req.ContactPhone = gofakeit.Phone()
		req.ContactAddress = gofakeit.Street() + ", " + gofakeit.City()
	}

	for _, override := range overrides {
		override(req)
	}

	if err := f.db.Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

// AdvanceRequest walks the request forward along the lifecycle graph,
// appending an audit entry for each hop, until it reaches target.
func (f *Factory) AdvanceRequest(req *models.ServiceRequest, target models.RequestStatus) error {
	path, ok := lifecyclePath(req.Status, target)
	if !ok {
		return fmt.Errorf("seed: no lifecycle path from %s to %s", req.Status, target)
	}

	at := req.CreatedAt
	for _, next := range path {
		at = at.Add(time.Duration(1+f.rng.Intn(48)) * time.Hour)
		update := &models.StatusUpdate{
			ServiceRequestID: req.ID,
			Status:           next,
			Note:             f.pick(statusNotes[next]),
			CreatedAt:        at,
		}
		if err := f.db.Create(update).Error; err != nil {
			return err
		}
		req.Status = next
	}
	return f.db.Model(req).Update("status", req.Status).Error
}

// lifecyclePath returns the ordered statuses between from and target,
// exclusive of from, following the enforced transition graph.
func lifecyclePath(from, target models.RequestStatus) ([]models.RequestStatus, bool) {
	if from == target {
		return nil, true
	}
	if from.CanTransition(target) {
		return []models.RequestStatus{target}, true
	}

	// The graph is a short chain, walk the happy path toward target.
	happy := []models.RequestStatus{
		models.RequestStatusApproved,
		models.RequestStatusInProgress,
		models.RequestStatusCompleted,
	}
	var path []models.RequestStatus
	current := from
	for _, next := range happy {
		if !current.CanTransition(next) {
			continue
		}
		path = append(path, next)
		current = next
		if current == target {
			return path, true
		}
		if current.CanTransition(target) {
			return append(path, target), true
		}
	}
	return nil, false
}

// CreateContactMessage persists a public contact-form submission.
func (f *Factory) CreateContactMessage(overrides ...func(*models.ContactMessage)) (*models.ContactMessage, error) {
	msg := &models.ContactMessage{
		Name:      gofakeit.Name(),
		Email:     gofakeit.Email(),
		Subject:   gofakeit.Sentence(4),
		Message:   gofakeit.Paragraph(1, 2, 8, " "),
		CreatedAt: f.backdate(),
	}
	for _, override := range overrides {
		override(msg)
	}
	if err := f.db.Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// CreatePost persists a blog post authored by the given user.
func (f *Factory) CreatePost(author *models.User, title string, category *models.BlogCategory, published bool) (*models.BlogPost, error) {
	post := &models.BlogPost{
		Title:     title,
		Slug:      service.Slugify(title),
		Content:   gofakeit.Paragraph(3, 4, 10, "\n\n"),
		AuthorID:  author.ID,
		Published: published,
		CreatedAt: f.backdate(),
	}
	if category != nil {
		post.CategoryID = &category.ID
	}
	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateCategory persists a blog category.
func (f *Factory) CreateCategory(name string) (*models.BlogCategory, error) {
	cat := &models.BlogCategory{Name: name, Slug: service.Slugify(name)}
	if err := f.db.Create(cat).Error; err != nil {
		return nil, err
	}
	return cat, nil
}
