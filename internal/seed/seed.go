package seed

import (
	"fmt"
	"log"

	"fixpoint/internal/models"

	"gorm.io/gorm"
)

// defaultPassword is shared by every generated account so developers can log
// in as any of them.
const defaultPassword = "password123"

// Options configuration for the seeder.
type Options struct {
	NumUsers    int
	NumRequests int
	ShouldClean bool
	// MaxDays spreads generated created_at timestamps into the past.
	MaxDays int
	// SkipBcrypt stores plaintext passwords; dev fast mode only.
	SkipBcrypt bool
}

var catalogServices = []struct {
	name        string
	description string
	price       float64
}{
	{"Screen Replacement", "Cracked or dead display replaced with an original-quality panel, includes fitting and a function test.", 89.00},
	{"Battery Replacement", "Worn battery swapped for a new cell, capacity verified before handover.", 49.00},
	{"Water Damage Treatment", "Ultrasonic board cleaning and corrosion treatment after liquid contact.", 65.00},
	{"Data Recovery", "Recovery of files from failing drives and phones that no longer boot.", 120.00},
	{"Charging Port Repair", "Loose or broken charging ports resoldered or replaced.", 39.00},
	{"Software Troubleshooting", "OS reinstall, malware removal and performance tuning.", 35.00},
}

var blogCategories = []string{"Repair Guides", "Device Care", "Shop News"}

var blogTitles = []string{
	"What To Do First When Your Phone Gets Wet",
	"Signs Your Laptop Battery Needs Replacing",
	"How We Diagnose a Device That Will Not Turn On",
	"Backing Up Before a Repair: A Short Checklist",
	"Why Charging Cables Fail and How to Spot It Early",
	"New Drop-Off Hours Starting Next Month",
}

// Seed populates the database with demo data: an admin account, the service
// catalog, blog content, customers with repair requests in various lifecycle
// stages, and a few contact messages.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding database: %d users, %d requests", opts.NumUsers, opts.NumRequests)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			return fmt.Errorf("failed to clear data: %w", err)
		}
	}

	f := NewFactory(db, opts)

	admin, err := ensureAdmin(db, f)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	users, err := createUsers(f, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("created %d customer accounts", len(users))

	if err := createCatalog(f); err != nil {
		return fmt.Errorf("failed to create service catalog: %w", err)
	}

	if err := createBlog(f, admin); err != nil {
		return fmt.Errorf("failed to create blog content: %w", err)
	}

	created, err := createRequests(f, users, opts.NumRequests)
	if err != nil {
		return fmt.Errorf("failed to create service requests: %w", err)
	}
	log.Printf("created %d service requests", created)

	for i := 0; i < 5; i++ {
		if _, err := f.CreateContactMessage(); err != nil {
			return fmt.Errorf("failed to create contact messages: %w", err)
		}
	}

	log.Println("Database seeding completed")
	return nil
}

// ensureAdmin creates the well-known admin account unless it already exists.
func ensureAdmin(db *gorm.DB, f *Factory) (*models.User, error) {
	var existing models.User
	err := db.Where("username = ?", "admin").First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	return f.CreateUser(func(u *models.User) {
		u.Username = "admin"
		u.Email = "admin@fixpoint.local"
		u.Role = models.RoleAdmin
	})
}

func createUsers(f *Factory, n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func createCatalog(f *Factory) error {
	for _, s := range catalogServices {
		if _, err := f.CreateService(s.name, s.description, s.price); err != nil {
			return err
		}
	}
	return nil
}

func createBlog(f *Factory, author *models.User) error {
	cats := make([]*models.BlogCategory, 0, len(blogCategories))
	for _, name := range blogCategories {
		cat, err := f.CreateCategory(name)
		if err != nil {
			return err
		}
		cats = append(cats, cat)
	}

	for i, title := range blogTitles {
		cat := cats[i%len(cats)]
		// leave the last post as a draft so the admin view differs
		published := i < len(blogTitles)-1
		if _, err := f.CreatePost(author, title, cat, published); err != nil {
			return err
		}
	}
	return nil
}

// createRequests spreads requests across customers and anonymous walk-ins and
// advances a share of them through the lifecycle so every status is
// represented.
func createRequests(f *Factory, users []*models.User, n int) (int, error) {
	targets := []models.RequestStatus{
		models.RequestStatusPending,
		models.RequestStatusApproved,
		models.RequestStatusInProgress,
		models.RequestStatusCompleted,
		models.RequestStatusRejected,
		models.RequestStatusCancelled,
	}

	created := 0
	for i := 0; i < n; i++ {
		var owner *models.User
		// roughly a third of requests are anonymous walk-ins
		if len(users) > 0 && i%3 != 0 {
			owner = users[f.rng.Intn(len(users))]
		}

		req, err := f.CreateRequest(owner)
		if err != nil {
			return created, err
		}

		target := targets[i%len(targets)]
		if target != models.RequestStatusPending {
			if err := f.AdvanceRequest(req, target); err != nil {
				return created, err
			}
		}
		created++
	}
	return created, nil
}

// clearData removes seeded rows in dependency order.
func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	for _, model := range []interface{}{
		&models.StatusUpdate{},
		&models.ServiceRequest{},
		&models.BlogPost{},
		&models.BlogCategory{},
		&models.Service{},
		&models.ContactMessage{},
		&models.Setting{},
		&models.User{},
	} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Unscoped().Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
