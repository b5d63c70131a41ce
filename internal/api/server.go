package api

import (
	"log"

	"github.com/bchristie/brutons-tribunal/config"
	"github.com/bchristie/brutons-tribunal/infra/queue"
	"github.com/bchristie/brutons-tribunal/internal/api/rest/handlers"
	"github.com/bchristie/brutons-tribunal/internal/api/rest/middleware"
	"github.com/bchristie/brutons-tribunal/internal/domain"
	"github.com/bchristie/brutons-tribunal/internal/helper"
	"github.com/bchristie/brutons-tribunal/internal/repository"
	"github.com/bchristie/brutons-tribunal/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func StartServer(cfg config.Config) {
	app := fiber.New()

	// ---------- CORS ----------
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.BaseURL,
		AllowHeaders:     "Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// ---------- DB ----------
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseDSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("database connection error: %v", err)
	}
	log.Println("database connected")

	// ---------- MIGRATION + SEED (guarded by advisory lock) ----------
	const migrateLockID int64 = 20260901

	if err := db.Exec("SELECT pg_advisory_lock(?)", migrateLockID).Error; err != nil {
		log.Fatalf("migration lock error: %v", err)
	}
	defer func() {
		_ = db.Exec("SELECT pg_advisory_unlock(?)", migrateLockID).Error
	}()

	if err := Migrate(db); err != nil {
		log.Fatalf("migration error: %v", err)
	}
	log.Println("migration successful")

	if err := SeedRBAC(db); err != nil {
		log.Fatalf("seed error: %v", err)
	}

	// ---------- Infra ----------
	kafkaProducer := queue.NewProducer(
		cfg.KafkaBroker,
		cfg.KafkaTopic,
		cfg.KafkaUsername,
		cfg.KafkaPassword,
	)

	authHelper := helper.SetupAuth(cfg.AccessSecret)

	// ---------- Repositories ----------
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	permRepo := repository.NewPermissionRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// ---------- Services ----------
	userSvc := services.NewUserService(userRepo, permRepo, kafkaProducer, authHelper)
	adminSvc := services.NewAdminService(userRepo, roleRepo, auditRepo, kafkaProducer, authHelper)

	// ---------- Middleware ----------
	authMW := middleware.AuthMiddleware(authHelper)
	adminMW := middleware.AdminOnly(permRepo)

	// ---------- Handlers ----------
	userHandler := handlers.NewUserHandler(userSvc, authHelper)
	userHandler.SetupRoutes(app, authMW)

	adminHandler := handlers.NewAdminHandler(adminSvc, auditRepo)
	adminHandler.SetupRoutes(app, authMW, adminMW)

	// ---------- Health ----------
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// ---------- Listen ----------
	addr := cfg.ServerPort
	log.Println("listening on", addr)
	log.Fatal(app.Listen(addr))
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Role{},
		&domain.Permission{},
		&domain.UserRole{},
		&domain.RolePermission{},
		&domain.AuditLog{},
	)
}

// SeedRBAC provisions the baseline roles and permission catalog. Safe to run
// on every boot; existing rows are left alone.
func SeedRBAC(db *gorm.DB) error {
	for _, name := range []string{domain.RoleAdmin, domain.RoleEditor} {
		var r domain.Role
		err := db.Where("name = ?", name).First(&r).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&domain.Role{Name: name}).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}

	for _, ref := range domain.BaselinePermissions {
		var p domain.Permission
		err := db.Where("resource = ? AND action = ?", ref.Resource, ref.Action).First(&p).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&domain.Permission{Resource: ref.Resource, Action: ref.Action}).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}

	return nil
}
