package main

import (
	"alcyxob/fitcoach/internal/api"
	"alcyxob/fitcoach/internal/config"
	"alcyxob/fitcoach/internal/metrics"
	"alcyxob/fitcoach/internal/repository"
	"alcyxob/fitcoach/internal/repository/memory"
	"alcyxob/fitcoach/internal/repository/mongo"
	"alcyxob/fitcoach/internal/service"
	"alcyxob/fitcoach/internal/storage"
	"context"
	"fmt"
	"log"
)

// repositories is one backend's set of collections plus its transactor.
type repositories struct {
	users           repository.UserRepository
	workouts        repository.WorkoutRepository
	tasks           repository.TaskRepository
	submissions     repository.SubmissionRepository
	templates       repository.TemplateRepository
	assignments     repository.AssignmentRepository
	recommendations repository.RecommendationRepository
	uploads         repository.UploadRepository
	tx              repository.Transactor
	close           func()
}

func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return cfg, fmt.Errorf("could not load config: %w", err)
	}
	log.Println("INFO: Configuration loaded.")
	return cfg, nil
}

// openRepositories connects the configured database driver.
func openRepositories(cfg config.DatabaseConfig) (*repositories, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		log.Println("WARN: Using the in-memory store; data is lost on exit.")
		store := memory.NewStore()
		return &repositories{
			users:           store.Users(),
			workouts:        store.Workouts(),
			tasks:           store.Tasks(),
			submissions:     store.Submissions(),
			templates:       store.Templates(),
			assignments:     store.Assignments(),
			recommendations: store.Recommendations(),
			uploads:         store.Uploads(),
			tx:              store,
			close:           func() {},
		}, nil

	case config.DriverMongo:
		client, err := mongo.ConnectDB(cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("could not connect to MongoDB: %w", err)
		}
		db := client.Database(cfg.Name)
		log.Println("INFO: Database connection established.")
		return &repositories{
			users:           mongo.NewMongoUserRepository(db),
			workouts:        mongo.NewMongoWorkoutRepository(db),
			tasks:           mongo.NewMongoTaskRepository(db),
			submissions:     mongo.NewMongoSubmissionRepository(db),
			templates:       mongo.NewMongoTemplateRepository(db),
			assignments:     mongo.NewMongoAssignmentRepository(db),
			recommendations: mongo.NewMongoRecommendationRepository(db),
			uploads:         mongo.NewMongoUploadRepository(db),
			tx:              mongo.NewTransactor(client, cfg.Transactions),
			close: func() {
				log.Println("INFO: Disconnecting MongoDB...")
				if err := mongo.DisconnectDB(client); err != nil {
					log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
				}
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// taskService builds the task service alone, for the batch commands.
func (r *repositories) taskService(m *metrics.Metrics) service.TaskService {
	return service.NewTaskService(r.users, r.workouts, r.tasks, r.submissions, r.uploads, r.tx, m)
}

// services wires every service the HTTP API needs.
func (r *repositories) services(ctx context.Context, cfg config.Config, m *metrics.Metrics) (api.Services, error) {
	fileStorage, err := storage.NewS3Storage(ctx, cfg.S3)
	if err != nil {
		return api.Services{}, fmt.Errorf("failed to initialize S3 storage: %w", err)
	}

	coaches := service.NewCoachService(r.users, r.tx)
	assignments := service.NewAssignmentService(r.users, r.templates, r.assignments, r.tx)
	return api.Services{
		Auth:           service.NewAuthService(r.users, cfg.JWT.Secret, cfg.JWT.Expiration),
		Coach:          coaches,
		Workout:        service.NewWorkoutService(r.workouts),
		Task:           r.taskService(m),
		Template:       service.NewTemplateService(r.templates, r.assignments, r.workouts),
		Assignment:     assignments,
		Recommendation: service.NewRecommendationService(r.users, r.templates, r.recommendations, coaches, assignments, r.tx, m),
		Media:          service.NewMediaService(r.tasks, r.uploads, fileStorage),
	}, nil
}
