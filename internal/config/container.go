package config

import (
	"time"

	"doc-annotator/internal/domain"
	"doc-annotator/internal/repository"
	"doc-annotator/internal/service"
	"doc-annotator/internal/viewer"
	"doc-annotator/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config               domain.Config
	Logger               domain.Logger
	SupabaseClient       domain.SupabaseClient
	AnnotationRepository domain.AnnotationRepository
	DocumentRepository   domain.DocumentRepository
	DocumentStreamer     domain.DocumentStreamer
	AnnotationService    domain.AnnotationService
	DocumentService      domain.DocumentService
	ViewerManager        *viewer.Manager
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	config := NewConfig()
	appLogger := logger.NewLogger(config.GetLogLevel())

	// Initialize Supabase client
	supabaseClient := repository.NewSupabaseClient(config, appLogger)

	// Initialize repositories
	annotationRepo := repository.NewAnnotationRepository(supabaseClient, appLogger)
	documentRepo := repository.NewSupabaseDocumentRepository(supabaseClient, appLogger)
	streamer := repository.NewStorageClient(config, appLogger)

	// Initialize services
	annotationService := service.NewAnnotationService(annotationRepo, appLogger)
	documentService := service.NewDocumentService(documentRepo, streamer, appLogger)

	viewerManager := viewer.NewManager(
		documentService,
		annotationRepo,
		appLogger,
		time.Duration(config.GetSettleDelayMillis())*time.Millisecond,
		time.Duration(config.GetFlashDurationMillis())*time.Millisecond,
	)

	return &Container{
		Config:               config,
		Logger:               appLogger,
		SupabaseClient:       supabaseClient,
		AnnotationRepository: annotationRepo,
		DocumentRepository:   documentRepo,
		DocumentStreamer:     streamer,
		AnnotationService:    annotationService,
		DocumentService:      documentService,
		ViewerManager:        viewerManager,
	}
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}

// GetSupabaseClient returns the Supabase client instance
func (c *Container) GetSupabaseClient() domain.SupabaseClient {
	return c.SupabaseClient
}
