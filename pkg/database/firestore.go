package database

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"mailsift-backend/pkg/config"
	"mailsift-backend/pkg/logger"
)

// FirebaseOptions picks the credential source: inline JSON, then a file,
// otherwise application default credentials.
func FirebaseOptions(cfg *config.Config) []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case cfg.FirebaseCredentials != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.FirebaseCredentials)))
	case cfg.FirebaseCredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	}
	return opts
}

// NewFirestoreClient initializes the Firebase app and returns its Firestore client
func NewFirestoreClient(ctx context.Context, cfg *config.Config) (*firestore.Client, error) {
	var appConfig *firebase.Config
	if cfg.FirebaseProjectID != "" {
		appConfig = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}

	app, err := firebase.NewApp(ctx, appConfig, FirebaseOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get firestore client: %w", err)
	}

	log := logger.For("Firestore")
	log.Info().Str("project", cfg.FirebaseProjectID).Msg("client initialized successfully")
	return client, nil
}
