package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"

	"github.com/johnyenter-briars/powerplatform-dataverse-client/auth"
	"github.com/johnyenter-briars/powerplatform-dataverse-client/dataverse"
	"github.com/johnyenter-briars/powerplatform-dataverse-client/internal/config"
	"github.com/johnyenter-briars/powerplatform-dataverse-client/internal/mirror"
	"github.com/johnyenter-briars/powerplatform-dataverse-client/internal/storage"
	"github.com/johnyenter-briars/powerplatform-dataverse-client/internal/worker"
)

var version = "dev"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Dataverse Export %s\n\n", version)
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  dataverse-export -entity-set <name> -fetchxml <file> [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables (Required):\n")
		fmt.Fprintf(os.Stderr, "  DATAVERSE_URL  Environment URL (https://myorg.crm.dynamics.com)\n")
		fmt.Fprintf(os.Stderr, "  TENANT_ID      Azure AD tenant of the app registration\n")
		fmt.Fprintf(os.Stderr, "  CLIENT_ID      App registration client id\n")
		fmt.Fprintf(os.Stderr, "  CLIENT_SECRET  App registration client secret\n")
	}

	showVersion := flag.Bool("version", false, "Show version")
	entitySet := flag.String("entity-set", "", "Entity set to export (e.g. accounts)")
	fetchxmlPath := flag.String("fetchxml", "", "Path to the FetchXML query file")
	format := flag.String("format", "csv", "Output format: csv, json, excel, pdf")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Dataverse Export %s\n", version)
		os.Exit(0)
	}

	_ = godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	if cfg.DataverseURL == "" || cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		slog.Error("missing configuration (DATAVERSE_URL, TENANT_ID, CLIENT_ID, CLIENT_SECRET)")
		os.Exit(1)
	}
	if *entitySet == "" || *fetchxmlPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	fetchxml, err := os.ReadFile(*fetchxmlPath)
	if err != nil {
		slog.Error("failed to read fetchxml file", "path", *fetchxmlPath, "error", err)
		os.Exit(1)
	}

	scope := cfg.Scope
	if scope == "" {
		scope = cfg.DataverseURL + "/.default"
	}
	tokens := auth.NewClientCredentialsSource(auth.ClientCredentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TenantID:     cfg.TenantID,
		Scope:        scope,
	})
	if _, err := tokens.Token(context.Background()); err != nil {
		slog.Error("credential check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("authenticated against dataverse", "url", cfg.DataverseURL)

	client := dataverse.NewServiceClient(cfg.DataverseURL, tokens)
	client.SetLogger(logger)

	store := buildStorage(cfg)

	var hub *worker.Hub
	if cfg.ProgressAddr != "" {
		hub = worker.NewHub()
		mux := http.NewServeMux()
		mux.HandleFunc("/progress", hub.Handler())
		go func() {
			slog.Info("progress feed listening", "addr", cfg.ProgressAddr)
			if err := http.ListenAndServe(cfg.ProgressAddr, mux); err != nil {
				slog.Error("progress server stopped", "error", err)
			}
		}()
	}

	pool := worker.NewPool(cfg.WorkerCount, cfg.MaxConcurrentRetrievals, client, store, hub, cfg.Compression)
	pool.Start()
	defer pool.Stop()

	job := worker.NewExportJob(*entitySet, string(fetchxml), *format, cfg.DefaultTimeout)
	if !pool.Submit(job) {
		slog.Error("export queue full")
		os.Exit(1)
	}

	<-job.Done()
	if job.Status != worker.StatusCompleted {
		slog.Error("export did not complete", "status", job.Status, "error", job.Err)
		os.Exit(1)
	}

	if cfg.MirrorDSN != "" {
		runMirror(cfg, client, *entitySet, string(fetchxml))
	}
}

func buildStorage(cfg *config.Config) storage.Provider {
	if cfg.StorageType != "s3" {
		return storage.NewLocalProvider(cfg.LocalStoragePath)
	}

	opts := s3.Options{
		Region: cfg.AWSRegion,
		Credentials: aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			}, nil
		}),
		UsePathStyle: cfg.S3PathStyle,
	}
	if cfg.S3Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.S3Endpoint)
	}
	return storage.NewS3Provider(s3.New(opts), cfg.S3Bucket)
}

func runMirror(cfg *config.Config, client *dataverse.ServiceClient, entitySet, fetchxml string) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DefaultTimeout)
	defer cancel()

	m, err := mirror.Open(cfg.MirrorDSN)
	if err != nil {
		slog.Error("mirror connection failed", "error", err)
		return
	}
	defer m.Close()

	entities, err := client.RetrieveMultiple(ctx, entitySet, fetchxml)
	if err != nil {
		slog.Error("mirror retrieval failed", "error", err)
		return
	}
	rows, err := m.Replace(ctx, cfg.MirrorTable, entities)
	if err != nil {
		slog.Error("mirror write failed", "error", err)
		return
	}
	slog.Info("mirror refreshed", "table", cfg.MirrorTable, "rows", rows)
}
