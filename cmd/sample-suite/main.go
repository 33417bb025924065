// Command sample-suite runs a few read-only scenarios against a live
// Dataverse environment: metadata listing, a FetchXML retrieval and the
// matching count. Useful as a smoke test for credentials and connectivity.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/joho/godotenv"

	"github.com/johnyenter-briars/powerplatform-dataverse-client/auth"
	"github.com/johnyenter-briars/powerplatform-dataverse-client/dataverse"
	"github.com/johnyenter-briars/powerplatform-dataverse-client/internal/config"
)

const defaultFetchXML = `<fetch top="5"><entity name="account"><attribute name="accountid" /><attribute name="name" /></entity></fetch>`

func main() {
	entitySet := flag.String("entity-set", "accounts", "Entity set to query")
	logicalName := flag.String("logical-name", "account", "Logical name for the metadata scenario")
	fetchxmlPath := flag.String("fetchxml", "", "Optional FetchXML file (defaults to a small account query)")
	verbose := flag.Bool("v", false, "Debug logging (pages, mutated queries, urls)")
	flag.Parse()

	_ = godotenv.Load()
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if cfg.DataverseURL == "" || cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		slog.Error("missing configuration (DATAVERSE_URL, TENANT_ID, CLIENT_ID, CLIENT_SECRET)")
		os.Exit(1)
	}

	fetchxml := defaultFetchXML
	if *fetchxmlPath != "" {
		data, err := os.ReadFile(*fetchxmlPath)
		if err != nil {
			slog.Error("failed to read fetchxml file", "path", *fetchxmlPath, "error", err)
			os.Exit(1)
		}
		fetchxml = string(data)
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

	client := dataverse.NewServiceClient(cfg.DataverseURL, tokens)
	client.SetLogger(logger)

	ctx := context.Background()
	if err := runScenarios(ctx, client, *entitySet, *logicalName, fetchxml); err != nil {
		slog.Error("sample suite failed", "error", err)
		os.Exit(1)
	}
}

func runScenarios(ctx context.Context, client *dataverse.ServiceClient, entitySet, logicalName, fetchxml string) error {
	fmt.Println("Scenario: metadata")
	definitions, err := client.ListEntityDefinitions(ctx)
	if err != nil {
		return fmt.Errorf("list entity definitions: %w", err)
	}
	fmt.Printf("Environment has %d entity definitions\n", len(definitions))

	attributes, err := client.ListEntityAttributes(ctx, logicalName)
	if err != nil {
		return fmt.Errorf("list attributes of %s: %w", logicalName, err)
	}
	fmt.Printf("Entity %q has %d readable attributes\n", logicalName, len(attributes))

	fmt.Println("Scenario: fetchxml")
	entities, err := client.RetrieveMultiple(ctx, entitySet, fetchxml)
	if err != nil {
		return fmt.Errorf("retrieve %s: %w", entitySet, err)
	}
	fmt.Printf("FetchXML [%s] returned %d record(s)\n", entitySet, len(entities))

	if len(entities) > 0 {
		keys := make([]string, 0, len(entities[0]))
		for key := range entities[0] {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		fmt.Printf("First record attributes: %v\n", keys)
	}

	count, err := client.RetrieveMultipleCount(ctx, entitySet, fetchxml)
	if err != nil {
		return fmt.Errorf("count %s: %w", entitySet, err)
	}
	fmt.Printf("FetchXML [%s] count: %d\n", entitySet, count)

	return nil
}
