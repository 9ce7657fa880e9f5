// Copyright 2025 Civicdata Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config resolves runtime settings from the environment, with
// optional .env file support for local development.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/civicdata/transparencia/core"
)

// Config holds every runtime setting of the loader and query tools.
type Config struct {
	// Postgres connection settings, libpq-style variable names.
	Host     string
	Port     string
	User     string
	Password string
	Database string

	// DataDir is the directory scanned for source CSV files.
	DataDir string

	// Target institution identity, seeded on every load.
	InstitutionCode      string
	InstitutionTaxID     string
	InstitutionName      string
	InstitutionShortName string

	// Embedding service settings.
	EmbeddingHost  string
	EmbeddingModel string

	// TopK is the default similarity query result count.
	TopK int
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over it.
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{
		Host:                 getEnv("PGHOST", "localhost"),
		Port:                 getEnv("PGPORT", "5432"),
		User:                 getEnv("PGUSER", "postgres"),
		Password:             getEnv("PGPASSWORD", "postgres"),
		Database:             getEnv("PGDATABASE", "transparencia"),
		DataDir:              getEnv("DATA_DIR", "data/csv"),
		InstitutionCode:      getEnv("INSTITUTION_CODE", "023"),
		InstitutionTaxID:     getEnv("INSTITUTION_TAX_ID", "Q2818013A"),
		InstitutionName:      getEnv("INSTITUTION_NAME", "Universidad Autónoma de Madrid"),
		InstitutionShortName: getEnv("INSTITUTION_SHORT_NAME", "UAM"),
		EmbeddingHost:        getEnv("EMBEDDING_HOST", "http://localhost:11434/v1"),
		EmbeddingModel:       getEnv("EMBEDDING_MODEL", "embeddinggemma"),
	}

	topK := getEnv("TOP_K", "5")
	k, err := strconv.Atoi(topK)
	if err != nil || k <= 0 {
		return nil, fmt.Errorf("invalid TOP_K %q", topK)
	}
	cfg.TopK = k

	return cfg, nil
}

// DSN returns the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		url.QueryEscape(c.User), url.QueryEscape(c.Password),
		c.Host, c.Port, c.Database)
}

// Institution returns the configured target institution.
func (c *Config) Institution() core.Institution {
	return core.Institution{
		Code:      c.InstitutionCode,
		TaxID:     c.InstitutionTaxID,
		Name:      c.InstitutionName,
		ShortName: c.InstitutionShortName,
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
