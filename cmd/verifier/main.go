// Command verifier spot-checks that files on the local share are present in
// object storage. It samples image files under a root directory, head-checks
// each one's destination key, and exits non-zero when anything is missing.
package main

import (
	"context"
	"flag"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mikrolab/s3uploader/internal/config"
	"github.com/mikrolab/s3uploader/internal/storage"
)

func main() {
	root := flag.String("root", "/share/mikro", "directory to sample files from")
	sample := flag.Int("n", 100, "number of files to check")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx := context.Background()

	// Only the storage side of the configuration matters here; the verifier
	// never touches the database.
	cfg := config.Load()
	if cfg.S3Endpoint == "" {
		logger.Fatal().Msg("S3_ENDPOINT is required")
	}
	if cfg.S3CredentialsSource == "static" && (cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "") {
		logger.Fatal().Msg("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required with static credentials")
	}

	var creds storage.CredentialProvider
	switch cfg.S3CredentialsSource {
	case "shared":
		creds = storage.SharedFileCredentials{Profile: cfg.S3CredentialsProfile}
	default:
		creds = storage.StaticCredentials{
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		}
	}
	factory := storage.NewS3ClientFactory(creds, cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket)

	store, err := factory.Acquire(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to acquire storage client")
	}

	files, err := collectImageFiles(*root)
	if err != nil {
		logger.Fatal().Err(err).Str("root", *root).Msg("failed to scan root directory")
	}
	if len(files) == 0 {
		logger.Warn().Str("root", *root).Msg("no image files found")
		return
	}
	files = chooseRandom(files, *sample)

	logger.Info().
		Str("root", *root).
		Str("bucket", cfg.S3Bucket).
		Int("files", len(files)).
		Msg("starting verification")

	var found, missing, failed int
	for i, path := range files {
		key := strings.TrimLeft(path, "/")
		exists, err := store.ObjectExists(ctx, key)
		switch {
		case err != nil:
			failed++
			logger.Warn().Err(err).Str("key", key).Msg("check failed")
		case exists:
			found++
			logger.Debug().Str("key", key).Msg("found")
		default:
			missing++
			logger.Info().Str("local_path", path).Str("key", key).Msg("missing in storage")
		}
		if (i+1)%100 == 0 {
			logger.Info().Int("checked", i+1).Int("missing", missing).Msg("progress")
		}
	}

	logger.Info().
		Int("checked", len(files)).
		Int("found", found).
		Int("missing", missing).
		Int("errors", failed).
		Msg("verification summary")

	if missing > 0 || failed > 0 {
		os.Exit(1)
	}
}

var imageExtensions = map[string]bool{
	".tif":  true,
	".tiff": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

func collectImageFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal; shares have
			// permission holes.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && imageExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func chooseRandom(files []string, n int) []string {
	if n >= len(files) {
		return files
	}
	rand.Shuffle(len(files), func(i, j int) {
		files[i], files[j] = files[j], files[i]
	})
	return files[:n]
}
