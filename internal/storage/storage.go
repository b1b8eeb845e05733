package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/rs/zerolog/log"
)

// Storage keeps a copy of every generated bitmap outside the database,
// so operators can eyeball what a device was sent.
type Storage interface {
	SaveBytes(data []byte, filename string) (string, error)
}

type LocalStorage struct {
	artifactDir string
}

type SpacesStorage struct {
	client   *s3.S3
	bucket   string
	cdnURL   string
	endpoint string
}

func NewLocalStorage(artifactDir string) *LocalStorage {
	return &LocalStorage{artifactDir: artifactDir}
}

func NewSpacesStorage(endpoint, region, bucket, cdnURL, accessKey, secretKey string) (*SpacesStorage, error) {
	config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(false),
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SpacesStorage{
		client:   s3.New(sess),
		bucket:   bucket,
		cdnURL:   cdnURL,
		endpoint: endpoint,
	}, nil
}

var filenamePattern = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// normalizeFilename strips anything that would make a bad object key.
func normalizeFilename(filename string) string {
	name := filenamePattern.ReplaceAllString(filename, "_")
	if name == "" || name == "." {
		name = "screen.bmp"
	}
	return name
}

func (ls *LocalStorage) SaveBytes(data []byte, filename string) (string, error) {
	name := normalizeFilename(filename)
	path := filepath.Join(ls.artifactDir, name)

	if err := os.MkdirAll(ls.artifactDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	log.Debug().Str("path", path).Int("bytes", len(data)).Msg("saved screen artifact")
	return path, nil
}

func (ss *SpacesStorage) SaveBytes(data []byte, filename string) (string, error) {
	name := normalizeFilename(filename)
	key := fmt.Sprintf("screens/%s", name)

	_, err := ss.client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(ss.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/bmp"),
		ACL:         aws.String("private"),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to upload artifact to Spaces")
		return "", fmt.Errorf("failed to upload to Spaces: %w", err)
	}

	cdnURL := fmt.Sprintf("%s/%s", strings.TrimSuffix(ss.cdnURL, "/"), key)
	return cdnURL, nil
}
