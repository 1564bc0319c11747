package sources

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/threadsync/core/internal/models"
	"github.com/threadsync/core/internal/modules/mention"
)

// AssetOptions configures the S3-backed asset source.
type AssetOptions struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	// PublicBaseURL prefixes object keys to form the asset URL (CDN or
	// bucket website endpoint).
	PublicBaseURL string
}

// AssetSource lists uploaded assets from an S3-compatible bucket as
// mention candidates.
type AssetSource struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func NewAssetSource(opts AssetOptions) *AssetSource {
	if opts.Bucket == "" {
		return nil
	}
	s3opts := s3.Options{
		Region:       opts.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		UsePathStyle: true,
	}
	if opts.Endpoint != "" {
		s3opts.BaseEndpoint = aws.String(opts.Endpoint)
	}
	return &AssetSource{
		client:  s3.New(s3opts),
		bucket:  opts.Bucket,
		baseURL: strings.TrimSuffix(opts.PublicBaseURL, "/"),
	}
}

// Candidates lists asset mention candidates matching the partial query.
func (s *AssetSource) Candidates(ctx context.Context, query string) ([]models.AssetMention, error) {
	var out []models.AssetMention

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list assets: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			filename := path.Base(key)
			if !mention.MatchesQuery(query, filename, key) {
				continue
			}
			out = append(out, s.toMention(key, filename))
		}
	}
	if out == nil {
		out = []models.AssetMention{}
	}
	return out, nil
}

func (s *AssetSource) toMention(key, filename string) models.AssetMention {
	m := models.AssetMention{
		ID:       key,
		Filename: filename,
		URL:      s.baseURL + "/" + key,
		MimeType: mime.TypeByExtension(path.Ext(filename)),
	}
	if strings.HasPrefix(m.MimeType, "image/") {
		m.ThumbnailURL = m.URL
	}
	return m
}
