package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"attendance-tracker/internal/domain"
)

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// PutOptions conveys upload destination metadata.
type PutOptions struct {
	Bucket      string
	Key         string
	ContentType string
}

// Service stores exported reports in remote object storage.
type Service interface {
	Put(ctx context.Context, body io.Reader, opts PutOptions) (string, error)
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}

// Archive files rendered reports under a key prefix in one bucket.
type Archive struct {
	svc       Service
	bucket    string
	keyPrefix string
	linkTTL   time.Duration
	now       func() time.Time
	log       *logrus.Entry
}

// ArchivedReport points at one stored report.
type ArchivedReport struct {
	Key      string     `json:"key"`
	Location string     `json:"location"`
	URL      string     `json:"url,omitempty"`
	Size     int64      `json:"size,omitempty"`
	StoredAt *time.Time `json:"stored_at,omitempty"`
}

func NewArchive(svc Service, bucket, keyPrefix string, log *logrus.Entry) *Archive {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Archive{
		svc:       svc,
		bucket:    bucket,
		keyPrefix: strings.Trim(keyPrefix, "/"),
		linkTTL:   15 * time.Minute,
		now:       time.Now,
		log:       log.WithField("component", "archive"),
	}
}

// Store uploads body under a key derived from the report and returns a
// short-lived download link alongside the object location.
func (a *Archive) Store(ctx context.Context, r *domain.Report, ext, contentType string, body io.Reader) (*ArchivedReport, error) {
	key := ReportKey(a.keyPrefix, r, a.now(), ext)
	location, err := a.svc.Put(ctx, body, PutOptions{Bucket: a.bucket, Key: key, ContentType: contentType})
	if err != nil {
		return nil, err
	}

	out := &ArchivedReport{Key: key, Location: location}
	url, err := a.svc.GetObjectURL(ctx, a.bucket, key, a.linkTTL)
	if err != nil {
		a.log.WithError(err).WithField("key", key).Warn("presign archived report")
	} else {
		out.URL = url
	}
	a.log.WithFields(logrus.Fields{"key": key, "mode": r.Mode}).Info("report archived")
	return out, nil
}

// List returns archived reports, optionally narrowed to one mode.
func (a *Archive) List(ctx context.Context, mode domain.ReportMode) ([]ArchivedReport, error) {
	prefix := a.keyPrefix
	if mode != "" {
		prefix = path.Join(prefix, string(mode))
	}
	if prefix != "" {
		prefix += "/"
	}

	objects, err := a.svc.ListObjects(ctx, a.bucket, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]ArchivedReport, len(objects))
	for i, obj := range objects {
		out[i] = ArchivedReport{
			Key:      obj.Key,
			Location: fmt.Sprintf("s3://%s/%s", a.bucket, obj.Key),
			Size:     obj.Size,
			StoredAt: obj.LastModified,
		}
	}
	return out, nil
}

// ReportKey builds <prefix>/<mode>/<from>_<to>/<stamp>.<ext>.
func ReportKey(prefix string, r *domain.Report, at time.Time, ext string) string {
	span := r.Range.From.Format(domain.DateLayout) + "_" + r.Range.To.Format(domain.DateLayout)
	name := at.UTC().Format("20060102T150405Z") + "." + strings.TrimPrefix(ext, ".")
	return path.Join(strings.Trim(prefix, "/"), string(r.Mode), span, name)
}
